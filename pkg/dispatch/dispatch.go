// Package dispatch orchestrates one outbound LLM call: admission through
// the governor, generation through a provider adapter, and usage fed back
// into the governor's counters.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tollgate-ai/tollgate/pkg/estimate"
	"github.com/tollgate-ai/tollgate/pkg/governor"
	"github.com/tollgate-ai/tollgate/pkg/journal"
	"github.com/tollgate-ai/tollgate/pkg/keyring"
	"github.com/tollgate-ai/tollgate/pkg/models"
	"github.com/tollgate-ai/tollgate/pkg/provider"
	"github.com/tollgate-ai/tollgate/pkg/rates"
)

// ErrNoAPIKey is returned when the key source has no key for a provider
// that requires one. This is checked before admission: a request that could
// never be sent should not consume a quota slot.
var ErrNoAPIKey = errors.New("no API key available")

// Default penalty windows when the vendor does not say how long to wait.
const (
	throttleBackoff    = 30 * time.Second
	serverErrorBackoff = 15 * time.Second
)

// Dispatcher wires the governor, registry and key source into a single
// execute path. The journal is optional; a nil journal disables the ledger.
type Dispatcher struct {
	governor *governor.Governor
	registry *provider.Registry
	keys     keyring.Source
	journal  journal.Journal
}

// New creates a Dispatcher. journal may be nil.
func New(g *governor.Governor, reg *provider.Registry, keys keyring.Source, j journal.Journal) *Dispatcher {
	return &Dispatcher{governor: g, registry: reg, keys: keys, journal: j}
}

// Execute runs one governed provider call. Admission rejections surface as
// the governor's sentinel errors with no network call made; vendor failures
// surface as *provider.ProviderError after any backoff bookkeeping.
func (d *Dispatcher) Execute(ctx context.Context, cfg models.ModelConfig, history []models.Message, prompt string, tools []models.ToolDefinition) (*models.GenerateResult, error) {
	needsKey, err := d.registry.NeedsKey(cfg.Provider)
	if err != nil {
		return nil, err
	}

	var apiKey string
	if needsKey {
		key, ok := d.keys.APIKey(cfg.Provider)
		if !ok {
			return nil, fmt.Errorf("provider %q: %w", cfg.Provider, ErrNoAPIKey)
		}
		apiKey = key
	}

	if err := d.governor.Throttle(cfg); err != nil {
		return nil, err
	}

	adapter, err := d.registry.Resolve(cfg, apiKey)
	if err != nil {
		return nil, err
	}

	estimated := estimate.Conversation(cfg.SystemPrompt, history, prompt)
	log.WithFields(log.Fields{
		"model":            cfg.ModelID,
		"provider":         cfg.Provider,
		"estimated_tokens": estimated,
	}).Debug("dispatch: calling provider")

	result, err := adapter.Generate(ctx, history, prompt, tools)
	if err != nil {
		d.noteFailure(cfg.ModelID, err)
		return nil, err
	}

	if result.Usage != nil {
		d.governor.RecordUsage(cfg.ModelID, *result.Usage)
		d.appendJournal(ctx, cfg, *result.Usage)
		log.WithFields(log.Fields{
			"model":            cfg.ModelID,
			"estimated_tokens": estimated,
			"actual_tokens":    result.Usage.TotalTokens,
		}).Debug("dispatch: call complete")
	}
	return result, nil
}

// noteFailure records a backoff penalty when the vendor signaled rate
// limiting or a server-side failure, so the next caller is pre-empted
// instead of repeating the same failure. Timeouts and client errors do not
// penalize the model.
func (d *Dispatcher) noteFailure(modelKey string, err error) {
	var perr *provider.ProviderError
	if !errors.As(err, &perr) {
		return
	}
	if errors.Is(perr.Err, provider.ErrTimeout) {
		return
	}
	if !perr.Throttled && perr.StatusCode < 500 {
		return
	}

	d.governor.RecordBackoff(modelKey, backoffFor(perr))
}

func backoffFor(perr *provider.ProviderError) time.Duration {
	if perr.RetryAfter > 0 {
		return perr.RetryAfter
	}
	if perr.Throttled {
		return throttleBackoff
	}
	return serverErrorBackoff
}

func (d *Dispatcher) appendJournal(ctx context.Context, cfg models.ModelConfig, u models.Usage) {
	if d.journal == nil {
		return
	}
	rec := models.CallRecord{
		Model:        cfg.ModelID,
		Provider:     cfg.Provider,
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
		CostUSD:      rates.Cost(cfg.ModelID, u.InputTokens, u.OutputTokens),
		CreatedAt:    time.Now().UTC(),
	}
	if err := d.journal.Record(ctx, rec); err != nil {
		log.WithError(err).Warn("dispatch: journal record failed")
	}
}
