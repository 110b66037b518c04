package provider

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

// ErrUnknownProvider is returned when no builder is registered for a
// provider id.
var ErrUnknownProvider = errors.New("unknown provider")

// Options carries per-provider construction settings. The zero value is
// usable: a default client and the vendor's default base URL apply.
type Options struct {
	Client  *http.Client
	BaseURL string
	Headers map[string]string
}

func (o Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return http.DefaultClient
}

func (o Options) baseURL(fallback string) string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	return fallback
}

// Builder constructs an adapter bound to one model config and key.
type Builder func(cfg models.ModelConfig, apiKey string, opts Options) Adapter

type binding struct {
	build    Builder
	needsKey bool
	opts     Options
}

// Registry maps provider id strings to adapter builders. Adapters bind a
// per-call ModelConfig, so the registry hands out builders over a shared
// HTTP client rather than long-lived adapter instances.
type Registry struct {
	mu       sync.RWMutex
	client   *http.Client
	bindings map[string]binding
}

// NewRegistry creates a registry with the built-in vendors registered:
// openai, anthropic, groq, google (alias gemini) and ollama.
func NewRegistry(client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{}
	}
	r := &Registry{client: client, bindings: make(map[string]binding)}
	r.Register("openai", NewOpenAI, true)
	r.Register("anthropic", NewAnthropic, true)
	r.Register("groq", NewGroq, true)
	r.Register("google", NewGemini, true)
	r.Register("gemini", NewGemini, true)
	r.Register("ollama", NewOllama, false)
	return r
}

// Register adds or replaces a builder for a provider id. needsKey marks
// providers that cannot be called without an API key.
func (r *Registry) Register(id string, b Builder, needsKey bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[id] = binding{build: b, needsKey: needsKey}
}

// Configure overrides the base URL and extra headers used when building
// adapters for a provider id. Unknown ids are an error so that a config
// typo does not silently configure nothing.
func (r *Registry) Configure(id, baseURL string, headers map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[id]
	if !ok {
		return fmt.Errorf("configure %q: %w", id, ErrUnknownProvider)
	}
	b.opts.BaseURL = baseURL
	b.opts.Headers = headers
	r.bindings[id] = b
	return nil
}

// NeedsKey reports whether a provider id requires an API key.
func (r *Registry) NeedsKey(id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[id]
	if !ok {
		return false, fmt.Errorf("provider %q: %w", id, ErrUnknownProvider)
	}
	return b.needsKey, nil
}

// Resolve builds the adapter for cfg.Provider. A base URL on the model
// config wins over the provider-level override.
func (r *Registry) Resolve(cfg models.ModelConfig, apiKey string) (Adapter, error) {
	r.mu.RLock()
	b, ok := r.bindings[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", cfg.Provider, ErrUnknownProvider)
	}

	opts := b.opts
	opts.Client = r.client
	if cfg.BaseURL != "" {
		opts.BaseURL = cfg.BaseURL
	}
	return b.build(cfg, apiKey, opts), nil
}
