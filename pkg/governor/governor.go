// Package governor implements per-model admission control for outbound LLM
// calls. Every dispatched request passes Throttle before any network I/O,
// and its measured token cost is fed back via RecordUsage, closing the loop.
package governor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

// Admission rejections. These are expected, recoverable conditions: callers
// match them with errors.Is and decide their own fallback or retry policy.
var (
	ErrPenalized          = errors.New("model is in a backoff penalty window")
	ErrDailyRequestLimit  = errors.New("daily request limit exceeded")
	ErrDailyTokenLimit    = errors.New("daily token limit exceeded")
	ErrMinuteRequestLimit = errors.New("minute request limit exceeded")
	ErrMinuteTokenLimit   = errors.New("minute token limit exceeded")
)

const (
	minuteWindow = time.Minute
	dayWindow    = 24 * time.Hour
)

// bucket holds the rolling counters for one model key. Counters never go
// negative; the minute and day windows reset independently of each other.
type bucket struct {
	requestsThisWindow int64
	tokensThisWindow   int64
	requestsToday      int64
	tokensToday        int64
	minuteWindowStart  time.Time
	dayWindowStart     time.Time
	penaltyUntil       time.Time // zero value means no penalty recorded
}

// Governor owns the keyed bucket collection. Buckets are created lazily on
// first use and live for the process lifetime. All methods are safe for
// concurrent use and never block beyond a short critical section.
type Governor struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	// now is replaceable in tests to drive window and penalty expiry.
	now func() time.Time
}

// New creates an empty Governor.
func New() *Governor {
	return &Governor{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Buckets are keyed by model id alone, not (provider, model id): two
// providers serving an identically-named model share one quota bucket.
func (g *Governor) bucketFor(key string, now time.Time) *bucket {
	b, ok := g.buckets[key]
	if !ok {
		b = &bucket{minuteWindowStart: now, dayWindowStart: now}
		g.buckets[key] = b
	}
	return b
}

// roll resets whichever windows have elapsed. Expiry is evaluated lazily on
// read; nothing is cleared by a timer.
func (b *bucket) roll(now time.Time) {
	if now.Sub(b.minuteWindowStart) > minuteWindow {
		b.requestsThisWindow = 0
		b.tokensThisWindow = 0
		b.minuteWindowStart = now
	}
	if now.Sub(b.dayWindowStart) > dayWindow {
		b.requestsToday = 0
		b.tokensToday = 0
		b.dayWindowStart = now
	}
}

// Throttle decides whether a call for cfg.ModelID may proceed. On success it
// pre-charges one request into both windows; token costs are charged after
// the fact via RecordUsage since they are unknown until the vendor responds.
// A rejection leaves all counters untouched. Throttle never waits.
func (g *Governor) Throttle(cfg models.ModelConfig) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	b := g.bucketFor(cfg.ModelID, now)

	if now.Before(b.penaltyUntil) {
		remaining := b.penaltyUntil.Sub(now)
		log.WithFields(log.Fields{"model": cfg.ModelID, "remaining": remaining}).
			Debug("throttle: rejected, penalty active")
		return fmt.Errorf("model %q: %w (%s remaining)", cfg.ModelID, ErrPenalized, remaining.Round(time.Millisecond))
	}

	b.roll(now)

	if cfg.RPD != nil && b.requestsToday >= *cfg.RPD {
		return fmt.Errorf("model %q: %w (limit %d)", cfg.ModelID, ErrDailyRequestLimit, *cfg.RPD)
	}
	if cfg.TPD != nil && b.tokensToday >= *cfg.TPD {
		return fmt.Errorf("model %q: %w (limit %d)", cfg.ModelID, ErrDailyTokenLimit, *cfg.TPD)
	}
	if cfg.RPM != nil && b.requestsThisWindow >= *cfg.RPM {
		return fmt.Errorf("model %q: %w (limit %d)", cfg.ModelID, ErrMinuteRequestLimit, *cfg.RPM)
	}
	if cfg.TPM != nil && b.tokensThisWindow >= *cfg.TPM {
		return fmt.Errorf("model %q: %w (limit %d)", cfg.ModelID, ErrMinuteTokenLimit, *cfg.TPM)
	}

	b.requestsThisWindow++
	b.requestsToday++
	return nil
}

// RecordUsage charges the measured token cost of a completed call against
// both token windows. It never fails; its effect is observed by the next
// Throttle call for the same key.
func (g *Governor) RecordUsage(modelKey string, u models.Usage) {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := g.bucketFor(modelKey, g.now())
	b.tokensThisWindow += u.TotalTokens
	b.tokensToday += u.TotalTokens
}

// RecordBackoff puts the model into a penalty window ending d from now.
// A later call overwrites the previous window; penalties do not extend or
// compound, and they clear themselves by expiring.
func (g *Governor) RecordBackoff(modelKey string, d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	b := g.bucketFor(modelKey, now)
	b.penaltyUntil = now.Add(d)
	log.WithFields(log.Fields{"model": modelKey, "duration": d}).
		Warn("governor: backoff penalty recorded")
}

// Stats returns a diagnostic snapshot: "<model>" maps to the request count
// in the current minute window, and "<model>:penalty" to the remaining
// penalty in milliseconds while one is live. A fresh Governor returns an
// empty map.
func (g *Governor) Stats() map[string]int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	stats := make(map[string]int64, len(g.buckets))
	for key, b := range g.buckets {
		stats[key] = b.requestsThisWindow
		if now.Before(b.penaltyUntil) {
			stats[key+":penalty"] = b.penaltyUntil.Sub(now).Milliseconds()
		}
	}
	return stats
}
