// Package pacing contains the request pacing and rate-limit retry layer
// that wraps every outbound LLM call: a token-budget derived minimum
// inter-call delay, and retry with exponential backoff, jitter, and
// server-hinted wait times on rate-limit errors.
package pacing

import (
	"context"
	"math"
	"sync"
	"time"
)

// Pacer enforces a minimum delay between outbound calls, derived from the
// upstream tokens-per-minute quota and an estimated token cost per
// request. It is advisory throttling, not a hard limiter: the goal is to
// stay under the quota without exact token accounting.
//
// A single Pacer instance must be shared by everything calling the same
// upstream endpoint. The instance is mutex-guarded so a shared instance
// stays correct even if callers are ever run concurrently.
type Pacer struct {
	mu       sync.Mutex
	minDelay time.Duration
	last     time.Time

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a Pacer for the given tokens-per-minute limit and
// estimated tokens per request.
func NewPacer(tpmLimit, estTokensPerRequest int) *Pacer {
	return &Pacer{
		minDelay: MinDelay(tpmLimit, estTokensPerRequest),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// MinDelay computes the minimum inter-call delay for a quota of tpmLimit
// tokens per minute and an estimated cost of estTokensPerRequest tokens
// per call: ceil(60000 / max(1, tpmLimit/estTokensPerRequest)) ms.
func MinDelay(tpmLimit, estTokensPerRequest int) time.Duration {
	if tpmLimit < 1 {
		tpmLimit = 1
	}
	if estTokensPerRequest < 1 {
		estTokensPerRequest = 1
	}
	requestsPerMinute := math.Max(1, float64(tpmLimit)/float64(estTokensPerRequest))
	ms := math.Ceil(60000 / requestsPerMinute)
	return time.Duration(ms) * time.Millisecond
}

// Delay returns the configured minimum inter-call delay.
func (p *Pacer) Delay() time.Duration {
	return p.minDelay
}

// AcquireSlot blocks until at least the minimum delay has elapsed since
// the previous granted slot, then records the new last-call timestamp and
// returns. The wait is a context-aware timer sleep, so other goroutines
// are never blocked. Returns the context's error if it is canceled while
// waiting.
func (p *Pacer) AcquireSlot(ctx context.Context) error {
	for {
		p.mu.Lock()
		now := p.now()
		if p.last.IsZero() || now.Sub(p.last) >= p.minDelay {
			p.last = now
			p.mu.Unlock()
			return nil
		}
		wait := p.minDelay - now.Sub(p.last)
		p.mu.Unlock()

		if err := p.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// sleepContext waits for the specified delay, respecting context
// cancellation.
func sleepContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
