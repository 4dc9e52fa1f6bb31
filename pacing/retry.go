package pacing

import (
	"context"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/otzaria/acronymizer/llm"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxRetries bounds the worst-case backoff so a persistently
	// throttled run fails an item instead of looping forever.
	DefaultMaxRetries = 8
	// DefaultBaseDelay is the initial backoff delay and the jitter range.
	DefaultBaseDelay = 1200 * time.Millisecond
	// maxBackoffInterval caps the exponential growth of a single wait.
	maxBackoffInterval = 10 * time.Minute
)

// retryHintPattern matches server-suggested wait times embedded in
// rate-limit error messages, e.g. "Please try again in 2.5s".
var retryHintPattern = regexp.MustCompile(`(?i)try again in ([0-9]+(?:\.[0-9]+)?)s`)

// rateLimitMarkers are the case-insensitive substrings that identify a
// rate-limit failure when the error is not a typed llm.Error. Kept for
// compatibility with free-text error messages from clients that bypass
// error conversion.
var rateLimitMarkers = []string{"rate limit", "429", "rate_limit_exceeded"}

// RetryGuard wraps fallible operations, retrying rate-limit failures with
// exponential backoff plus uniform jitter and honoring server-provided
// retry hints. Any non-rate-limit failure propagates after a single
// attempt.
type RetryGuard struct {
	maxRetries int
	baseDelay  time.Duration
	logger     zerolog.Logger

	// Injectable for tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

// NewRetryGuard creates a RetryGuard. Non-positive maxRetries or
// baseDelay fall back to the defaults.
func NewRetryGuard(maxRetries int, baseDelay time.Duration, logger zerolog.Logger) *RetryGuard {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	g := &RetryGuard{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger.With().Str("component", "retryGuard").Logger(),
		sleep:      sleepContext,
	}
	g.jitter = func() time.Duration {
		return time.Duration(rand.Int64N(int64(g.baseDelay)))
	}
	return g
}

// IsRateLimitError reports whether an error indicates upstream quota
// exhaustion. It first checks for a typed llm.Error, then falls back to
// substring matching for errors that aren't properly wrapped.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if llm.IsRateLimitError(err) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// retryHint extracts a server-suggested wait time from a rate-limit
// error: a typed RetryAfter when present, otherwise the "try again in
// <n>s" pattern in the message.
func retryHint(err error) (time.Duration, bool) {
	if d := llm.ExtractRetryAfter(err); d != nil && *d > 0 {
		return *d, true
	}

	m := retryHintPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0, false
	}
	seconds, parseErr := strconv.ParseFloat(m[1], 64)
	if parseErr != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// RunWithRetries invokes op, retrying rate-limit failures until it
// succeeds or the guard's retry budget is exhausted, in which case the
// last failure is returned. Non-rate-limit failures propagate unchanged
// after the first attempt.
func RunWithRetries[T any](ctx context.Context, g *RetryGuard, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.baseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0 // jitter is added separately, uniform in [0, baseDelay)
	bo.MaxInterval = maxBackoffInterval
	bo.MaxElapsedTime = 0 // retries are bounded by count, not elapsed time
	bo.Reset()

	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRateLimitError(err) {
			return zero, err
		}
		if attempt >= g.maxRetries {
			g.logger.Error().
				Int("max_retries", g.maxRetries).
				Err(err).
				Msg("Max retries exceeded due to rate limits")
			return zero, err
		}

		// Advance the exponential sequence on every failure so a later
		// attempt without a hint continues where the curve left off.
		wait := bo.NextBackOff()
		hinted := false
		if hint, ok := retryHint(err); ok {
			wait = hint
			hinted = true
		}
		wait += g.jitter()

		g.logger.Warn().
			Int("attempt", attempt+1).
			Int("max_retries", g.maxRetries).
			Bool("server_hint", hinted).
			Dur("wait", wait).
			Err(err).
			Msg("Rate limit encountered. Retrying after delay")

		if sleepErr := g.sleep(ctx, wait); sleepErr != nil {
			return zero, sleepErr
		}
	}
}
