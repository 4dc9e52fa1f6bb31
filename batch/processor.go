package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/otzaria/acronymizer/llm"
	"github.com/otzaria/acronymizer/pacing"
	"github.com/rs/zerolog"
)

// DefaultSessionRefreshEvery is how many queried items are processed on
// one LLM session before a fresh one is created.
const DefaultSessionRefreshEvery = 5

type itemOutcome int

const (
	outcomeSkipped itemOutcome = iota
	outcomeInserted
	outcomeUpdated
	outcomeEmpty
)

// Processor drives one enrichment pass over a list of source items.
type Processor struct {
	store    ResultStore
	pacer    *pacing.Pacer
	guard    *pacing.RetryGuard
	sessions llm.SessionFactory
	homog    *Homogenizer
	logger   zerolog.Logger

	sessionRefreshEvery int
	flushEvery          int
}

// NewProcessor creates a Processor. Non-positive cadences fall back to
// the defaults (refresh every 5 queried items, flush every 50 written
// records).
func NewProcessor(store ResultStore, pacer *pacing.Pacer, guard *pacing.RetryGuard, sessions llm.SessionFactory, homog *Homogenizer, logger zerolog.Logger) *Processor {
	return &Processor{
		store:               store,
		pacer:               pacer,
		guard:               guard,
		sessions:            sessions,
		homog:               homog,
		logger:              logger.With().Str("component", "processor").Logger(),
		sessionRefreshEvery: DefaultSessionRefreshEvery,
		flushEvery:          DefaultFlushThreshold,
	}
}

// SetCadence overrides the session refresh and flush cadences.
// Non-positive values keep the current setting.
func (p *Processor) SetCadence(sessionRefreshEvery, flushEvery int) {
	if sessionRefreshEvery > 0 {
		p.sessionRefreshEvery = sessionRefreshEvery
	}
	if flushEvery > 0 {
		p.flushEvery = flushEvery
	}
}

// Run processes the items strictly in order. Per-item failures are
// logged with the offending key and never abort the run; the returned
// error is non-nil only for run-level failures (initial session creation
// or context cancellation between items). The accumulated homogenization
// batch is force-flushed before returning.
func (p *Processor) Run(ctx context.Context, items []string) (*RunStats, error) {
	client, err := p.sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("create LLM session: %w", err)
	}

	stats := &RunStats{}
	var pending []Record
	queried := 0

	for _, key := range items {
		if ctx.Err() != nil {
			p.flushPending(ctx, client, &pending, true)
			return stats, ctx.Err()
		}

		rec, outcome, itemErr := p.processOne(ctx, client, key)
		stats.Processed++

		switch {
		case itemErr != nil:
			stats.Failed++
			p.logger.Error().Err(itemErr).Str("key", key).Msg("Failed to process item")
		case outcome == outcomeSkipped:
			stats.Skipped++
			p.logger.Debug().Str("key", key).Msg("Already processed; skipping")
		case outcome == outcomeEmpty:
			stats.Empty++
		case outcome == outcomeInserted:
			stats.Inserted++
		case outcome == outcomeUpdated:
			stats.Updated++
		}

		if rec != nil {
			pending = append(pending, *rec)
			if len(pending) >= p.flushEvery {
				p.flushPending(ctx, client, &pending, false)
			}
		}

		// Skipped items never touched the session, so they don't count
		// toward the refresh cadence.
		if outcome != outcomeSkipped || itemErr != nil {
			queried++
			if p.sessionRefreshEvery > 0 && queried%p.sessionRefreshEvery == 0 {
				if fresh, sessErr := p.sessions(ctx); sessErr != nil {
					p.logger.Warn().Err(sessErr).Msg("Failed to recreate LLM session; keeping current one")
				} else {
					client = fresh
				}
			}
		}
	}

	p.flushPending(ctx, client, &pending, true)
	return stats, nil
}

// processOne reconciles a single item against the store and queries the
// model when needed.
func (p *Processor) processOne(ctx context.Context, client llm.Client, key string) (*Record, itemOutcome, error) {
	exists, err := p.store.Exists(ctx, key)
	if err != nil {
		return nil, 0, fmt.Errorf("check existing result: %w", err)
	}

	var updateTarget int64
	hasTarget := false
	if exists {
		terms, found, err := p.store.LatestTerms(ctx, key)
		if err != nil {
			return nil, 0, fmt.Errorf("read latest terms: %w", err)
		}
		if found && strings.TrimSpace(terms) != "" {
			return nil, outcomeSkipped, nil
		}
		// A prior run wrote a blank result; re-query and refresh that
		// row in place instead of inserting a duplicate.
		if rowID, ok, err := p.store.LatestRowID(ctx, key); err != nil {
			return nil, 0, fmt.Errorf("read latest row id: %w", err)
		} else if ok {
			updateTarget = rowID
			hasTarget = true
		}
	}

	if err := p.pacer.AcquireSlot(ctx); err != nil {
		return nil, 0, err
	}

	extraction, err := pacing.RunWithRetries(ctx, p.guard, func(ctx context.Context) (*llm.Extraction, error) {
		return client.ExtractAcronyms(ctx, key)
	})
	if err != nil {
		return nil, 0, err
	}

	if len(extraction.Items) == 0 {
		p.logger.Info().Str("key", key).Msg("No attested acronyms found; skipping persistence")
		return nil, outcomeEmpty, nil
	}

	if hasTarget {
		if err := p.store.Update(ctx, updateTarget, extraction.Items); err != nil {
			return nil, 0, fmt.Errorf("update result row: %w", err)
		}
		return &Record{Key: key, Terms: extraction.Items}, outcomeUpdated, nil
	}

	if err := p.store.Insert(ctx, key, extraction.Items); err != nil {
		return nil, 0, fmt.Errorf("insert result row: %w", err)
	}
	return &Record{Key: key, Terms: extraction.Items}, outcomeInserted, nil
}

// flushPending runs a homogenization flush and clears the batch whenever
// a flush was attempted, success or failure.
func (p *Processor) flushPending(ctx context.Context, client llm.Client, pending *[]Record, force bool) {
	attempted, err := p.homog.Flush(ctx, client, *pending, force)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Homogenization flush failed")
	}
	if attempted {
		*pending = (*pending)[:0]
	}
}
