package batch

import (
	"context"

	"github.com/otzaria/acronymizer/llm"
	"github.com/otzaria/acronymizer/pacing"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// DefaultFlushThreshold is the batch size at which homogenization runs.
const DefaultFlushThreshold = 50

// Homogenizer reconciles acronym sets across a batch of newly written
// results by asking the model to unify near-duplicate entries, then
// applying changed entries back to the store. It is a best-effort
// enhancement layer: any failure leaves the store as the processor wrote
// it, and is never fatal.
type Homogenizer struct {
	store     ResultStore
	pacer     *pacing.Pacer
	guard     *pacing.RetryGuard
	threshold int
	logger    zerolog.Logger
}

// NewHomogenizer creates a Homogenizer. A non-positive threshold falls
// back to DefaultFlushThreshold.
func NewHomogenizer(store ResultStore, pacer *pacing.Pacer, guard *pacing.RetryGuard, threshold int, logger zerolog.Logger) *Homogenizer {
	if threshold <= 0 {
		threshold = DefaultFlushThreshold
	}
	return &Homogenizer{
		store:     store,
		pacer:     pacer,
		guard:     guard,
		threshold: threshold,
		logger:    logger.With().Str("component", "homogenizer").Logger(),
	}
}

// Flush runs a homogenization pass over the batch. It is a no-op when
// the batch is empty, or below the threshold without force. The returned
// bool reports whether a flush was attempted; after an attempted flush
// the caller must clear the batch regardless of the error, so a failed
// batch is never re-accumulated.
func (h *Homogenizer) Flush(ctx context.Context, client llm.Client, batch []Record, force bool) (bool, error) {
	if len(batch) == 0 {
		return false, nil
	}
	if !force && len(batch) < h.threshold {
		return false, nil
	}

	entries := lo.Map(batch, func(r Record, _ int) llm.Extraction {
		return llm.Extraction{Term: r.Key, Items: r.Terms}
	})

	if err := h.pacer.AcquireSlot(ctx); err != nil {
		return true, err
	}

	returned, err := pacing.RunWithRetries(ctx, h.guard, func(ctx context.Context) ([]llm.Extraction, error) {
		return client.Uniformize(ctx, entries)
	})
	if err != nil {
		h.logger.Warn().Err(err).Int("batch_size", len(batch)).Msg("Uniformization call failed; discarding batch")
		return true, err
	}

	if len(returned) != len(batch) {
		h.logger.Warn().
			Int("sent", len(batch)).
			Int("received", len(returned)).
			Msg("Uniformization entry count mismatch; discarding proposed changes")
		return true, nil
	}

	changed := 0
	for i, rec := range batch {
		if sameTermSet(rec.Terms, returned[i].Items) {
			continue
		}

		rowID, found, err := h.store.LatestRowID(ctx, rec.Key)
		if err != nil {
			h.logger.Warn().Err(err).Str("key", rec.Key).Msg("Failed to look up row for homogenized entry")
			continue
		}
		if found {
			err = h.store.Update(ctx, rowID, returned[i].Items)
		} else {
			// The processor wrote this entry moments ago, so a missing
			// row is unexpected; insert rather than drop the result.
			err = h.store.Insert(ctx, rec.Key, returned[i].Items)
		}
		if err != nil {
			h.logger.Warn().Err(err).Str("key", rec.Key).Msg("Failed to apply homogenized entry")
			continue
		}
		changed++
	}

	h.logger.Info().
		Int("batch_size", len(batch)).
		Int("changed", changed).
		Msg("Homogenization pass complete")
	return true, nil
}

// sameTermSet compares term lists as sets: order differences alone never
// trigger a store update.
func sameTermSet(a, b []string) bool {
	onlyA, onlyB := lo.Difference(a, b)
	return len(onlyA) == 0 && len(onlyB) == 0
}
