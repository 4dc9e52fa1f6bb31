// Package batch implements the idempotent batch-processing workflow: it
// iterates source items, reconciles each against the result store
// (skip / update / insert), invokes the LLM extraction call through the
// pacing and retry layer, and periodically homogenizes the accumulated
// results across near-duplicate entries.
package batch

import (
	"context"
)

// ResultStore is the persistence contract the workflow writes through.
// *store.Store satisfies it; tests substitute fakes. All operations are
// idempotent under retry.
type ResultStore interface {
	// Exists reports whether any row exists for the source key.
	Exists(ctx context.Context, sourceKey string) (bool, error)

	// LatestTerms returns the latest stored terms string for the key.
	// The bool is false when no row exists; an empty string with true
	// means a row exists but holds no terms.
	LatestTerms(ctx context.Context, sourceKey string) (string, bool, error)

	// LatestRowID returns the id of the latest row for the key.
	LatestRowID(ctx context.Context, sourceKey string) (int64, bool, error)

	// Insert appends a new row; history is never overwritten.
	Insert(ctx context.Context, sourceKey string, terms []string) error

	// Update overwrites an existing row's terms in place.
	Update(ctx context.Context, rowID int64, terms []string) error
}

// Record is one newly written result, accumulated for homogenization.
type Record struct {
	Key   string
	Terms []string
}

// RunStats summarizes one processing pass.
type RunStats struct {
	Processed int // items iterated
	Skipped   int // already had a usable result
	Inserted  int // new rows written
	Updated   int // blank rows refreshed in place
	Empty     int // model returned no acronyms; nothing persisted
	Failed    int // per-item failures, logged and skipped
}
