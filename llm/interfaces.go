package llm

import (
	"context"
)

// Client is the provider-neutral interface for the two structured calls
// the batch workflow makes. Implementations must return typed *Error
// values for failures they can classify (rate limits in particular) so
// the retry layer can honor server hints.
type Client interface {
	// ExtractAcronyms queries the model for attested acronym variants of
	// a single source text. An Extraction with empty Items means the
	// model found no attested acronym; that is not an error.
	ExtractAcronyms(ctx context.Context, text string) (*Extraction, error)

	// Uniformize asks the model to reconcile acronym sets across a batch
	// of near-duplicate entries. Implementations preserve order and
	// should return the same number of entries they were given; the
	// caller validates cardinality and discards mismatched responses.
	Uniformize(ctx context.Context, entries []Extraction) ([]Extraction, error)
}

// SessionFactory creates a fresh Client with no accumulated
// conversational context. The batch processor invokes it periodically so
// long runs do not drag an ever-growing context behind them.
type SessionFactory func(ctx context.Context) (Client, error)
