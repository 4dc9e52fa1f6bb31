package llm

// Prompt text shared by the provider clients. All three providers are
// asked for strict JSON so responses can be unmarshaled directly into
// Extraction values; clients surface parse failures as schema errors.

// ExtractSystemPrompt instructs the model to return attested acronym
// variants for a single book title or table-of-contents string.
const ExtractSystemPrompt = `You are a bibliographic expert on Hebrew rabbinic literature.
Given a book title or a table-of-contents entry, list the abbreviation or
acronym variants that are actually attested in the literature for it.
Do not invent abbreviations. If no attested acronym exists, return an
empty list.

Respond with a single JSON object and nothing else, in this exact shape:
{"term": "<the input text>", "items": ["<variant 1>", "<variant 2>"]}`

// UniformizeSystemPrompt instructs the model to reconcile acronym sets
// across a batch of near-duplicate entries.
const UniformizeSystemPrompt = `You are a bibliographic expert on Hebrew rabbinic literature.
You are given a JSON array of entries, each with a "term" (a book title or
table-of-contents entry) and "items" (its acronym variants). Some terms are
near-duplicates of each other but were assigned different acronym sets.
Unify them: near-duplicate terms should end up with the same set of
attested variants. Do not invent new abbreviations and do not drop
attested ones without cause.

Respond with a single JSON array and nothing else. It must contain exactly
one entry per input entry, in the same order, each in the shape:
{"term": "<the original term>", "items": ["<variant 1>", "<variant 2>"]}`
