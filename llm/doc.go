// Package llm provides a provider-neutral interface for the structured
// acronym-extraction and uniformization calls, along with a typed error
// taxonomy that lets callers classify rate-limit and schema failures
// without depending on provider-specific error types.
//
// Concrete provider clients live in the subpackages llm/openai,
// llm/anthropic, and llm/ollama. Provider selection is handled by
// ProviderRegistry based on configuration.
package llm
