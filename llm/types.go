package llm

// Extraction is the structured result of a single acronym query.
// Term echoes the source text the model was asked about; Items holds the
// attested acronym/abbreviation variants, in the order the model returned
// them. An empty Items slice is a valid outcome meaning no attested
// acronym exists for the term.
type Extraction struct {
	Term  string   `json:"term"`
	Items []string `json:"items"`
}

const (
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
)
