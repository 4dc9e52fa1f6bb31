package llm

import (
	"encoding/json"
	"strings"
)

// ParseExtraction parses a model response into a single Extraction.
// Markdown code fences around the JSON are tolerated; anything that does
// not unmarshal into the expected shape is a schema error.
func ParseExtraction(raw string) (*Extraction, error) {
	cleaned := stripFences(raw)

	var out Extraction
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, NewSchemaError("model output is not a valid extraction object", err)
	}
	if out.Items == nil {
		out.Items = []string{}
	}
	return &out, nil
}

// ParseExtractions parses a model response into an ordered slice of
// Extraction values for the uniformization call.
func ParseExtractions(raw string) ([]Extraction, error) {
	cleaned := stripFences(raw)

	var out []Extraction
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, NewSchemaError("model output is not a valid extraction array", err)
	}
	for i := range out {
		if out[i].Items == nil {
			out[i].Items = []string{}
		}
	}
	return out, nil
}

// stripFences removes a surrounding markdown code fence, if present.
// Some models wrap JSON in ```json ... ``` despite being asked not to.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
