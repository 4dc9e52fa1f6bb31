package llm

import (
	"testing"
)

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantTerm  string
		wantItems []string
		wantErr   bool
	}{
		{
			name:      "plain object",
			raw:       `{"term": "Mishneh Torah", "items": ["rambam", "m.t."]}`,
			wantTerm:  "Mishneh Torah",
			wantItems: []string{"rambam", "m.t."},
		},
		{
			name:      "empty items",
			raw:       `{"term": "Obscure Pamphlet", "items": []}`,
			wantTerm:  "Obscure Pamphlet",
			wantItems: []string{},
		},
		{
			name:      "missing items normalizes to empty",
			raw:       `{"term": "X"}`,
			wantTerm:  "X",
			wantItems: []string{},
		},
		{
			name:      "fenced json",
			raw:       "```json\n{\"term\": \"X\", \"items\": [\"x\"]}\n```",
			wantTerm:  "X",
			wantItems: []string{"x"},
		},
		{
			name:    "prose instead of json",
			raw:     "The acronym for this work is Rambam.",
			wantErr: true,
		},
		{
			name:    "array instead of object",
			raw:     `[{"term": "X", "items": []}]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExtraction(tt.raw)
			if tt.wantErr {
				if !IsSchemaError(err) {
					t.Errorf("ParseExtraction error = %v, want schema error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseExtraction: %v", err)
			}
			if got.Term != tt.wantTerm {
				t.Errorf("Term = %q, want %q", got.Term, tt.wantTerm)
			}
			if len(got.Items) != len(tt.wantItems) {
				t.Fatalf("Items = %v, want %v", got.Items, tt.wantItems)
			}
			for i := range got.Items {
				if got.Items[i] != tt.wantItems[i] {
					t.Errorf("Items[%d] = %q, want %q", i, got.Items[i], tt.wantItems[i])
				}
			}
		})
	}
}

func TestParseExtractions(t *testing.T) {
	got, err := ParseExtractions(`[{"term": "A", "items": ["a"]}, {"term": "B"}]`)
	if err != nil {
		t.Fatalf("ParseExtractions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("parsed %d entries, want 2", len(got))
	}
	if got[1].Items == nil || len(got[1].Items) != 0 {
		t.Errorf("missing items = %v, want normalized empty list", got[1].Items)
	}

	if _, err := ParseExtractions(`{"term": "A"}`); !IsSchemaError(err) {
		t.Errorf("object instead of array: error = %v, want schema error", err)
	}
}
