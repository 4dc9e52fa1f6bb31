package store

import (
	"fmt"
	"strings"
)

// TermDelimiter separates acronym variants within the stored terms
// column. A term containing the delimiter would not round-trip, so joins
// are validated at write time.
const TermDelimiter = ","

// ErrTermDelimiter is returned when a term contains the storage delimiter.
var ErrTermDelimiter = fmt.Errorf("term contains the %q delimiter", TermDelimiter)

// JoinTerms encodes a term list into the delimited storage form.
func JoinTerms(terms []string) (string, error) {
	for _, term := range terms {
		if strings.Contains(term, TermDelimiter) {
			return "", fmt.Errorf("%w: %q", ErrTermDelimiter, term)
		}
	}
	return strings.Join(terms, TermDelimiter), nil
}

// SplitTerms decodes the delimited storage form back into a term list.
// An empty string decodes to an empty list, not a list with one empty
// element.
func SplitTerms(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, TermDelimiter)
}
