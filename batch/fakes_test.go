package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/otzaria/acronymizer/llm"
)

// fakeStore is an in-memory ResultStore with the same latest-row-wins
// history semantics as the SQLite store.
type fakeStore struct {
	rows    []fakeRow
	inserts int
	updates int
}

type fakeRow struct {
	id    int64
	key   string
	terms string
}

func (s *fakeStore) latest(key string) (fakeRow, bool) {
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].key == key {
			return s.rows[i], true
		}
	}
	return fakeRow{}, false
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.latest(key)
	return ok, nil
}

func (s *fakeStore) LatestTerms(_ context.Context, key string) (string, bool, error) {
	row, ok := s.latest(key)
	return row.terms, ok, nil
}

func (s *fakeStore) LatestRowID(_ context.Context, key string) (int64, bool, error) {
	row, ok := s.latest(key)
	return row.id, ok, nil
}

func (s *fakeStore) Insert(_ context.Context, key string, terms []string) error {
	s.inserts++
	s.rows = append(s.rows, fakeRow{
		id:    int64(len(s.rows) + 1),
		key:   key,
		terms: strings.Join(terms, ","),
	})
	return nil
}

func (s *fakeStore) Update(_ context.Context, rowID int64, terms []string) error {
	for i := range s.rows {
		if s.rows[i].id == rowID {
			s.updates++
			s.rows[i].terms = strings.Join(terms, ",")
			return nil
		}
	}
	return fmt.Errorf("no row with id %d", rowID)
}

// fakeClient scripts the two LLM calls.
type fakeClient struct {
	id int // distinguishes sessions

	extract    func(text string) (*llm.Extraction, error)
	uniformize func(entries []llm.Extraction) ([]llm.Extraction, error)

	extractCalls    []string
	uniformizeCalls [][]llm.Extraction
}

func (c *fakeClient) ExtractAcronyms(_ context.Context, text string) (*llm.Extraction, error) {
	c.extractCalls = append(c.extractCalls, text)
	if c.extract != nil {
		return c.extract(text)
	}
	return &llm.Extraction{Term: text, Items: []string{}}, nil
}

func (c *fakeClient) Uniformize(_ context.Context, entries []llm.Extraction) ([]llm.Extraction, error) {
	copied := make([]llm.Extraction, len(entries))
	copy(copied, entries)
	c.uniformizeCalls = append(c.uniformizeCalls, copied)
	if c.uniformize != nil {
		return c.uniformize(entries)
	}
	return entries, nil
}
