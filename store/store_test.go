package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "acronymizer.db")
	db, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTitleStore(db)
}

func TestJoinTerms(t *testing.T) {
	tests := []struct {
		name     string
		terms    []string
		expected string
		wantErr  bool
	}{
		{"empty", []string{}, "", false},
		{"single", []string{"A"}, "A", false},
		{"multiple", []string{"A", "B"}, "A,B", false},
		{"delimiter in term", []string{"A,B"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinTerms(tt.terms)
			if tt.wantErr {
				if !errors.Is(err, ErrTermDelimiter) {
					t.Errorf("JoinTerms(%v) error = %v, want ErrTermDelimiter", tt.terms, err)
				}
				return
			}
			if err != nil || got != tt.expected {
				t.Errorf("JoinTerms(%v) = (%q, %v), want (%q, nil)", tt.terms, got, err, tt.expected)
			}
		})
	}
}

func TestSplitTerms(t *testing.T) {
	if got := SplitTerms(""); len(got) != 0 {
		t.Errorf("SplitTerms(\"\") = %v, want empty list", got)
	}
	got := SplitTerms("A,B")
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("SplitTerms(\"A,B\") = %v, want [A B]", got)
	}
}

func TestInsertRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "Mishneh Torah")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("Exists returned true before any insert")
	}

	if err := s.Insert(ctx, "Mishneh Torah", []string{"A", "B"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	exists, err = s.Exists(ctx, "Mishneh Torah")
	if err != nil || !exists {
		t.Fatalf("Exists after insert = (%v, %v), want (true, nil)", exists, err)
	}

	terms, found, err := s.LatestTerms(ctx, "Mishneh Torah")
	if err != nil {
		t.Fatalf("LatestTerms: %v", err)
	}
	if !found || terms != "A,B" {
		t.Errorf("LatestTerms = (%q, %v), want (\"A,B\", true)", terms, found)
	}
}

func TestLatestRowWinsAcrossHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, "Shulchan Aruch", []string{"Old"}); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := s.Insert(ctx, "Shulchan Aruch", []string{"New"}); err != nil {
		t.Fatalf("second Insert: %v", err)
	}

	terms, found, err := s.LatestTerms(ctx, "Shulchan Aruch")
	if err != nil || !found {
		t.Fatalf("LatestTerms = (%q, %v, %v)", terms, found, err)
	}
	if terms != "New" {
		t.Errorf("LatestTerms = %q, want the latest row %q", terms, "New")
	}
}

func TestBlankTermsDistinctFromMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, "Unknown Title", []string{}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	terms, found, err := s.LatestTerms(ctx, "Unknown Title")
	if err != nil {
		t.Fatalf("LatestTerms: %v", err)
	}
	if !found || terms != "" {
		t.Errorf("LatestTerms = (%q, %v), want empty string with found=true", terms, found)
	}
}

func TestUpdateOverwritesInPlace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, "Mesillat Yesharim", []string{}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rowID, found, err := s.LatestRowID(ctx, "Mesillat Yesharim")
	if err != nil || !found {
		t.Fatalf("LatestRowID = (%d, %v, %v)", rowID, found, err)
	}

	if err := s.Update(ctx, rowID, []string{"MY"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	terms, _, err := s.LatestTerms(ctx, "Mesillat Yesharim")
	if err != nil {
		t.Fatalf("LatestTerms: %v", err)
	}
	if terms != "MY" {
		t.Errorf("LatestTerms after update = %q, want %q", terms, "MY")
	}

	latest, _, err := s.LatestRowID(ctx, "Mesillat Yesharim")
	if err != nil {
		t.Fatalf("LatestRowID: %v", err)
	}
	if latest != rowID {
		t.Errorf("update created a new row: id %d became %d", rowID, latest)
	}
}

func TestUpdateMissingRowFails(t *testing.T) {
	s := openTestStore(t)

	if err := s.Update(context.Background(), 9999, []string{"X"}); err == nil {
		t.Error("Update of a nonexistent row returned nil, want error")
	}
}

func TestInsertRejectsDelimiterInTerm(t *testing.T) {
	s := openTestStore(t)

	err := s.Insert(context.Background(), "Bad Entry", []string{"A,B"})
	if !errors.Is(err, ErrTermDelimiter) {
		t.Errorf("Insert error = %v, want ErrTermDelimiter", err)
	}
}

func TestMigrationsAreRerunnable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acronymizer.db")
	db, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}

	s := NewTitleStore(db)
	if err := s.Insert(context.Background(), "Keep Me", []string{"KM"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	db.Close()

	// Reopening runs migrations again; data must survive.
	db, err = Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db.Close()

	terms, found, err := NewTitleStore(db).LatestTerms(context.Background(), "Keep Me")
	if err != nil || !found || terms != "KM" {
		t.Errorf("after re-migration LatestTerms = (%q, %v, %v), want (\"KM\", true, nil)", terms, found, err)
	}
}
