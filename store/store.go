// Package store persists acronym extraction results in SQLite. Each
// source key may accumulate multiple historical rows; only the latest
// row (highest id) is authoritative. Rows are never deleted.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const (
	// TitleTable holds results for book titles.
	TitleTable = "title_acronyms"
	// TOCTable holds results for table-of-contents entries.
	TOCTable = "toc_acronyms"
)

// Store provides idempotent read/write access to one acronym table. The
// title and TOC tables share the same shape and contract, so a Store is
// parameterized by table name.
type Store struct {
	db    *sql.DB
	table string
}

// NewTitleStore creates a Store over the book-title table.
func NewTitleStore(db *sql.DB) *Store {
	return &Store{db: db, table: TitleTable}
}

// NewTOCStore creates a Store over the table-of-contents table.
func NewTOCStore(db *sql.DB) *Store {
	return &Store{db: db, table: TOCTable}
}

// Exists reports whether any row exists for the source key.
func (s *Store) Exists(ctx context.Context, sourceKey string) (bool, error) {
	query := sq.Select("1").
		From(s.table).
		Where(sq.Eq{"source_key": sourceKey}).
		Limit(1)

	queryStr, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, queryStr, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query %s: %w", s.table, err)
	}
	return true, nil
}

// LatestTerms returns the stored terms string of the latest row for the
// source key. The second return value is false when no row exists; an
// empty terms string with true means a row exists but holds no terms,
// which is semantically distinct from missing.
func (s *Store) LatestTerms(ctx context.Context, sourceKey string) (string, bool, error) {
	query := sq.Select("terms").
		From(s.table).
		Where(sq.Eq{"source_key": sourceKey}).
		OrderBy("id DESC").
		Limit(1)

	queryStr, args, err := query.ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var terms string
	err = s.db.QueryRowContext(ctx, queryStr, args...).Scan(&terms)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query %s: %w", s.table, err)
	}
	return terms, true, nil
}

// LatestRowID returns the id of the latest row for the source key, or
// false when no row exists.
func (s *Store) LatestRowID(ctx context.Context, sourceKey string) (int64, bool, error) {
	query := sq.Select("id").
		From(s.table).
		Where(sq.Eq{"source_key": sourceKey}).
		OrderBy("id DESC").
		Limit(1)

	queryStr, args, err := query.ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("build query: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, queryStr, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query %s: %w", s.table, err)
	}
	return id, true, nil
}

// Insert appends a new row for the source key. History is never
// overwritten. Terms are validated against the delimiter invariant.
func (s *Store) Insert(ctx context.Context, sourceKey string, terms []string) error {
	joined, err := JoinTerms(terms)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	query := sq.Insert(s.table).
		Columns("source_key", "terms", "created_at").
		Values(sourceKey, joined, now)

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, queryStr, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", s.table, err)
	}
	return nil
}

// Update overwrites the terms and timestamp of an existing row in place.
func (s *Store) Update(ctx context.Context, rowID int64, terms []string) error {
	joined, err := JoinTerms(terms)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	query := sq.Update(s.table).
		Set("terms", joined).
		Set("created_at", now).
		Where(sq.Eq{"id": rowID})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", s.table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", s.table, err)
	}
	if affected == 0 {
		return fmt.Errorf("update %s: no row with id %d", s.table, rowID)
	}
	return nil
}
