// Package source reads the catalogue of book titles and
// table-of-contents entries to enrich. The catalogue lives in a separate
// read-only SQLite database maintained outside this tool.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Tables holds the catalogue table and column names. The zero value is
// not usable; use DefaultTables for the standard layout.
type Tables struct {
	TitleTable  string
	TitleColumn string
	TOCTable    string
	TOCColumn   string
}

// DefaultTables is the standard catalogue layout.
var DefaultTables = Tables{
	TitleTable:  "books",
	TitleColumn: "title",
	TOCTable:    "toc_entries",
	TOCColumn:   "text",
}

// Provider lists catalogue items in their original order.
type Provider struct {
	db     *sql.DB
	tables Tables
}

// Open opens the catalogue database at path read-only.
func Open(path string, tables Tables) (*Provider, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("source database %s: %w", path, err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open source database %s: %w", path, err)
	}
	return &Provider{db: db, tables: tables}, nil
}

// Close closes the underlying database.
func (p *Provider) Close() error {
	return p.db.Close()
}

// ListTitles returns all book titles in insertion order, skipping blanks.
func (p *Provider) ListTitles(ctx context.Context) ([]string, error) {
	return p.list(ctx, p.tables.TitleTable, p.tables.TitleColumn)
}

// ListTOCEntries returns all table-of-contents entries in insertion
// order, skipping blanks.
func (p *Provider) ListTOCEntries(ctx context.Context) ([]string, error) {
	return p.list(ctx, p.tables.TOCTable, p.tables.TOCColumn)
}

func (p *Provider) list(ctx context.Context, table, column string) ([]string, error) {
	query := sq.Select(column).
		From(table).
		OrderBy("rowid")

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var item sql.NullString
		if err := rows.Scan(&item); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		if !item.Valid || strings.TrimSpace(item.String) == "" {
			continue
		}
		items = append(items, item.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return items, nil
}
