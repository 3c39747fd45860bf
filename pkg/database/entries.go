package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"zweigbib/pkg/models"
)

// EntryRepo stores bibliography entries in dataset order.
type EntryRepo struct {
	DB *sql.DB
}

func NewEntryRepo(db *sql.DB) *EntryRepo {
	return &EntryRepo{DB: db}
}

const entryColumns = `page_id, title, original_title, year, main_category, language, time_period,
	publisher, location, full_bibliographic_entry, clean_content, extra`

// Append adds entries after the existing ones.
func (r *EntryRepo) Append(ctx context.Context, entries []models.Entry) (int, error) {
	return r.write(ctx, entries, false)
}

// Replace swaps the whole table for entries.
func (r *EntryRepo) Replace(ctx context.Context, entries []models.Entry) (int, error) {
	return r.write(ctx, entries, true)
}

func (r *EntryRepo) write(ctx context.Context, entries []models.Entry, replace bool) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
			return 0, fmt.Errorf("clear entries: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		extra := "{}"
		if len(e.Extra) > 0 {
			b, err := json.Marshal(e.Extra)
			if err != nil {
				return 0, fmt.Errorf("encode extra for %s: %w", e.PageID, err)
			}
			extra = string(b)
		}
		if _, err := stmt.ExecContext(ctx,
			e.PageID, e.Title, e.OriginalTitle, e.Year.Raw, e.MainCategory, e.Language, e.TimePeriod,
			e.Publisher, e.Location, e.FullBibliographicEntry, e.CleanContent, extra,
		); err != nil {
			return 0, fmt.Errorf("insert %s: %w", e.PageID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(entries), nil
}

// List returns every entry in dataset order.
func (r *EntryRepo) List(ctx context.Context) ([]models.Entry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := make([]models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

// GetByPageID returns the first entry with the page id, or nil.
func (r *EntryRepo) GetByPageID(ctx context.Context, id string) (*models.Entry, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE page_id = ?
		ORDER BY position
		LIMIT 1
	`, id)
	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *EntryRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (models.Entry, error) {
	var (
		e     models.Entry
		year  string
		extra string
	)
	if err := s.Scan(
		&e.PageID, &e.Title, &e.OriginalTitle, &year, &e.MainCategory, &e.Language, &e.TimePeriod,
		&e.Publisher, &e.Location, &e.FullBibliographicEntry, &e.CleanContent, &extra,
	); err != nil {
		if err == sql.ErrNoRows {
			return e, err
		}
		return e, fmt.Errorf("scan entry: %w", err)
	}
	e.Year = models.ParseYear(year)
	if extra != "" && extra != "{}" {
		if err := json.Unmarshal([]byte(extra), &e.Extra); err != nil {
			return e, fmt.Errorf("decode extra for %s: %w", e.PageID, err)
		}
	}
	return e, nil
}
