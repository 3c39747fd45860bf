// Package source fetches raw dataset text for the bibliography store.
//
// A source identifier is an http(s) URL, "sqlite:<path>" for a table
// written by import-csv, or a file path.
package source

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"zweigbib/internal/bibliography"
	"zweigbib/pkg/database"
	"zweigbib/pkg/models"
)

// Kind classifies a source identifier.
type Kind string

const (
	KindFile   Kind = "file"
	KindHTTP   Kind = "http"
	KindSQLite Kind = "sqlite"
)

const (
	sqlitePrefix = "sqlite:"
	filePrefix   = "file://"
)

func KindOf(source string) Kind {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return KindHTTP
	case strings.HasPrefix(source, sqlitePrefix):
		return KindSQLite
	default:
		return KindFile
	}
}

// FilePath returns the local path a file or sqlite identifier refers to.
func FilePath(source string) string {
	switch KindOf(source) {
	case KindSQLite:
		return strings.TrimPrefix(source, sqlitePrefix)
	case KindFile:
		return strings.TrimPrefix(source, filePrefix)
	}
	return ""
}

// File reads dataset files from disk.
type File struct{}

func (File) Fetch(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(FilePath(source))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SQLite reads the entries table written by import-csv.
type SQLite struct{}

// FetchEntries returns the stored entries as they are, so values the
// dataset dialect cannot carry survive the load.
func (SQLite) FetchEntries(ctx context.Context, source string) ([]models.Entry, bool, error) {
	entries, err := readEntries(ctx, source)
	return entries, true, err
}

// Fetch renders the table in the dataset dialect.
func (SQLite) Fetch(ctx context.Context, source string) (string, error) {
	entries, err := readEntries(ctx, source)
	if err != nil {
		return "", err
	}
	return bibliography.Format(entries)
}

func readEntries(ctx context.Context, source string) ([]models.Entry, error) {
	path := FilePath(source)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := database.Open(database.Config{Path: path})
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return database.NewEntryRepo(db).List(ctx)
}

// Mux dispatches on the identifier kind.
type Mux struct {
	File   bibliography.Fetcher
	HTTP   bibliography.Fetcher
	SQLite bibliography.Fetcher
}

// NewMux builds the default fetchers. timeout bounds each HTTP attempt.
func NewMux(timeout time.Duration, attempts int) *Mux {
	return &Mux{
		File:   File{},
		HTTP:   NewHTTP(timeout, attempts),
		SQLite: SQLite{},
	}
}

func (m *Mux) Fetch(ctx context.Context, source string) (string, error) {
	f := m.pick(source)
	if f == nil {
		return "", fmt.Errorf("no fetcher for %s sources", KindOf(source))
	}
	return f.Fetch(ctx, source)
}

// FetchEntries delegates to the picked fetcher when it decodes entries
// itself.
func (m *Mux) FetchEntries(ctx context.Context, source string) ([]models.Entry, bool, error) {
	ef, ok := m.pick(source).(bibliography.EntryFetcher)
	if !ok {
		return nil, false, nil
	}
	return ef.FetchEntries(ctx, source)
}

func (m *Mux) pick(source string) bibliography.Fetcher {
	switch KindOf(source) {
	case KindHTTP:
		return m.HTTP
	case KindSQLite:
		return m.SQLite
	default:
		return m.File
	}
}
