package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"zweigbib/internal/export"
	"zweigbib/pkg/database"
	"zweigbib/pkg/models"
)

func main() {
	var (
		out    = flag.String("out", "data/zweig_bibliography_export.csv", "output path; .xlsx writes a workbook")
		format = flag.String("format", "", "csv or xlsx (default from the output extension)")
		dbPath = flag.String("db", "", "sqlite path (default $ZWEIGBIB_DB_PATH or ~/.zweigbib/data.db)")
	)
	flag.Parse()

	f := export.FormatForPath(*out)
	if *format != "" {
		var err error
		if f, err = export.ParseFormat(*format); err != nil {
			log.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := database.DefaultConfig()
	if *dbPath != "" {
		cfg.Path = *dbPath
	}
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	entries, err := database.NewEntryRepo(db).List(ctx)
	if err != nil {
		log.Fatalf("list entries failed: %v", err)
	}

	if err := writeFile(*out, f, entries); err != nil {
		log.Fatalf("export failed: %v", err)
	}
	log.Printf("exported %d entries to %s", len(entries), *out)
}

func writeFile(path string, f export.Format, entries []models.Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Write(file, f, entries); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
