package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"zweigbib/internal/bibliography"
	"zweigbib/pkg/database"
	"zweigbib/pkg/models"
)

func main() {
	var (
		in            = flag.String("in", "data/zweig_bibliography_enhanced.csv", "input dataset path")
		dbPath        = flag.String("db", "", "sqlite path (default $ZWEIGBIB_DB_PATH or ~/.zweigbib/data.db)")
		appendRows    = flag.Bool("append", false, "append to the existing entries instead of replacing them")
		derivePeriods = flag.Bool("derive-periods", false, "fill blank time_period cells from numeric years")
	)
	flag.Parse()

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

	entries, err := readEntries(*in)
	if err != nil {
		log.Fatalf("read %s failed: %v", *in, err)
	}
	if *derivePeriods {
		log.Printf("derived %d time periods", bibliography.DerivePeriods(entries))
	}

	repo := database.NewEntryRepo(db)
	write := repo.Replace
	if *appendRows {
		write = repo.Append
	}
	n, err := write(ctx, entries)
	if err != nil {
		log.Fatalf("import entries failed: %v", err)
	}

	log.Printf("imported %d entries from %s into %s", n, *in, cfg.Path)
}

func readEntries(path string) ([]models.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bibliography.Parse(string(data))
}
