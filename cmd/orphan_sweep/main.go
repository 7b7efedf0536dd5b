package main

import (
	"context"
	"log"
	"time"

	"ishaara/internal/config"
	"ishaara/internal/database"
	"ishaara/internal/domain/docstore"
	"ishaara/internal/domain/files"
)

// orphan_sweep links file records that a contribution lists in file_ids but
// whose contribution_id was never written. Safe to run repeatedly.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := docstore.Migrate(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	svc := files.NewService(docstore.NewStore(db), cfg.FilesCollection, cfg.ContributionsCollection)
	res, err := svc.Sweep(ctx)
	if err != nil {
		log.Fatalf("orphan sweep failed: %v", err)
	}

	log.Printf("orphan sweep completed: contributions=%d linked=%d already_linked=%d missing=%d conflicting=%d failed=%d",
		res.Contributions, res.Linked, res.AlreadyLinked, res.Missing, res.Conflicting, res.Failed)
}
