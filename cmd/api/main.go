package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"ishaara/internal/config"
	"ishaara/internal/database"
	"ishaara/internal/domain/blob"
	"ishaara/internal/domain/docstore"
	"ishaara/internal/server"
)

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
		log.Fatal(err)
	}
	if err := docstore.Migrate(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	// Without a blob store the API still serves contacts and contributions;
	// uploads answer with a configuration error.
	var blobStore blob.Store
	if cfg.BlobURL == "" {
		log.Printf("blob_store_error error=%q", "BLOB_URL is not set")
	} else {
		blobStore, err = blob.Open(context.Background(), blob.Options{
			URL:           cfg.BlobURL,
			PublicBaseURL: cfg.BlobPublicBaseURL,
			S3AccessKey:   cfg.S3AccessKey,
			S3SecretKey:   cfg.S3SecretKey,
			S3Region:      cfg.S3Region,
			S3Endpoint:    cfg.S3Endpoint,
		})
		if err != nil {
			if cfg.IsProdLike() {
				log.Fatalf("blob store: %v", err)
			}
			log.Printf("blob_store_error error=%q", err)
			blobStore = nil
		} else {
			defer blobStore.Close()
		}
	}

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := server.NewRouter(cfg, docstore.NewStore(db), blobStore)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
