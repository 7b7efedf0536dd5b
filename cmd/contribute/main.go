package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"

	"ishaara/internal/apiclient"
	"ishaara/internal/config"
	"ishaara/internal/database"
	"ishaara/internal/domain/blob"
	"ishaara/internal/domain/contribution"
	"ishaara/internal/domain/docstore"
	"ishaara/internal/domain/files"
	"ishaara/internal/pipeline"
	"ishaara/internal/pkg/apperror"
)

// contribute submits a sign contribution from the command line:
//
//	contribute -sign "Thank you" -language ISL -category greetings \
//	  -description "Flat hand moves forward from the chin." \
//	  -name Asha -email asha@example.com clip.mp4 hand.png
//
// Files are uploaded in parallel with live progress; failed files are
// retried once before the contribution is submitted without them. With
// -api https://host the same flow runs against a deployed API.
func main() {
	var d pipeline.Draft
	flag.StringVar(&d.SignName, "sign", "", "sign name")
	flag.StringVar(&d.Language, "language", "", "sign language")
	flag.StringVar(&d.Category, "category", "", "category")
	flag.StringVar(&d.Description, "description", "", "description (at least 10 characters)")
	flag.StringVar(&d.RegionalVariation, "region", "", "regional variation")
	flag.StringVar(&d.ContributorName, "name", "", "contributor name")
	flag.StringVar(&d.ContributorEmail, "email", "", "contributor email")
	parallel := flag.Int("parallel", 4, "concurrent uploads")
	apiURL := flag.String("api", "", "submit through a running API at this base URL instead of the local database and bucket")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	var (
		uploader  pipeline.BlobUploader
		records   pipeline.RecordCreator
		submitter pipeline.Submitter
	)
	if *apiURL != "" {
		client := apiclient.New(*apiURL, nil)
		blobOK, err := client.Health(ctx)
		if err != nil {
			log.Fatalf("api health check failed: %v", err)
		}
		if !blobOK && flag.NArg() > 0 {
			log.Printf("blob_store_error api=%s error=%q", *apiURL, "uploads are not configured")
		}
		uploader, records, submitter = client, client, client
	} else {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect failed: %v", err)
		}
		if err := docstore.Migrate(db); err != nil {
			log.Fatalf("migrate failed: %v", err)
		}
		store := docstore.NewStore(db)

		bucket, err := blob.Open(ctx, blob.Options{
			URL:           cfg.BlobURL,
			PublicBaseURL: cfg.BlobPublicBaseURL,
			S3AccessKey:   cfg.S3AccessKey,
			S3SecretKey:   cfg.S3SecretKey,
			S3Region:      cfg.S3Region,
			S3Endpoint:    cfg.S3Endpoint,
		})
		if err != nil {
			log.Fatalf("blob store: %v", err)
		}
		defer bucket.Close()

		fileService := files.NewService(store, cfg.FilesCollection, cfg.ContributionsCollection)
		uploader, records = bucket, fileService
		submitter = contribution.NewService(store, fileService, cfg.ContributionsCollection)
	}

	session := pipeline.NewSession(cfg.MaxSessionBytes)
	session.SetDraft(d)

	orch := pipeline.NewOrchestrator(uploader, records, cfg.BlobFolder)
	orch.Limit(*parallel)

	var uploads []*pipeline.FileUpload
	for _, path := range flag.Args() {
		f, err := pipeline.DiskFile(path)
		if err != nil {
			log.Printf("skip %s: %v", path, err)
			continue
		}
		u, err := orch.Enqueue(ctx, session, f)
		if err != nil {
			log.Printf("skip %s: %v", path, err)
			continue
		}
		uploads = append(uploads, u)
	}
	watch(uploads)
	_ = orch.Wait()

	var retried []*pipeline.FileUpload
	for _, st := range session.Files() {
		if st.State != pipeline.StateFailed {
			continue
		}
		u, err := orch.Retry(ctx, session, st.ID)
		if err != nil {
			log.Printf("retry %s: %v", st.Name, err)
			continue
		}
		retried = append(retried, u)
	}
	watch(retried)
	_ = orch.Wait()

	for _, st := range session.Files() {
		if st.State == pipeline.StateFailed {
			fmt.Fprintf(os.Stderr, "%s: upload failed: %s\n", st.Name, st.Error)
			session.Remove(st.ID)
		}
	}

	result, err := session.Submit(ctx, submitter)
	if err != nil {
		var verr *apperror.ValidationError
		if errors.As(err, &verr) {
			for field, msg := range verr.Fields {
				fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
			}
			os.Exit(2)
		}
		log.Fatalf("submit failed: %v", err)
	}

	fmt.Printf("contribution %s submitted with %d file(s)\n", result.ID, len(result.FileIDs))
	if len(result.UnlinkedFileIDs) > 0 {
		fmt.Printf("%d file record(s) left for the orphan sweep\n", len(result.UnlinkedFileIDs))
	}
}

// watch prints each upload's progress until all of them settle.
func watch(uploads []*pipeline.FileUpload) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, u := range uploads {
		wg.Add(1)
		go func(u *pipeline.FileUpload) {
			defer wg.Done()
			for p := range u.Progress() {
				mu.Lock()
				fmt.Printf("%-32s %3d%%\n", u.File.Name, p)
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()
}
