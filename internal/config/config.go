package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultPort                    = "8080"
	defaultDatabaseURL             = "ishaara.db"
	defaultBlobFolder              = "ishaara-contributions"
	defaultS3Region                = "us-east-1"
	defaultMaxUploadBytes          = "52428800" // 50 MB
	defaultMaxSessionBytes         = "52428800"
	defaultContactsCollection      = "contacts"
	defaultContributionsCollection = "contributions"
	defaultFilesCollection         = "files"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	// Blob store. An empty BlobURL is not a startup error: the upload
	// endpoint reports it as a configuration error per request.
	BlobURL           string
	BlobPublicBaseURL string
	BlobFolder        string
	S3AccessKey       string
	S3SecretKey       string
	S3Region          string
	S3Endpoint        string

	MaxUploadBytes  int64
	MaxSessionBytes int64

	ContactsCollection      string
	ContributionsCollection string
	FilesCollection         string
}

// LoadDotEnv reads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))

	cfg.BlobURL = strings.TrimSpace(os.Getenv("BLOB_URL"))
	cfg.BlobPublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BLOB_PUBLIC_BASE_URL")), "/")
	cfg.BlobFolder = strings.Trim(strings.TrimSpace(getEnv("BLOB_FOLDER", defaultBlobFolder)), "/")
	cfg.S3AccessKey = strings.TrimSpace(os.Getenv("S3_ACCESS_KEY"))
	cfg.S3SecretKey = strings.TrimSpace(os.Getenv("S3_SECRET_KEY"))
	cfg.S3Region = strings.TrimSpace(getEnv("S3_REGION", defaultS3Region))
	cfg.S3Endpoint = strings.TrimSpace(os.Getenv("S3_ENDPOINT"))

	var err error
	cfg.MaxUploadBytes, err = parseSizeEnv("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxSessionBytes, err = parseSizeEnv("MAX_SESSION_BYTES", defaultMaxSessionBytes)
	if err != nil {
		return nil, err
	}

	cfg.ContactsCollection = strings.TrimSpace(getEnv("CONTACTS_COLLECTION", defaultContactsCollection))
	cfg.ContributionsCollection = strings.TrimSpace(getEnv("CONTRIBUTIONS_COLLECTION", defaultContributionsCollection))
	cfg.FilesCollection = strings.TrimSpace(getEnv("FILES_COLLECTION", defaultFilesCollection))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config: env=%s port=%s blob_configured=%t folder=%s", cfg.AppEnv, cfg.Port, cfg.BlobURL != "", cfg.BlobFolder)

	return cfg, nil
}

// IsProdLike reports whether the app runs with production settings.
func (c *Config) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0")
	}
	if cfg.MaxSessionBytes <= 0 {
		return fmt.Errorf("MAX_SESSION_BYTES must be > 0")
	}
	if cfg.ContactsCollection == "" || cfg.ContributionsCollection == "" || cfg.FilesCollection == "" {
		return fmt.Errorf("collection names must not be empty")
	}
	if strings.HasPrefix(cfg.BlobURL, "s3://") && (cfg.S3AccessKey == "") != (cfg.S3SecretKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
	}

	if isProdLike(cfg.AppEnv) {
		if strings.HasPrefix(cfg.BlobURL, "mem://") {
			return fmt.Errorf("in prod/release BLOB_URL must not be mem://")
		}
		if cfg.BlobURL != "" && cfg.BlobPublicBaseURL == "" {
			return fmt.Errorf("in prod/release BLOB_PUBLIC_BASE_URL must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseSizeEnv(name, fallback string) (int64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
