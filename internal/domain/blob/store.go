package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	gcblob "gocloud.dev/blob"
	"gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	// Drivers
	_ "gocloud.dev/blob/fileblob" // file:// URLs
	_ "gocloud.dev/blob/memblob"  // mem:// URLs

	"ishaara/internal/pkg/apperror"
)

// Resource kinds reported by the blob store.
const (
	KindImage = "image"
	KindVideo = "video"
	KindRaw   = "raw"
)

var ErrObjectNotFound = errors.New("object not found")

// Store is the blob store client.
type Store interface {
	// Upload streams in.Body to the store. Failures are *apperror.UploadError.
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
	// Open returns a reader for a stored object. Caller must close it.
	Open(ctx context.Context, publicID string) (io.ReadCloser, string, error)
	Close() error
}

// Object metadata keys set by the upload pipeline.
const (
	MetaOriginalName = "original_name"
	MetaUploadedBy   = "uploaded_by"
)

type UploadInput struct {
	Body        io.Reader
	Size        int64
	ContentType string
	Folder      string
	PublicID    string
	// Metadata is stored with the object; keys must be lower case.
	Metadata map[string]string
	Progress ProgressFunc
}

type UploadResult struct {
	SecureURL    string
	PublicID     string
	ResourceKind string
	Bytes        int64
}

// Options configures Open. S3 fields only apply to s3:// URLs.
type Options struct {
	URL           string
	PublicBaseURL string
	S3AccessKey   string
	S3SecretKey   string
	S3Region      string
	S3Endpoint    string
}

type bucketStore struct {
	bucket     *gcblob.Bucket
	publicBase string
	tracer     trace.Tracer
}

// Open connects to the bucket named by opts.URL. Supported schemes:
//   - "mem://"
//   - "file:///path/to/dir"
//   - "s3://bucket?region=eu-west-1"
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.URL == "" {
		return nil, &apperror.ConfigurationError{Setting: "BLOB_URL"}
	}
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse blob url: %w", err)
	}

	var bucket *gcblob.Bucket
	if u.Scheme == "s3" && (opts.S3AccessKey != "" || opts.S3Endpoint != "") {
		bucket, err = openS3(ctx, u.Host, opts)
	} else {
		bucket, err = gcblob.OpenBucket(ctx, opts.URL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}

	return NewStore(bucket, opts.PublicBaseURL), nil
}

// NewStore wraps an already opened bucket. Objects get URLs under
// publicBase; an empty base falls back to the API's media route.
func NewStore(bucket *gcblob.Bucket, publicBase string) Store {
	if publicBase == "" {
		publicBase = DefaultMediaBase
	}
	return &bucketStore{
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		tracer:     otel.Tracer("ishaara/blob"),
	}
}

// DefaultMediaBase is where the API serves objects when the bucket has no
// public endpoint of its own.
const DefaultMediaBase = "/api/media"

func openS3(ctx context.Context, bucketName string, opts Options) (*gcblob.Bucket, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.S3Region),
	}
	if opts.S3AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.S3AccessKey, opts.S3SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	otelaws.AppendMiddlewares(&cfg.APIOptions)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return s3blob.OpenBucket(ctx, client, bucketName, nil)
}

func (s *bucketStore) Upload(ctx context.Context, in UploadInput) (_ *UploadResult, err error) {
	key := objectKey(in.Folder, in.PublicID)
	ctx, span := s.tracer.Start(ctx, "blob.Upload", trace.WithAttributes(
		attribute.String("blob.key", key),
		attribute.Int64("blob.size", in.Size),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if in.Body == nil {
		return nil, &apperror.UploadError{Op: "read", Err: errors.New("empty body")}
	}

	w, err := s.bucket.NewWriter(ctx, key, &gcblob.WriterOptions{
		ContentType: in.ContentType,
		Metadata:    in.Metadata,
	})
	if err != nil {
		return nil, &apperror.UploadError{Op: "open", Err: err}
	}
	n, err := io.Copy(w, NewProgressReader(in.Body, in.Size, in.Progress))
	if err != nil {
		err = errors.Join(err, w.Close())
		_ = s.bucket.Delete(context.WithoutCancel(ctx), key)
		return nil, &apperror.UploadError{Op: "write", Err: err}
	}
	if err := w.Close(); err != nil {
		_ = s.bucket.Delete(context.WithoutCancel(ctx), key)
		return nil, &apperror.UploadError{Op: "close", Err: err}
	}

	return &UploadResult{
		SecureURL:    s.publicBase + "/" + key,
		PublicID:     key,
		ResourceKind: ResourceKind(in.ContentType),
		Bytes:        n,
	}, nil
}

func (s *bucketStore) Open(ctx context.Context, publicID string) (io.ReadCloser, string, error) {
	key := strings.TrimPrefix(path.Clean("/"+publicID), "/")
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", err
	}
	return r, r.ContentType(), nil
}

func (s *bucketStore) Close() error {
	return s.bucket.Close()
}

// ResourceKind classifies a declared content type.
func ResourceKind(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	case strings.HasPrefix(ct, "video/"):
		return KindVideo
	default:
		return KindRaw
	}
}

func objectKey(folder, publicID string) string {
	name := sanitizeName(publicID)
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, name)
	name = strings.TrimLeft(name, ".")
	if len(name) > 120 {
		name = name[:120]
	}
	if name == "" {
		return "file"
	}
	return name
}
