package upload

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"ishaara/internal/domain/blob"
	"ishaara/internal/domain/docstore"
	"ishaara/internal/domain/files"
	"ishaara/internal/pkg/apperror"
)

const MaxFileSize = 50 * 1024 * 1024 // 50 MB

// RecordCreator stores the metadata record of an uploaded file.
type RecordCreator interface {
	CreateRecord(ctx context.Context, req *files.CreateFileRequest) (*docstore.Document, error)
}

// Request is one file received by the upload endpoint.
type Request struct {
	Body        io.Reader
	Filename    string
	ContentType string
	Size        int64
	UploadedBy  string
}

// Result is what the upload endpoint reports back. FileRecordID is empty
// when the metadata record could not be created.
type Result struct {
	URL          string `json:"url"`
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
	FileRecordID string `json:"file_record_id,omitempty"`
}

// Service writes files to the blob store and records them.
// Simple: upload -> best-effort record -> return URL + IDs.
type Service struct {
	blob    blob.Store
	records RecordCreator
	folder  string
	maxSize int64
	now     func() time.Time
}

// NewService builds the upload service. store may be nil when the blob
// store is not configured; every upload then fails with a configuration error.
func NewService(store blob.Store, records RecordCreator, folder string, maxSize int64) *Service {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	return &Service{blob: store, records: records, folder: folder, maxSize: maxSize, now: time.Now}
}

// Configured reports whether a blob store is available.
func (s *Service) Configured() bool {
	return s.blob != nil
}

// Upload stores req in the blob store, then tries to create its file record.
// A failed record is logged and leaves FileRecordID empty; the upload itself
// still succeeds.
func (s *Service) Upload(ctx context.Context, req *Request) (*Result, error) {
	if s.blob == nil {
		return nil, &apperror.ConfigurationError{Setting: "BLOB_URL"}
	}
	if req.Size == 0 {
		return nil, ErrEmptyFile
	}
	if req.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	res, err := s.blob.Upload(ctx, blob.UploadInput{
		Body:        req.Body,
		Size:        req.Size,
		ContentType: req.ContentType,
		Folder:      s.folder,
		PublicID:    fmt.Sprintf("%d-%s", s.now().UnixMilli(), req.Filename),
	})
	if err != nil {
		return nil, err
	}

	out := &Result{
		URL:          res.SecureURL,
		PublicID:     res.PublicID,
		ResourceType: res.ResourceKind,
	}

	rec, err := s.records.CreateRecord(ctx, files.RequestFromUpload(res, req.Filename, req.Size, req.UploadedBy))
	if err != nil {
		log.Printf("file_record_error public_id=%s uploaded_by=%q error=%q", res.PublicID, req.UploadedBy, err)
		return out, nil
	}
	out.FileRecordID = rec.ID
	return out, nil
}

// Open streams a stored object back.
func (s *Service) Open(ctx context.Context, publicID string) (io.ReadCloser, string, error) {
	if s.blob == nil {
		return nil, "", &apperror.ConfigurationError{Setting: "BLOB_URL"}
	}
	return s.blob.Open(ctx, publicID)
}
