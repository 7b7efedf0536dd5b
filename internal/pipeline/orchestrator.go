package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"ishaara/internal/domain/blob"
	"ishaara/internal/domain/docstore"
	"ishaara/internal/domain/files"
)

// BlobUploader is the part of blob.Store the orchestrator needs.
type BlobUploader interface {
	Upload(ctx context.Context, in blob.UploadInput) (*blob.UploadResult, error)
}

// RecordCreator stores the metadata record of an uploaded file.
type RecordCreator interface {
	CreateRecord(ctx context.Context, req *files.CreateFileRequest) (*docstore.Document, error)
}

// Orchestrator uploads files in the background as soon as they are added to
// a session. Each file is independent: one failure never affects another.
type Orchestrator struct {
	blob    BlobUploader
	records RecordCreator
	folder  string
	now     func() time.Time

	// nil means no limit
	slots *semaphore.Weighted
	group errgroup.Group
}

func NewOrchestrator(store BlobUploader, records RecordCreator, folder string) *Orchestrator {
	return &Orchestrator{blob: store, records: records, folder: folder, now: time.Now}
}

// Limit caps the number of concurrent uploads; n <= 0 removes the cap.
// Files past the cap stay queued and Enqueue still returns at once. It must
// be called before the first Enqueue.
func (o *Orchestrator) Limit(n int) {
	if n <= 0 {
		o.slots = nil
		return
	}
	o.slots = semaphore.NewWeighted(int64(n))
}

// Enqueue adds f to s and starts uploading it. The returned FileUpload is
// already visible in s in the queued state.
func (o *Orchestrator) Enqueue(ctx context.Context, s *Session, f LocalFile) (*FileUpload, error) {
	u, ctx, err := o.newUpload(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.add(u); err != nil {
		u.cancel()
		return nil, err
	}
	o.start(ctx, s, u)
	return u, nil
}

// Retry uploads a failed file again as a fresh FileUpload that takes the
// failed one's place in s. When the retry is refused the failed entry is
// left untouched.
func (o *Orchestrator) Retry(ctx context.Context, s *Session, id string) (*FileUpload, error) {
	f, _, ok := s.file(id)
	if !ok {
		return nil, fmt.Errorf("retry %s: %w", id, ErrFileNotFound)
	}
	u, ctx, err := o.newUpload(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.replace(id, u); err != nil {
		u.cancel()
		return nil, fmt.Errorf("retry %s: %w", id, err)
	}
	o.start(ctx, s, u)
	return u, nil
}

// Wait blocks until every upload started so far has finished.
func (o *Orchestrator) Wait() error {
	return o.group.Wait()
}

func (o *Orchestrator) newUpload(ctx context.Context, f LocalFile) (*FileUpload, context.Context, error) {
	if f.Open == nil {
		return nil, nil, fmt.Errorf("enqueue %s: no content", f.Name)
	}
	u := newFileUpload(uuid.NewString(), f, files.TypeForKind(blob.ResourceKind(f.ContentType)))
	ctx, u.cancel = context.WithCancel(ctx)
	return u, ctx, nil
}

func (o *Orchestrator) start(ctx context.Context, s *Session, u *FileUpload) {
	o.group.Go(func() error {
		defer u.cancel()
		if o.slots != nil {
			if err := o.slots.Acquire(ctx, 1); err != nil {
				// removed while queued, or the caller gave up
				s.update(u, func(u *FileUpload) { u.fail(err) })
				return nil
			}
			defer o.slots.Release(1)
		}
		o.run(ctx, s, u)
		return nil
	})
}

func (o *Orchestrator) run(ctx context.Context, s *Session, u *FileUpload) {
	if !s.update(u, (*FileUpload).start) {
		return
	}

	uploadedBy := s.uploadedBy()
	body, err := u.File.Open()
	if err != nil {
		s.update(u, func(u *FileUpload) { u.fail(err) })
		return
	}
	defer body.Close()

	res, err := o.blob.Upload(ctx, blob.UploadInput{
		Body:        body,
		Size:        u.File.Size,
		ContentType: u.File.ContentType,
		Folder:      o.folder,
		PublicID:    fmt.Sprintf("%d-%s", o.now().UnixMilli(), u.File.Name),
		Metadata: map[string]string{
			blob.MetaOriginalName: u.File.Name,
			blob.MetaUploadedBy:   uploadedBy,
		},
		Progress: func(sent, total int64) {
			p := blob.Percent(sent, total)
			s.update(u, func(u *FileUpload) { u.advance(p) })
		},
	})
	if err != nil {
		log.Printf("upload_error file=%q error=%q", u.File.Name, err)
		s.update(u, func(u *FileUpload) { u.fail(err) })
		return
	}

	// The blob is stored at this point; a missing record only costs the
	// contribution its link to this file.
	var recordID string
	rec, err := o.records.CreateRecord(ctx, files.RequestFromUpload(res, u.File.Name, u.File.Size, uploadedBy))
	if err != nil {
		log.Printf("file_record_error public_id=%s error=%q", res.PublicID, err)
	} else {
		recordID = rec.ID
	}

	s.update(u, func(u *FileUpload) { u.succeed(res.SecureURL, res.PublicID, recordID) })
}
