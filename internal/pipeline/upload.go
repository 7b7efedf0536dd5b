// Package pipeline drives the contribution form: files are uploaded as soon
// as they are selected, and the finished draft is handed to a Submitter.
package pipeline

import (
	"bytes"
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// State of one file in the upload pipeline.
type State string

const (
	StateQueued    State = "queued"
	StateUploading State = "uploading"
	StateUploaded  State = "uploaded"
	StateFailed    State = "failed"
)

// LocalFile is a file picked by the user. Open is called once per upload
// attempt.
type LocalFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// BytesFile wraps an in-memory payload.
func BytesFile(name, contentType string, data []byte) LocalFile {
	return LocalFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// DiskFile describes a file on disk. The content type is guessed from the
// extension.
func DiskFile(path string) (LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return LocalFile{}, err
	}
	return LocalFile{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Size:        info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FileUpload is the tracked state of one LocalFile. All mutable fields are
// guarded by the owning Session's mutex; read them through Status.
type FileUpload struct {
	ID   string
	File LocalFile
	Kind string

	state     State
	progress  int
	remoteURL string
	remoteID  string
	recordID  string
	errMsg    string

	updates chan int
	closed  bool
	cancel  context.CancelFunc
}

// FileStatus is a point-in-time copy of a FileUpload.
type FileStatus struct {
	ID        string
	Name      string
	Kind      string
	Size      int64
	State     State
	Progress  int
	RemoteURL string
	RemoteID  string
	RecordID  string
	Error     string
}

// Progress returns the stream of percentages reported while uploading. The
// channel is closed once the upload reaches a terminal state or is removed
// from its session. Values are non-decreasing and within [0,100].
func (u *FileUpload) Progress() <-chan int {
	return u.updates
}

func newFileUpload(id string, f LocalFile, kind string) *FileUpload {
	return &FileUpload{
		ID:    id,
		File:  f,
		Kind:  kind,
		state: StateQueued,
		// 0..100 plus slack: a percentage is only sent when it grows, so the
		// buffer never fills.
		updates: make(chan int, 102),
	}
}

func (u *FileUpload) status() FileStatus {
	return FileStatus{
		ID:        u.ID,
		Name:      u.File.Name,
		Kind:      u.Kind,
		Size:      u.File.Size,
		State:     u.state,
		Progress:  u.progress,
		RemoteURL: u.remoteURL,
		RemoteID:  u.remoteID,
		RecordID:  u.recordID,
		Error:     u.errMsg,
	}
}

func (u *FileUpload) start() {
	u.state = StateUploading
	u.progress = 0
	u.emit(0)
}

// advance raises the progress; lower values are dropped.
func (u *FileUpload) advance(p int) {
	if u.state != StateUploading || p <= u.progress {
		return
	}
	if p > 100 {
		p = 100
	}
	u.progress = p
	u.emit(p)
}

func (u *FileUpload) succeed(url, remoteID, recordID string) {
	u.advance(100)
	u.state = StateUploaded
	u.remoteURL = url
	u.remoteID = remoteID
	u.recordID = recordID
	u.close()
}

func (u *FileUpload) fail(err error) {
	u.state = StateFailed
	u.errMsg = err.Error()
	u.close()
}

func (u *FileUpload) emit(p int) {
	if u.closed {
		return
	}
	select {
	case u.updates <- p:
	default:
	}
}

// detach stops a running upload and closes the progress stream.
func (u *FileUpload) detach() {
	if u.cancel != nil {
		u.cancel()
	}
	u.close()
}

func (u *FileUpload) close() {
	if !u.closed {
		u.closed = true
		close(u.updates)
	}
}

func (u *FileUpload) inFlight() bool {
	return u.state == StateQueued || u.state == StateUploading
}
