package pipeline

import (
	"context"
	"errors"
	"sync"

	"ishaara/internal/domain/contribution"
	"ishaara/internal/pkg/apperror"
	"ishaara/internal/pkg/validator"
)

var (
	ErrUploadsInFlight  = errors.New("uploads are still in progress")
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrNothingToSubmit  = errors.New("session is empty")
	ErrSessionTooLarge  = errors.New("selected files exceed the session size limit")
	ErrFileNotFound     = errors.New("file is not in the session")
	ErrNotFailed        = errors.New("only failed files can be retried")
)

// Phase of the session's submission state machine.
//
//	Draft -> Validating -> {Rejected | Persisting} -> {Persisted | Failed}
//
// Rejected and Failed fall back to Draft with the data intact; Persisted
// resets the session, which starts over in Draft.
type Phase string

const (
	PhaseDraft      Phase = "draft"
	PhaseValidating Phase = "validating"
	PhasePersisting Phase = "persisting"
)

// Draft holds the contribution form fields.
type Draft struct {
	SignName          string
	Language          string
	Category          string
	Description       string
	RegionalVariation string
	ContributorName   string
	ContributorEmail  string
}

// Submitter persists a finished contribution.
type Submitter interface {
	Submit(ctx context.Context, req *contribution.SubmitRequest) (*contribution.Contribution, error)
}

// Session is one contribution form being filled in: the draft fields plus
// the files selected so far, in selection order. It is safe for concurrent
// use by the orchestrator's upload goroutines.
type Session struct {
	mu       sync.Mutex
	draft    Draft
	uploads  []*FileUpload
	phase    Phase
	maxBytes int64
}

// NewSession returns an empty session. maxBytes bounds the total declared
// size of the files that have not failed; 0 disables the limit.
func NewSession(maxBytes int64) *Session {
	return &Session{phase: PhaseDraft, maxBytes: maxBytes}
}

func (s *Session) SetDraft(d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d
}

func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Files returns the status of every file in selection order.
func (s *Session) Files() []FileStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FileStatus, 0, len(s.uploads))
	for _, u := range s.uploads {
		out = append(out, u.status())
	}
	return out
}

// Status returns the status of one file.
func (s *Session) Status(id string) (FileStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.uploads {
		if u.ID == id {
			return u.status(), true
		}
	}
	return FileStatus{}, false
}

// Busy reports whether any file is still queued or uploading.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busyLocked()
}

// Remove drops a file whatever its state. An upload still running is
// cancelled and its result discarded.
func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.uploads {
		if u.ID == id {
			u.detach()
			s.uploads = append(s.uploads[:i], s.uploads[i+1:]...)
			return true
		}
	}
	return false
}

// Reset discards every file and clears the draft.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Payload assembles the submit request from the draft and the uploaded
// files. Files that are queued, uploading or failed are left out.
func (s *Session) Payload() *contribution.SubmitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloadLocked()
}

// Submit validates the payload and hands it to sub. On success the session
// is reset; on failure the draft and files are kept for another attempt.
func (s *Session) Submit(ctx context.Context, sub Submitter) (*contribution.Contribution, error) {
	s.mu.Lock()
	switch {
	case s.phase != PhaseDraft:
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	case s.busyLocked():
		s.mu.Unlock()
		return nil, ErrUploadsInFlight
	case s.draft == (Draft{}) && len(s.uploads) == 0:
		s.mu.Unlock()
		return nil, ErrNothingToSubmit
	}
	s.phase = PhaseValidating
	req := s.payloadLocked()

	if err := apperror.NewValidation(validator.Validate(req)); err != nil {
		s.phase = PhaseDraft
		s.mu.Unlock()
		return nil, err
	}
	s.phase = PhasePersisting
	s.mu.Unlock()

	result, err := sub.Submit(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseDraft
	if err != nil {
		return nil, err
	}
	s.resetLocked()
	return result, nil
}

func (s *Session) add(u *FileUpload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhasePersisting {
		return ErrSubmitInProgress
	}
	if !s.fitsLocked(u.File.Size, nil) {
		return ErrSessionTooLarge
	}
	s.uploads = append(s.uploads, u)
	return nil
}

// replace swaps the failed entry id for u at the same position. Nothing
// changes when it returns an error.
func (s *Session) replace(id string, u *FileUpload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhasePersisting {
		return ErrSubmitInProgress
	}
	for i, old := range s.uploads {
		if old.ID != id {
			continue
		}
		if old.state != StateFailed {
			return ErrNotFailed
		}
		if !s.fitsLocked(u.File.Size, old) {
			return ErrSessionTooLarge
		}
		old.detach()
		s.uploads[i] = u
		return nil
	}
	return ErrFileNotFound
}

// fitsLocked reports whether size more bytes stay within the budget. Failed
// entries and skip do not count.
func (s *Session) fitsLocked(size int64, skip *FileUpload) bool {
	if s.maxBytes <= 0 {
		return true
	}
	total := size
	for _, e := range s.uploads {
		if e != skip && e.state != StateFailed {
			total += e.File.Size
		}
	}
	return total <= s.maxBytes
}

// update applies fn to u under the session lock, but only while u is still
// part of the session. It reports whether fn ran.
func (s *Session) update(u *FileUpload, fn func(*FileUpload)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.uploads {
		if e == u {
			fn(u)
			return true
		}
	}
	return false
}

func (s *Session) file(id string) (LocalFile, State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.uploads {
		if u.ID == id {
			return u.File, u.state, true
		}
	}
	return LocalFile{}, "", false
}

func (s *Session) uploadedBy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.ContributorEmail != "" {
		return s.draft.ContributorEmail
	}
	return "anonymous"
}

func (s *Session) busyLocked() bool {
	for _, u := range s.uploads {
		if u.inFlight() {
			return true
		}
	}
	return false
}

func (s *Session) resetLocked() {
	for _, u := range s.uploads {
		u.detach()
	}
	s.uploads = nil
	s.draft = Draft{}
}

func (s *Session) payloadLocked() *contribution.SubmitRequest {
	req := &contribution.SubmitRequest{
		SignName:          s.draft.SignName,
		Language:          s.draft.Language,
		Category:          s.draft.Category,
		Description:       s.draft.Description,
		RegionalVariation: s.draft.RegionalVariation,
		ContributorName:   s.draft.ContributorName,
		ContributorEmail:  s.draft.ContributorEmail,
	}
	for _, u := range s.uploads {
		if u.state != StateUploaded {
			continue
		}
		req.Files = append(req.Files, contribution.FileRef{
			URL:          u.remoteURL,
			PublicID:     u.remoteID,
			Type:         u.Kind,
			Name:         u.File.Name,
			FileRecordID: u.recordID,
		})
	}
	return req
}
