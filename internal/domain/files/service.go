package files

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ishaara/internal/domain/docstore"
	"ishaara/internal/pkg/apperror"
	"ishaara/internal/pkg/validator"
)

// Service owns file metadata records.
type Service struct {
	store                   docstore.Store
	collection              string
	contributionsCollection string
	now                     func() time.Time
}

func NewService(store docstore.Store, collection, contributionsCollection string) *Service {
	return &Service{
		store:                   store,
		collection:              collection,
		contributionsCollection: contributionsCollection,
		now:                     time.Now,
	}
}

// CreateRecord validates req and stores an active file record.
func (s *Service) CreateRecord(ctx context.Context, req *CreateFileRequest) (*docstore.Document, error) {
	if err := apperror.NewValidation(validator.Validate(req)); err != nil {
		return nil, err
	}

	var contributionID any
	if req.ContributionID != "" {
		contributionID = req.ContributionID
	}

	doc, err := s.store.CreateDocument(ctx, s.collection, "", docstore.Fields{
		FieldName:           req.Name,
		FieldOriginalName:   req.OriginalName,
		FieldType:           req.Type,
		FieldSize:           req.Size,
		FieldURL:            req.URL,
		FieldPublicID:       req.PublicID,
		FieldCloudinaryURL:  req.CloudinaryURL,
		FieldUploadedBy:     req.UploadedBy,
		FieldContributionID: contributionID,
		FieldUploadDate:     s.now().UTC().Format(time.RFC3339Nano),
		FieldStatus:         StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("create file record: %w", err)
	}
	return doc, nil
}

// AssignContribution links a file record to its contribution.
func (s *Service) AssignContribution(ctx context.Context, recordID, contributionID string) error {
	_, err := s.store.UpdateDocument(ctx, s.collection, recordID, docstore.Fields{
		FieldContributionID: contributionID,
	})
	if err != nil {
		return fmt.Errorf("assign file record %s: %w", recordID, err)
	}
	return nil
}

// Sweep re-links orphan file records: records listed in a contribution's
// file_ids whose contribution_id was never set. Running it twice is a no-op
// the second time. Only a failure to list contributions is returned.
func (s *Service) Sweep(ctx context.Context) (*SweepResult, error) {
	contributions, err := s.store.ListDocuments(ctx, s.contributionsCollection)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}

	res := &SweepResult{Contributions: len(contributions)}
	for _, c := range contributions {
		for _, fileID := range c.Strings("file_ids") {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			rec, err := s.store.GetDocument(ctx, s.collection, fileID)
			if errors.Is(err, docstore.ErrDocumentNotFound) {
				res.Missing++
				continue
			}
			if err != nil {
				log.Printf("orphan_sweep_error contribution_id=%s file_id=%s error=%q", c.ID, fileID, err)
				res.Failed++
				continue
			}

			switch current := rec.String(FieldContributionID); current {
			case c.ID:
				res.AlreadyLinked++
			case "":
				if err := s.AssignContribution(ctx, fileID, c.ID); err != nil {
					log.Printf("orphan_sweep_error contribution_id=%s file_id=%s error=%q", c.ID, fileID, err)
					res.Failed++
					continue
				}
				res.Linked++
			default:
				log.Printf("orphan_sweep_conflict file_id=%s linked_to=%s listed_by=%s", fileID, current, c.ID)
				res.Conflicting++
			}
		}
	}
	return res, nil
}
