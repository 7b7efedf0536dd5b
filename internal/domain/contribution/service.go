package contribution

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ishaara/internal/domain/docstore"
	"ishaara/internal/pkg/apperror"
	"ishaara/internal/pkg/validator"
)

// FileLinker sets the contribution_id of a file record.
type FileLinker interface {
	AssignContribution(ctx context.Context, recordID, contributionID string) error
}

// Service coordinates a contribution submission: validate, create the
// contribution record, then link its file records one by one.
type Service struct {
	store      docstore.Store
	files      FileLinker
	collection string
	tracer     trace.Tracer
}

func NewService(store docstore.Store, files FileLinker, collection string) *Service {
	return &Service{
		store:      store,
		files:      files,
		collection: collection,
		tracer:     otel.Tracer("ishaara/contribution"),
	}
}

// Submit validates req and persists it. Only validation and the creation of
// the contribution record can fail; file links that fail are logged and
// reported in UnlinkedFileIDs.
func (s *Service) Submit(ctx context.Context, req *SubmitRequest) (_ *Contribution, err error) {
	ctx, span := s.tracer.Start(ctx, "contribution.Submit", trace.WithAttributes(
		attribute.Int("contribution.files", len(req.Files)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := apperror.NewValidation(validator.Validate(req)); err != nil {
		return nil, err
	}

	fileIDs := make([]string, 0, len(req.Files))
	seen := make(map[string]bool, len(req.Files))
	for _, f := range req.Files {
		if f.FileRecordID != "" && !seen[f.FileRecordID] {
			seen[f.FileRecordID] = true
			fileIDs = append(fileIDs, f.FileRecordID)
		}
	}

	var regional any
	if req.RegionalVariation != "" {
		regional = req.RegionalVariation
	}

	doc, err := s.store.CreateDocument(ctx, s.collection, "", docstore.Fields{
		"sign_name":          req.SignName,
		"language":           req.Language,
		"category":           req.Category,
		"description":        req.Description,
		"regional_variation": regional,
		"contributor_name":   req.ContributorName,
		"contributor_email":  req.ContributorEmail,
		"status":             string(StatusPending),
		"has_files":          len(req.Files) > 0,
		"file_ids":           fileIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("create contribution: %w", err)
	}

	result := FromDocument(doc)
	span.SetAttributes(attribute.String("contribution.id", doc.ID))

	for _, id := range fileIDs {
		if err := s.files.AssignContribution(ctx, id, doc.ID); err != nil {
			log.Printf("contribution_file_link_error contribution_id=%s file_record_id=%s error=%q", doc.ID, id, err)
			result.UnlinkedFileIDs = append(result.UnlinkedFileIDs, id)
		}
	}

	return result, nil
}
