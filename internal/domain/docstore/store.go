package docstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"ishaara/internal/pkg/apperror"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("document already exists")
	ErrEmptyCollection  = errors.New("collection name is empty")
)

// Store is the metadata store client. All failures are *apperror.StoreError.
type Store interface {
	// CreateDocument stores fields under id; an empty id is replaced with a
	// generated one.
	CreateDocument(ctx context.Context, collection, id string, fields Fields) (*Document, error)
	// UpdateDocument merges patch into the existing document.
	UpdateDocument(ctx context.Context, collection, id string, patch Fields) (*Document, error)
	GetDocument(ctx context.Context, collection, id string) (*Document, error)
	ListDocuments(ctx context.Context, collection string) ([]*Document, error)
}

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

// Migrate creates the documents table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Document{})
}

func (s *store) CreateDocument(ctx context.Context, collection, id string, fields Fields) (*Document, error) {
	if collection == "" {
		return nil, storeErr("create", collection, ErrEmptyCollection)
	}
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	doc := &Document{
		Collection: collection,
		ID:         id,
		Data:       cloneFields(fields),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		if isUniqueViolation(err) {
			err = ErrDocumentExists
		}
		return nil, storeErr("create", collection, err)
	}
	return doc, nil
}

func (s *store) UpdateDocument(ctx context.Context, collection, id string, patch Fields) (*Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ? AND id = ?", collection, id).First(&doc).Error; err != nil {
			return err
		}
		if doc.Data == nil {
			doc.Data = Fields{}
		}
		for k, v := range patch {
			doc.Data[k] = v
		}
		doc.UpdatedAt = time.Now().UTC()
		return tx.Save(&doc).Error
	})
	if err != nil {
		return nil, storeErr("update", collection, notFound(err))
	}
	return &doc, nil
}

func (s *store) GetDocument(ctx context.Context, collection, id string) (*Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).First(&doc).Error
	if err != nil {
		return nil, storeErr("get", collection, notFound(err))
	}
	return &doc, nil
}

func (s *store) ListDocuments(ctx context.Context, collection string) ([]*Document, error) {
	var docs []*Document
	err := s.db.WithContext(ctx).Where("collection = ?", collection).Order("created_at ASC").Find(&docs).Error
	if err != nil {
		return nil, storeErr("list", collection, err)
	}
	return docs, nil
}

func storeErr(op, collection string, err error) error {
	return &apperror.StoreError{Op: op, Collection: collection, Err: err}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrDocumentNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// modernc sqlite has no translator registered with gorm
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func cloneFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
