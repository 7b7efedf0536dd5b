package docstore_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ishaara/internal/domain/docstore"
	"ishaara/internal/domain/docstore/docstoretest"
	"ishaara/internal/pkg/apperror"
)

func TestStore_CreateGeneratesID(t *testing.T) {
	s := docstoretest.New(t)
	ctx := context.Background()

	doc, err := s.CreateDocument(ctx, "contacts", "", docstore.Fields{"name": "A", "status": "pending"})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "contacts", doc.Collection)

	got, err := s.GetDocument(ctx, "contacts", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.String("name"))
	assert.Equal(t, "pending", got.String("status"))
}

func TestStore_CreateDuplicateID(t *testing.T) {
	s := docstoretest.New(t)
	ctx := context.Background()

	_, err := s.CreateDocument(ctx, "files", "f1", docstore.Fields{"name": "a"})
	require.NoError(t, err)

	_, err = s.CreateDocument(ctx, "files", "f1", docstore.Fields{"name": "b"})
	require.Error(t, err)
	assert.True(t, apperror.IsStore(err))
	assert.ErrorIs(t, err, docstore.ErrDocumentExists)

	// same id in another collection is a different document
	_, err = s.CreateDocument(ctx, "contacts", "f1", docstore.Fields{"name": "c"})
	assert.NoError(t, err)
}

func TestStore_UpdateMergesPatch(t *testing.T) {
	s := docstoretest.New(t)
	ctx := context.Background()

	doc, err := s.CreateDocument(ctx, "files", "", docstore.Fields{"name": "a.png", "contribution_id": nil})
	require.NoError(t, err)

	updated, err := s.UpdateDocument(ctx, "files", doc.ID, docstore.Fields{"contribution_id": "c-1"})
	require.NoError(t, err)
	assert.Equal(t, "a.png", updated.String("name"))
	assert.Equal(t, "c-1", updated.String("contribution_id"))

	got, err := s.GetDocument(ctx, "files", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "c-1", got.String("contribution_id"))
}

func TestStore_UpdateMissing(t *testing.T) {
	s := docstoretest.New(t)

	_, err := s.UpdateDocument(context.Background(), "files", "nope", docstore.Fields{"x": 1})
	assert.ErrorIs(t, err, docstore.ErrDocumentNotFound)
	assert.True(t, apperror.IsStore(err))
}

func TestStore_ListByCollection(t *testing.T) {
	s := docstoretest.New(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		_, err := s.CreateDocument(ctx, "contributions", "", docstore.Fields{"sign_name": name})
		require.NoError(t, err)
	}
	_, err := s.CreateDocument(ctx, "contacts", "", docstore.Fields{"name": "x"})
	require.NoError(t, err)

	docs, err := s.ListDocuments(ctx, "contributions")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestDocument_StringsAndJSON(t *testing.T) {
	doc := docstore.Document{
		Collection: "contributions",
		ID:         "c-1",
		Data:       docstore.Fields{"file_ids": []any{"f1", 3, "f2"}, "status": "pending"},
	}
	assert.Equal(t, []string{"f1", "f2"}, doc.Strings("file_ids"))
	assert.Nil(t, doc.Strings("missing"))

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "c-1", out["$id"])
	assert.Equal(t, "pending", out["status"])
}

func TestDocument_ReadsFlattenedShape(t *testing.T) {
	body := `{"$id":"c-1","$collection":"contributions","$createdAt":"2026-03-01T10:00:00Z",
		"$updatedAt":"bad","status":"pending","file_ids":["f1"]}`

	var doc docstore.Document
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "c-1", doc.ID)
	assert.Equal(t, "contributions", doc.Collection)
	assert.Equal(t, 2026, doc.CreatedAt.Year())
	assert.True(t, doc.UpdatedAt.IsZero())
	assert.Equal(t, []string{"f1"}, doc.Strings("file_ids"))
	assert.NotContains(t, doc.Data, "$id")
}
