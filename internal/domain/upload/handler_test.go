package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"ishaara/internal/domain/blob"
	"ishaara/internal/domain/docstore"
	"ishaara/internal/domain/docstore/docstoretest"
	"ishaara/internal/domain/files"
)

type failingRecords struct{}

func (failingRecords) CreateRecord(context.Context, *files.CreateFileRequest) (*docstore.Document, error) {
	return nil, errors.New("store unavailable")
}

type uploadResponse struct {
	Success      bool   `json:"success"`
	URL          string `json:"url"`
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
	FileRecordID string `json:"file_record_id"`
}

func setupTestRouter(t *testing.T, store blob.Store, records RecordCreator, maxSize int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewService(store, records, "ishaara-contributions", maxSize)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(svc))
	return r
}

func newMemBlob(t *testing.T) blob.Store {
	t.Helper()
	s := blob.NewStore(memblob.OpenBucket(nil), "")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func multipartRequest(t *testing.T, filename, contentType string, content []byte, uploadedBy string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if uploadedBy != "" {
		require.NoError(t, w.WriteField("uploaded_by", uploadedBy))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestUpload_CreatesBlobAndRecord(t *testing.T) {
	store := docstoretest.New(t)
	fileSvc := files.NewService(store, "files", "contributions")
	r := setupTestRouter(t, newMemBlob(t), fileSvc, 0)

	rr := serve(r, multipartRequest(t, "wave.png", "image/png", []byte("\x89PNG fake"), "a@b.com"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ishaara-contributions/1700000000000-wave.png", resp.PublicID)
	assert.Equal(t, "/api/media/ishaara-contributions/1700000000000-wave.png", resp.URL)
	assert.Equal(t, "image", resp.ResourceType)
	require.NotEmpty(t, resp.FileRecordID)

	rec, err := store.GetDocument(context.Background(), "files", resp.FileRecordID)
	require.NoError(t, err)
	assert.Equal(t, "wave.png", rec.String(files.FieldOriginalName))
	assert.Equal(t, files.TypeImage, rec.String(files.FieldType))
	assert.Equal(t, "a@b.com", rec.String(files.FieldUploadedBy))

	// the default URL is served by the media route
	media := serve(r, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	require.Equal(t, http.StatusOK, media.Code)
	assert.Equal(t, "\x89PNG fake", media.Body.String())
	assert.Equal(t, "image/png", media.Header().Get("Content-Type"))
}

func TestUpload_RecordFailureStillSucceeds(t *testing.T) {
	r := setupTestRouter(t, newMemBlob(t), failingRecords{}, 0)

	rr := serve(r, multipartRequest(t, "signs.csv", "text/csv", []byte("a,b\n1,2\n"), "a@b.com"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.URL)
	assert.Equal(t, "raw", resp.ResourceType)
	assert.Empty(t, resp.FileRecordID)
	assert.NotContains(t, rr.Body.String(), "file_record_id")
}

func TestUpload_SniffsMissingContentType(t *testing.T) {
	r := setupTestRouter(t, newMemBlob(t), failingRecords{}, 0)

	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	rr := serve(r, multipartRequest(t, "hand.gif", "application/octet-stream", gif, "a@b.com"))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "image", resp.ResourceType)
}

func TestUpload_BadRequests(t *testing.T) {
	r := setupTestRouter(t, newMemBlob(t), failingRecords{}, 0)

	rr := serve(r, multipartRequest(t, "", "", nil, "a@b.com"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "No file provided")

	rr = serve(r, multipartRequest(t, "a.png", "image/png", []byte("x"), ""))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Uploaded by user is required")

	rr = serve(r, multipartRequest(t, "a.png", "image/png", []byte{}, "a@b.com"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	r := setupTestRouter(t, newMemBlob(t), failingRecords{}, 4)

	rr := serve(r, multipartRequest(t, "a.png", "image/png", []byte("12345"), "a@b.com"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestUpload_NotConfigured(t *testing.T) {
	r := setupTestRouter(t, nil, failingRecords{}, 0)

	rr := serve(r, multipartRequest(t, "a.png", "image/png", []byte("x"), "a@b.com"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Server configuration error")
	assert.NotContains(t, rr.Body.String(), "BLOB_URL")
}

func TestMedia_NotFound(t *testing.T) {
	r := setupTestRouter(t, newMemBlob(t), failingRecords{}, 0)

	rr := serve(r, httptest.NewRequest(http.MethodGet, "/api/media/nope.png", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMedia_ServesUploadedObject(t *testing.T) {
	store := newMemBlob(t)
	r := setupTestRouter(t, store, failingRecords{}, 0)

	res, err := store.Upload(context.Background(), blob.UploadInput{
		Body:        bytes.NewReader([]byte("\x89PNG hand")),
		Size:        9,
		ContentType: "image/png",
		Folder:      "ishaara-contributions",
		PublicID:    "1700000000000-hand.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/media/ishaara-contributions/1700000000000-hand.png", res.SecureURL)

	rr := serve(r, httptest.NewRequest(http.MethodGet, res.SecureURL, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG hand", rr.Body.String())

	// the URL returned by POST /upload resolves the same way
	rr = serve(r, multipartRequest(t, "regions.csv", "text/csv", []byte("sign,region\n"), "a@b.com"))
	require.Equal(t, http.StatusOK, rr.Code)
	var up uploadResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &up))

	rr = serve(r, httptest.NewRequest(http.MethodGet, up.URL, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Equal(t, "sign,region\n", rr.Body.String())
}

type brokenBlob struct{ blob.Store }

func (brokenBlob) Upload(context.Context, blob.UploadInput) (*blob.UploadResult, error) {
	return nil, errors.New("bucket unreachable")
}

func TestUpload_BlobFailure(t *testing.T) {
	r := setupTestRouter(t, brokenBlob{}, failingRecords{}, 0)

	rr := serve(r, multipartRequest(t, "a.png", "image/png", []byte("x"), "a@b.com"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Failed to upload file")

	body, _ := io.ReadAll(rr.Body)
	assert.NotContains(t, string(body), "bucket unreachable")
}
