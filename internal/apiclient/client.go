// Package apiclient talks to a running Ishaara API over HTTP. Client
// satisfies the pipeline's BlobUploader, RecordCreator and Submitter, so a
// session can be driven remotely exactly as it is against local services.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"
	"sync"

	"ishaara/internal/domain/blob"
	"ishaara/internal/domain/contribution"
	"ishaara/internal/domain/docstore"
	"ishaara/internal/domain/files"
	"ishaara/internal/pkg/apperror"
)

// maxResponseBytes bounds how much of a response body is decoded.
const maxResponseBytes = 1 << 20

// Error is a non-2xx answer from the API.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *errorBody      `json:"error"`
}

type uploadResponse struct {
	Success      bool       `json:"success"`
	URL          string     `json:"url"`
	PublicID     string     `json:"public_id"`
	ResourceType string     `json:"resource_type"`
	FileRecordID string     `json:"file_record_id"`
	Error        *errorBody `json:"error"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.Mutex
	records map[string]string // public_id -> file_record_id from /upload
}

// New returns a client for the API at baseURL, e.g. "https://ishaara.example".
// A nil httpClient uses one without a timeout, since uploads can be long.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		records: map[string]string{},
	}
}

// Health reports whether the API is up and has a blob store.
func (c *Client) Health(ctx context.Context) (blobConfigured bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false, err
	}
	var data struct {
		Status         string `json:"status"`
		BlobConfigured bool   `json:"blob_configured"`
	}
	if err := c.do(req, &data); err != nil {
		return false, err
	}
	if data.Status != "ok" {
		return false, fmt.Errorf("api health: status %q", data.Status)
	}
	return data.BlobConfigured, nil
}

// Upload streams in.Body to POST /api/upload as multipart form data. The
// file record the server creates alongside is kept for CreateRecord.
// Failures are *apperror.UploadError.
func (c *Client) Upload(ctx context.Context, in blob.UploadInput) (*blob.UploadResult, error) {
	if in.Body == nil {
		return nil, &apperror.UploadError{Op: "read", Err: fmt.Errorf("empty body")}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return nil, &apperror.UploadError{Op: "open", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	// The transport closes pr once the request is done, which unblocks the
	// writer on early failures.
	go func() {
		pw.CloseWithError(writeUpload(mw, in))
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperror.UploadError{Op: "write", Err: err}
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, &apperror.UploadError{Op: "close", Err: &Error{Status: resp.StatusCode, Message: err.Error()}}
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		return nil, &apperror.UploadError{Op: "close", Err: apiError(resp.StatusCode, out.Error)}
	}

	if out.FileRecordID != "" {
		c.mu.Lock()
		c.records[out.PublicID] = out.FileRecordID
		c.mu.Unlock()
	}
	return &blob.UploadResult{
		SecureURL:    out.URL,
		PublicID:     out.PublicID,
		ResourceKind: out.ResourceType,
		Bytes:        in.Size,
	}, nil
}

// CreateRecord returns the record the server made during Upload. The API
// creates records itself, so a missing one is reported, never recreated.
func (c *Client) CreateRecord(_ context.Context, req *files.CreateFileRequest) (*docstore.Document, error) {
	c.mu.Lock()
	id, ok := c.records[req.PublicID]
	delete(c.records, req.PublicID)
	c.mu.Unlock()
	if !ok {
		return nil, &apperror.StoreError{Op: "create", Collection: "files", Err: fmt.Errorf("server did not create a record for %s", req.PublicID)}
	}
	return &docstore.Document{Collection: "files", ID: id}, nil
}

// Submit posts the contribution to POST /api/contributions. A rejected
// payload comes back as *apperror.ValidationError.
func (c *Client) Submit(ctx context.Context, in *contribution.SubmitRequest) (*contribution.Contribution, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/contributions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var doc docstore.Document
	if err := c.do(req, &doc); err != nil {
		if apperror.IsValidation(err) {
			return nil, err
		}
		return nil, &apperror.StoreError{Op: "create", Collection: "contributions", Err: err}
	}
	return contribution.FromDocument(&doc), nil
}

// do sends req and decodes the data of a success envelope into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env); err != nil {
		return &Error{Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode/100 != 2 || !env.Success {
		if env.Error != nil && env.Error.Code == "VALIDATION_ERROR" && len(env.Error.Details) > 0 {
			return &apperror.ValidationError{Fields: env.Error.Details}
		}
		return apiError(resp.StatusCode, env.Error)
	}
	return json.Unmarshal(env.Data, out)
}

func apiError(status int, body *errorBody) *Error {
	e := &Error{Status: status}
	if body != nil {
		e.Code = body.Code
		e.Message = body.Message
	}
	return e
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeUpload(mw *multipart.Writer, in blob.UploadInput) error {
	uploadedBy := in.Metadata[blob.MetaUploadedBy]
	if uploadedBy == "" {
		uploadedBy = "anonymous"
	}
	if err := mw.WriteField("uploaded_by", uploadedBy); err != nil {
		return err
	}

	name := in.Metadata[blob.MetaOriginalName]
	if name == "" {
		name = path.Base(in.PublicID)
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, blob.NewProgressReader(in.Body, in.Size, in.Progress)); err != nil {
		return err
	}
	return mw.Close()
}
