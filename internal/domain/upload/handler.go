package upload

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ishaara/internal/domain/blob"
	"ishaara/internal/pkg/response"
)

// Handler handles HTTP requests for file uploads.
// Uploads are anonymous; the uploader is identified by the uploaded_by field.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload godoc
// @Summary Upload a file
// @Description Upload an image, video or CSV. Returns the public URL and, when it could be stored, the file record ID.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param uploaded_by formData string true "Uploader email or name"
// @Success 200 {object} map[string]interface{}
// @Failure 400,413,500 {object} map[string]interface{}
// @Router /upload [post]
func (h *Handler) Upload(c *gin.Context) {
	if !h.service.Configured() {
		log.Printf("upload_config_error blob store is not configured")
		response.Error(c, http.StatusInternalServerError, "CONFIGURATION_ERROR", "Server configuration error")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "No file provided")
		return
	}
	uploadedBy := strings.TrimSpace(c.PostForm("uploaded_by"))
	if uploadedBy == "" {
		response.Error(c, http.StatusBadRequest, "UPLOADED_BY_REQUIRED", "Uploaded by user is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.FromError(c, err, "Failed to upload file")
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = sniffContentType(file)
	}

	result, err := h.service.Upload(c.Request.Context(), &Request{
		Body:        file,
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		UploadedBy:  uploadedBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyFile):
			response.Error(c, http.StatusBadRequest, "EMPTY_FILE", err.Error())
		case errors.Is(err, ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
		default:
			response.FromError(c, err, "Failed to upload file")
		}
		return
	}

	body := gin.H{
		"success":       true,
		"url":           result.URL,
		"public_id":     result.PublicID,
		"resource_type": result.ResourceType,
	}
	if result.FileRecordID != "" {
		body["file_record_id"] = result.FileRecordID
	}
	c.JSON(http.StatusOK, body)
}

// Media streams a stored object. It backs the default public URLs when the
// bucket has no public endpoint.
func (h *Handler) Media(c *gin.Context) {
	r, contentType, err := h.service.Open(c.Request.Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "File not found")
			return
		}
		response.FromError(c, err, "Failed to read file")
		return
	}
	defer r.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, r, nil)
}

// sniffContentType detects the type from the first 512 bytes and rewinds.
func sniffContentType(f io.ReadSeeker) string {
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	_, _ = f.Seek(0, io.SeekStart)
	return strings.Split(http.DetectContentType(buf[:n]), ";")[0]
}
