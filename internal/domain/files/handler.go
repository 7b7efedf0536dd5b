package files

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ishaara/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /files
// @Summary Create a file record
// @Tags Files
// @Accept json
// @Produce json
// @Param request body CreateFileRequest true "File metadata"
// @Success 201 {object} map[string]interface{}
// @Failure 400,500 {object} map[string]interface{}
// @Router /files [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	doc, err := h.service.CreateRecord(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err, "Failed to create file record")
		return
	}

	response.Success(c, http.StatusCreated, doc)
}
