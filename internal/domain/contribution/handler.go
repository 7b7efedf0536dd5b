package contribution

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

// Submit handles POST /contributions
// @Summary Submit a community sign contribution
// @Description Creates a pending contribution and links any uploaded file records to it.
// @Tags Contributions
// @Accept json
// @Produce json
// @Param request body SubmitRequest true "Contribution"
// @Success 201 {object} map[string]interface{}
// @Failure 400,500 {object} map[string]interface{}
// @Router /contributions [post]
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	result, err := h.service.Submit(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err, "Failed to create contribution")
		return
	}

	response.Success(c, http.StatusCreated, result.Document)
}
