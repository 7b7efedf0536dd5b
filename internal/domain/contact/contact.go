package contact

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ishaara/internal/domain/docstore"
	"ishaara/internal/pkg/apperror"
	"ishaara/internal/pkg/response"
	"ishaara/internal/pkg/validator"
)

// Contact statuses. New messages are pending; the support team moves them on.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
)

// SubmitRequest is the body of POST /contacts.
type SubmitRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required,min=10"`
}

type Service struct {
	store      docstore.Store
	collection string
}

func NewService(store docstore.Store, collection string) *Service {
	return &Service{store: store, collection: collection}
}

// Submit stores a contact message with status pending.
func (s *Service) Submit(ctx context.Context, req *SubmitRequest) (*docstore.Document, error) {
	if err := apperror.NewValidation(validator.Validate(req)); err != nil {
		return nil, err
	}

	doc, err := s.store.CreateDocument(ctx, s.collection, "", docstore.Fields{
		"name":    req.Name,
		"email":   req.Email,
		"subject": req.Subject,
		"message": req.Message,
		"status":  StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return doc, nil
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Submit handles POST /contacts
// @Summary Send a contact message
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body SubmitRequest true "Contact message"
// @Success 201 {object} map[string]interface{}
// @Failure 400,500 {object} map[string]interface{}
// @Router /contacts [post]
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	doc, err := h.service.Submit(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err, "Failed to create contact")
		return
	}

	response.Success(c, http.StatusCreated, doc)
}
