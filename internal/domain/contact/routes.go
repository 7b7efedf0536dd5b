package contact

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the public contact form route.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/contacts", h.Submit)
}
