package files

import "github.com/gin-gonic/gin"

// RegisterRoutes registers file record routes.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/files", h.Create)
}
