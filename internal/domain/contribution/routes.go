package contribution

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the public contribution routes.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/contributions", h.Submit)
}
