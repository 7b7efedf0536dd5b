package upload

import "github.com/gin-gonic/gin"

// RegisterRoutes registers upload routes. Uploads are anonymous; the media
// route serves objects back when the bucket has no public endpoint.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/upload", h.Upload)
	r.GET("/media/*key", h.Media)
}
