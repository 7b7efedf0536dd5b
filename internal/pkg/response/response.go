package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ishaara/internal/pkg/apperror"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError writes the envelope for err. Only validation errors expose
// details; everything else is recorded on the context for the error logger
// and answered with the generic message.
func FromError(c *gin.Context, err error, message string) {
	var verr *apperror.ValidationError
	if errors.As(err, &verr) {
		ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing required fields", verr.Fields)
		return
	}

	_ = c.Error(err)
	if apperror.IsConfiguration(err) {
		Error(c, http.StatusInternalServerError, "CONFIGURATION_ERROR", "Server configuration error")
		return
	}
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
