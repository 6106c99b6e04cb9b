package api

import (
	"errors"
	"net/http"

	"github.com/claro-app/claro-server/internal/apperr"
	"github.com/gin-gonic/gin"
)

// respondData writes the success envelope {success, message?, data?}.
func respondData(c *gin.Context, status int, message string, data gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// respondError maps the error taxonomy to status codes. Access denial and
// nonexistence share one 404 response so existence is never leaked.
func respondError(c *gin.Context, err error) {
	if ve, ok := apperr.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Validation failed",
			"errors":  ve.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Access token required"})
	case errors.Is(err, apperr.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found"})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found or access denied"})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Resource already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint("userID")
}
