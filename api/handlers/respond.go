// api/handlers/respond.go
package handlers

import (
	"errors"
	"net/http"

	"example.com/calendariko/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError translates service errors into HTTP responses. Conflict
// rejections carry the full list of colliding events so the client can show
// them.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	var validationErr *service.ValidationError
	var conflictErr *service.ConflictError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Msg,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid credentials",
		})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Permission denied",
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Not found",
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Schedule conflict",
			"conflicts": conflictErr.Conflicts,
		})
	default:
		log.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
