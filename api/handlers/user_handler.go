// api/handlers/user_handler.go
package handlers

import (
	"net/http"

	"example.com/calendariko/api/middleware"
	"example.com/calendariko/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserHandler handles user management requests
type UserHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(svc service.Service, log *logrus.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		log:     log,
	}
}

// CreateUser handles account creation
func (h *UserHandler) CreateUser(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input service.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), identity, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ListUsers handles listing all accounts
func (h *UserHandler) ListUsers(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	users, err := h.service.ListUsers(c.Request.Context(), identity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUser handles account retrieval
func (h *UserHandler) GetUser(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser handles partial account updates
func (h *UserHandler) UpdateUser(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var patch service.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), identity, c.Param("id"), patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser handles account removal
func (h *UserHandler) DeleteUser(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), identity, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
	})
}
