// api/handlers/auth_handler.go
package handlers

import (
	"net/http"

	"example.com/calendariko/api/middleware"
	"example.com/calendariko/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(svc service.Service, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		log:     log,
	}
}

// Login handles credential login and issues a token pair
func (h *AuthHandler) Login(c *gin.Context) {
	var request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	tokens, identity, err := h.service.Login(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"user":          identity,
	})
}

// Refresh exchanges a refresh token for a new token pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	var request struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), request.RefreshToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Me returns the caller's resolved identity
func (h *AuthHandler) Me(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Not authenticated",
		})
		return
	}

	c.JSON(http.StatusOK, identity)
}

// ChangePassword updates the caller's password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Not authenticated",
		})
		return
	}

	var request struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), identity, request.CurrentPassword, request.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
	})
}

// Setup creates the first admin account on a fresh installation
func (h *AuthHandler) Setup(c *gin.Context) {
	var input service.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	user, err := h.service.Setup(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}
