// api/handlers/band_handler.go
package handlers

import (
	"net/http"

	"example.com/calendariko/api/middleware"
	"example.com/calendariko/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BandHandler handles band management requests
type BandHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewBandHandler creates a new BandHandler instance
func NewBandHandler(svc service.Service, log *logrus.Logger) *BandHandler {
	return &BandHandler{
		service: svc,
		log:     log,
	}
}

// CreateBand handles band creation
func (h *BandHandler) CreateBand(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input service.BandInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	band, err := h.service.CreateBand(c.Request.Context(), identity, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, band)
}

// ListBands handles listing the caller's visible bands
func (h *BandHandler) ListBands(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	bands, err := h.service.ListBands(c.Request.Context(), identity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, bands)
}

// GetBand handles band retrieval
func (h *BandHandler) GetBand(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	band, err := h.service.GetBand(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, band)
}

// UpdateBand handles band updates
func (h *BandHandler) UpdateBand(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input service.BandInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	band, err := h.service.UpdateBand(c.Request.Context(), identity, c.Param("id"), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, band)
}

// DeleteBand handles band removal
func (h *BandHandler) DeleteBand(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	if err := h.service.DeleteBand(c.Request.Context(), identity, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
	})
}

// SetReferente reassigns the band's manager. A null user_id removes the
// current manager without naming a new one.
func (h *BandHandler) SetReferente(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var request struct {
		UserID *string `json:"user_id"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	band, err := h.service.SetReferente(c.Request.Context(), identity, c.Param("id"), request.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, band)
}
