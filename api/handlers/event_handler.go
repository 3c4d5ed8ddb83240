// api/handlers/event_handler.go
package handlers

import (
	"net/http"
	"strings"
	"time"

	"example.com/calendariko/api/middleware"
	"example.com/calendariko/internal/models"
	"example.com/calendariko/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EventHandler handles calendar event requests
type EventHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewEventHandler creates a new EventHandler instance
func NewEventHandler(svc service.Service, log *logrus.Logger) *EventHandler {
	return &EventHandler{
		service: svc,
		log:     log,
	}
}

// CreateEvent handles event creation with conflict detection
func (h *EventHandler) CreateEvent(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input service.EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.log.WithError(err).Warn("Invalid event format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid event format",
		})
		return
	}

	event, err := h.service.CreateEvent(c.Request.Context(), identity, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// GetEvent handles event retrieval
func (h *EventHandler) GetEvent(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	event, err := h.service.GetEvent(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// ListEvents handles the calendar listing with optional filters
func (h *EventHandler) ListEvents(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	filters, err := parseEventFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	events, err := h.service.ListEvents(c.Request.Context(), identity, filters)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// UpdateEvent handles partial event updates with conflict detection
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var patch service.EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.log.WithError(err).Warn("Invalid event format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid event format",
		})
		return
	}

	event, err := h.service.UpdateEvent(c.Request.Context(), identity, c.Param("id"), patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// DeleteEvent handles event removal
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	identity, err := middleware.GetIdentityFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	if err := h.service.DeleteEvent(c.Request.Context(), identity, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
	})
}

// parseEventFilters reads the listing filters from query parameters.
// Multi-value filters are comma separated, instants are RFC 3339.
func parseEventFilters(c *gin.Context) (service.EventFilters, error) {
	filters := service.EventFilters{
		Search: c.Query("q"),
	}

	if raw := c.Query("band_id"); raw != "" {
		filters.BandIDs = splitCSV(raw)
	}
	for _, t := range splitCSV(c.Query("type")) {
		filters.Types = append(filters.Types, models.EventType(t))
	}
	for _, s := range splitCSV(c.Query("status")) {
		filters.Statuses = append(filters.Statuses, models.EventStatus(s))
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, service.NewValidationError("invalid 'from' instant, expected RFC 3339")
		}
		filters.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, service.NewValidationError("invalid 'to' instant, expected RFC 3339")
		}
		filters.To = &to
	}

	return filters, nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
