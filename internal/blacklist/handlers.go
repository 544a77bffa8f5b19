package blacklist

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mbd888/codtrack/internal/metrics"
	"github.com/mbd888/codtrack/internal/validation"
)

// EventPublisher receives blacklist change events for live streaming. Must be
// non-blocking.
type EventPublisher interface {
	BlacklistUpdated(merchantID, phone, action string)
}

// Handler provides HTTP endpoints for blacklist management.
type Handler struct {
	store  Store
	events EventPublisher
}

// NewHandler creates a blacklist handler. events may be nil when streaming is
// disabled.
func NewHandler(store Store, events EventPublisher) *Handler {
	return &Handler{store: store, events: events}
}

// RegisterRoutes sets up blacklist endpoints under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/merchants/:id/blacklist", h.List)
	r.POST("/merchants/:id/blacklist", h.Add)
	r.DELETE("/merchants/:id/blacklist/:phone", h.Remove)
}

type addRequest struct {
	Phone  string `json:"phone" binding:"required"`
	Reason string `json:"reason"`
}

// Add flags a phone for a merchant.
func (h *Handler) Add(c *gin.Context) {
	merchantID := c.Param("id")

	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain 'phone'",
		})
		return
	}

	phone := validation.NormalizePhone(req.Phone)
	if !validation.IsValidPhone(phone) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_phone",
			"message": "Phone must be 8-15 digits",
		})
		return
	}

	entry := &Entry{
		MerchantID: merchantID,
		Phone:      phone,
		Reason:     validation.SanitizeString(req.Reason, validation.MaxStringLength),
		CreatedAt:  time.Now(),
	}
	if err := h.store.Add(c.Request.Context(), entry); err != nil {
		if err == ErrExists {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "already_listed",
				"message": "Phone is already blacklisted",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	metrics.BlacklistSize.Inc()
	if h.events != nil {
		h.events.BlacklistUpdated(merchantID, phone, "added")
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// Remove clears a phone from the merchant's blacklist.
func (h *Handler) Remove(c *gin.Context) {
	merchantID := c.Param("id")
	phone := validation.NormalizePhone(c.Param("phone"))

	if err := h.store.Remove(c.Request.Context(), merchantID, phone); err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	metrics.BlacklistSize.Dec()
	if h.events != nil {
		h.events.BlacklistUpdated(merchantID, phone, "removed")
	}
	c.JSON(http.StatusOK, gin.H{"removed": phone})
}

// List returns all blacklist entries for a merchant.
func (h *Handler) List(c *gin.Context) {
	merchantID := c.Param("id")

	entries, err := h.store.List(c.Request.Context(), merchantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}
