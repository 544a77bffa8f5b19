package customer

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mbd888/codtrack/internal/validation"
)

// Handler provides HTTP endpoints for customer risk.
type Handler struct {
	service       *Service
	snapshotStore SnapshotStore
}

// NewHandler creates a customer risk handler. snapshotStore may be nil when
// history tracking is disabled.
func NewHandler(service *Service, snapshotStore SnapshotStore) *Handler {
	return &Handler{service: service, snapshotStore: snapshotStore}
}

// RegisterRoutes sets up customer risk endpoints under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/merchants/:id/customers/:phone/risk", h.GetProfile)
	r.POST("/merchants/:id/customers/risk/batch", h.GetBatchProfiles)
	r.GET("/merchants/:id/customers/:phone/risk/history", h.GetHistory)
}

// GetProfile returns the learned risk profile for one phone.
func (h *Handler) GetProfile(c *gin.Context) {
	merchantID := c.Param("id")
	phone := validation.NormalizePhone(c.Param("phone"))

	profile, err := h.service.Profile(c.Request.Context(), merchantID, phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "customer_not_found",
			"message": "No order history for this phone",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

type batchRequest struct {
	Phones []string `json:"phones" binding:"required"`
}

// GetBatchProfiles returns risk profiles for multiple phones.
// POST /v1/merchants/:id/customers/risk/batch
func (h *Handler) GetBatchProfiles(c *gin.Context) {
	merchantID := c.Param("id")

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain 'phones' array",
		})
		return
	}
	if len(req.Phones) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "At least one phone is required",
		})
		return
	}
	if len(req.Phones) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "too_many_phones",
			"message": "Maximum 100 phones per batch request",
		})
		return
	}

	profiles := make(map[string]*Profile, len(req.Phones))
	for _, phone := range req.Phones {
		phone = validation.NormalizePhone(phone)
		p, err := h.service.Profile(c.Request.Context(), merchantID, phone)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
			return
		}
		// Unknown phones map to null so callers can tell "no history"
		// apart from "low risk".
		profiles[phone] = p
	}

	c.JSON(http.StatusOK, gin.H{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// GetHistory returns historical risk snapshots for one phone.
// GET /v1/merchants/:id/customers/:phone/risk/history?from=&to=&limit=
func (h *Handler) GetHistory(c *gin.Context) {
	merchantID := c.Param("id")
	phone := validation.NormalizePhone(c.Param("phone"))

	if h.snapshotStore == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error":   "not_available",
			"message": "Risk history tracking is not enabled",
		})
		return
	}

	q := HistoryQuery{
		MerchantID: merchantID,
		Phone:      phone,
		Limit:      100,
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			q.From = t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			q.To = t
		}
	}
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			q.Limit = parsed
			if q.Limit > 1000 {
				q.Limit = 1000
			}
		}
	}

	snapshots, err := h.snapshotStore.Query(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"phone":     phone,
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}
