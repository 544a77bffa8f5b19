package risk

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/codtrack/internal/validation"
)

const defaultAssessmentLimit = 20

// Handler exposes the assessment audit trail over HTTP.
type Handler struct {
	store Store
}

// NewHandler creates a risk assessment handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes sets up assessment endpoints under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/merchants/:id/customers/:phone/assessments", h.ListByPhone)
}

// ListByPhone returns the most recent scoring assessments for a phone, newest
// first.
// GET /v1/merchants/:id/customers/:phone/assessments?limit=
func (h *Handler) ListByPhone(c *gin.Context) {
	merchantID := c.Param("id")
	phone := validation.NormalizePhone(c.Param("phone"))
	if !validation.IsValidPhone(phone) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_phone",
			"message": "Phone must be 8-15 digits",
		})
		return
	}

	limit := defaultAssessmentLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
			if limit > 100 {
				limit = 100
			}
		}
	}

	assessments, err := h.store.ListByPhone(c.Request.Context(), merchantID, phone, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if assessments == nil {
		assessments = []*Assessment{}
	}

	c.JSON(http.StatusOK, gin.H{
		"assessments": assessments,
		"count":       len(assessments),
	})
}
