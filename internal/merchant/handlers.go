package merchant

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/codtrack/internal/idgen"
	"github.com/mbd888/codtrack/internal/validation"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)

// Handler provides HTTP endpoints for merchant management.
type Handler struct {
	store Store
}

// NewHandler creates a merchant handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes sets up merchant endpoints under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/merchants", h.Create)
	r.GET("/merchants", h.List)
	r.GET("/merchants/:id", h.Get)
	r.PUT("/merchants/:id/settings", h.UpdateSettings)
}

type createRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// Create registers a new merchant with default risk policy settings.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain 'name' and 'slug'",
		})
		return
	}
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugRegex.MatchString(slug) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_slug",
			"message": "Slug must be 3-64 chars of lowercase letters, digits, and dashes",
		})
		return
	}

	now := time.Now()
	m := &Merchant{
		ID:        idgen.WithPrefix("mer_"),
		Name:      validation.SanitizeString(req.Name, 255),
		Slug:      slug,
		Status:    StatusActive,
		Settings:  DefaultSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.Create(c.Request.Context(), m); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "slug_taken",
				"message": "A merchant with this slug already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"merchant": m})
}

// Get returns one merchant.
func (h *Handler) Get(c *gin.Context) {
	m, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "merchant_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"merchant": m})
}

// List returns all merchants.
func (h *Handler) List(c *gin.Context) {
	merchants, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"merchants": merchants, "count": len(merchants)})
}

type settingsRequest struct {
	AutoApproveBelow        *int `json:"autoApproveBelow"`
	VerificationAbove       *int `json:"verificationAbove"`
	SnapshotIntervalMinutes *int `json:"snapshotIntervalMinutes"`
}

// UpdateSettings applies a partial update to the merchant's risk policy.
func (h *Handler) UpdateSettings(c *gin.Context) {
	ctx := c.Request.Context()

	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	m, err := h.store.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "merchant_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	if req.AutoApproveBelow != nil {
		if *req.AutoApproveBelow < 0 || *req.AutoApproveBelow > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_threshold"})
			return
		}
		m.Settings.AutoApproveBelow = *req.AutoApproveBelow
	}
	if req.VerificationAbove != nil {
		if *req.VerificationAbove < 0 || *req.VerificationAbove > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_threshold"})
			return
		}
		m.Settings.VerificationAbove = *req.VerificationAbove
	}
	if req.SnapshotIntervalMinutes != nil && *req.SnapshotIntervalMinutes >= 0 {
		m.Settings.SnapshotIntervalMinutes = *req.SnapshotIntervalMinutes
	}
	if m.Settings.VerificationAbove < m.Settings.AutoApproveBelow {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_threshold",
			"message": "verificationAbove must not be below autoApproveBelow",
		})
		return
	}

	m.UpdatedAt = time.Now()
	if err := h.store.Update(ctx, m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"merchant": m})
}
