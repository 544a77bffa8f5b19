package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/codtrack/internal/orders"
)

// Handler provides JSON API endpoints for merchant analytics.
type Handler struct {
	orderStore orders.Store
}

// NewHandler creates an analytics handler.
func NewHandler(orderStore orders.Store) *Handler {
	return &Handler{orderStore: orderStore}
}

// RegisterRoutes sets up analytics routes under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/merchants/:id/analytics/overview", h.Overview)
	r.GET("/merchants/:id/analytics/trend", h.Trend)
	r.GET("/merchants/:id/analytics/funnel", h.Funnel)
	r.GET("/merchants/:id/analytics/breakdown", h.Breakdown)
	r.GET("/merchants/:id/analytics/risk-buckets", h.RiskBuckets)
	r.GET("/merchants/:id/analytics/repeat-offenders", h.RepeatOffenders)
	r.GET("/merchants/:id/analytics/timers", h.OperationalTimers)
}

// Overview returns headline KPIs for a date range.
func (h *Handler) Overview(c *gin.Context) {
	merchantID := c.Param("id")
	from, to := parseTimeRange(c)

	all, err := h.orderStore.ListRange(c.Request.Context(), merchantID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from": from,
		"to":   to,
		"kpis": ComputeKPIs(all),
	})
}

// Trend returns the bucketed order time series for a date range. Ranges over
// 60 days bucket by month, shorter ranges by day.
func (h *Handler) Trend(c *gin.Context) {
	merchantID := c.Param("id")
	from, to := parseTimeRange(c)

	all, err := h.orderStore.ListRange(c.Request.Context(), merchantID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	points := ComputeTrend(all, from, to)
	c.JSON(http.StatusOK, gin.H{
		"from":        from,
		"to":          to,
		"granularity": GranularityFor(from, to),
		"points":      points,
		"count":       len(points),
	})
}

// Funnel returns the COD confirmation funnel and the strict approval funnel.
func (h *Handler) Funnel(c *gin.Context) {
	merchantID := c.Param("id")
	from, to := parseTimeRange(c)

	all, err := h.orderStore.ListRange(c.Request.Context(), merchantID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":   from,
		"to":     to,
		"cod":    ComputeCODFunnel(all),
		"strict": ComputeStrictFunnel(all),
	})
}

// Breakdown groups the range's orders by a dimension.
// GET /v1/merchants/:id/analytics/breakdown?by=province&limit=20
func (h *Handler) Breakdown(c *gin.Context) {
	merchantID := c.Param("id")
	dim := Dimension(c.DefaultQuery("by", string(DimensionProvince)))
	if !ValidDimension(dim) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_dimension",
			"message": "must be province, district, product, channel, or source",
		})
		return
	}
	from, to := parseTimeRange(c)
	limit := parseLimit(c, 20, 100)

	all, err := h.orderStore.ListRange(c.Request.Context(), merchantID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	rows := ComputeBreakdown(all, dim)
	if len(rows) > limit {
		rows = rows[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"from":        from,
		"to":          to,
		"dimension":   dim,
		"rows":        rows,
		"worstByBoom": HighestBoomRate(rows, 5),
	})
}

// RiskBuckets returns COD outcomes grouped by risk band, for checking that
// the scorer's bands actually order by observed boom rate.
func (h *Handler) RiskBuckets(c *gin.Context) {
	merchantID := c.Param("id")
	from, to := parseTimeRange(c)

	all, err := h.orderStore.ListRange(c.Request.Context(), merchantID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":    from,
		"to":      to,
		"buckets": ComputeRiskBuckets(all),
	})
}

// RepeatOffenders lists phones with repeated high-risk COD orders.
func (h *Handler) RepeatOffenders(c *gin.Context) {
	merchantID := c.Param("id")
	from, to := parseTimeRange(c)

	all, err := h.orderStore.ListRange(c.Request.Context(), merchantID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	offenders := ComputeRepeatOffenders(all)
	c.JSON(http.StatusOK, gin.H{
		"from":      from,
		"to":        to,
		"offenders": offenders,
		"count":     len(offenders),
	})
}

// OperationalTimers returns confirmation/payment latency and stuck-order
// counters for a date range.
func (h *Handler) OperationalTimers(c *gin.Context) {
	merchantID := c.Param("id")
	from, to := parseTimeRange(c)

	all, err := h.orderStore.ListRange(c.Request.Context(), merchantID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":   from,
		"to":     to,
		"timers": ComputeTimers(all, time.Now()),
	})
}

// parseTimeRange reads the from/to query params, with range presets via
// ?range=today|7d|30d|90d. Defaults to the last 30 days.
func parseTimeRange(c *gin.Context) (from, to time.Time) {
	to = time.Now()
	from = to.AddDate(0, 0, -30)

	switch c.Query("range") {
	case "today":
		from = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	case "7d":
		from = to.AddDate(0, 0, -7)
	case "30d":
		from = to.AddDate(0, 0, -30)
	case "90d":
		from = to.AddDate(0, 0, -90)
	}

	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = t
		}
	}
	return
}

func parseLimit(c *gin.Context, defaultVal, maxVal int) int {
	limit := defaultVal
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxVal {
		limit = maxVal
	}
	return limit
}
