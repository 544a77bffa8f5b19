// Package orderapi provides the HTTP endpoints for order ingestion and
// lifecycle mutation. It sits above the orders model package so the rules in
// orders stay a leaf that lifecycle and risk can both import.
package orderapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/codtrack/internal/idgen"
	"github.com/mbd888/codtrack/internal/lifecycle"
	"github.com/mbd888/codtrack/internal/metrics"
	"github.com/mbd888/codtrack/internal/orders"
	"github.com/mbd888/codtrack/internal/pagination"
	"github.com/mbd888/codtrack/internal/risk"
	"github.com/mbd888/codtrack/internal/traces"
	"github.com/mbd888/codtrack/internal/validation"
)

// maxImportBatch caps one bulk import request.
const maxImportBatch = 1000

// EventPublisher receives order events for live streaming. All methods must
// be non-blocking.
type EventPublisher interface {
	OrderCreated(o *orders.Order)
	StatusChanged(o *orders.Order, from orders.Status)
	HighRiskFlagged(o *orders.Order)
}

// Handler provides HTTP endpoints for order ingestion and lifecycle.
type Handler struct {
	store  orders.Store
	engine *risk.Engine
	events EventPublisher
}

// NewHandler creates an order handler. events may be nil when streaming is
// disabled.
func NewHandler(store orders.Store, engine *risk.Engine, events EventPublisher) *Handler {
	return &Handler{store: store, engine: engine, events: events}
}

// RegisterRoutes sets up order endpoints under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/merchants/:id/orders/import", h.Import)
	r.GET("/merchants/:id/orders", h.List)
	r.GET("/merchants/:id/orders/:orderId", h.Get)
	r.GET("/merchants/:id/orders/:orderId/transitions", h.Transitions)
	r.POST("/merchants/:id/orders/:orderId/status", h.UpdateStatus)
	r.POST("/merchants/:id/orders/:orderId/payment", h.RecordPayment)
	r.POST("/merchants/:id/orders/:orderId/refund", h.RecordRefund)
}

type importItem struct {
	Code                string `json:"code"`
	Phone               string `json:"phone"`
	CustomerName        string `json:"customerName"`
	Amount              int64  `json:"amount"`
	DiscountAmount      int64  `json:"discountAmount"`
	ShippingFee         int64  `json:"shippingFee"`
	CustomerShippingFee int64  `json:"customerShippingFee"`
	SellerShippingFee   int64  `json:"sellerShippingFee"`
	PaymentMethod       string `json:"paymentMethod"`
	Status              string `json:"status"`
	Province            string `json:"province"`
	District            string `json:"district"`
	Ward                string `json:"ward"`
	Product             string `json:"product"`
	Channel             string `json:"channel"`
	Source              string `json:"source"`
	OrderDate           string `json:"orderDate"` // RFC3339, optional
	Reachable           bool   `json:"reachable"`
}

type importRequest struct {
	Orders []importItem `json:"orders" binding:"required"`
}

type importResult struct {
	Index     int    `json:"index"`
	OrderID   string `json:"orderId,omitempty"`
	RiskScore *int   `json:"riskScore,omitempty"`
	RiskLevel string `json:"riskLevel,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Import ingests a batch of orders, scoring each COD order at entry.
// POST /v1/merchants/:id/orders/import
//
// The batch is not transactional: each item succeeds or fails on its own and
// the response reports per-item results in input order.
func (h *Handler) Import(c *gin.Context) {
	merchantID := c.Param("id")

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain 'orders' array",
		})
		return
	}
	if len(req.Orders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "At least one order is required",
		})
		return
	}
	if len(req.Orders) > maxImportBatch {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "batch_too_large",
			"message": "Maximum 1000 orders per import",
		})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "orders.import",
		traces.MerchantID(merchantID))
	defer span.End()

	results := make([]importResult, len(req.Orders))
	imported := 0
	for i, item := range req.Orders {
		res := importResult{Index: i}
		o, err := h.importOne(ctx, merchantID, item)
		if err != nil {
			res.Error = err.Error()
			metrics.OrdersImportedTotal.WithLabelValues("failed").Inc()
		} else {
			metrics.OrdersImportedTotal.WithLabelValues("ok").Inc()
			res.OrderID = o.ID
			res.RiskScore = o.RiskScore
			res.RiskLevel = string(o.RiskLevel())
			imported++
		}
		results[i] = res
	}

	status := http.StatusCreated
	if imported == 0 {
		status = http.StatusBadRequest
	} else if imported < len(req.Orders) {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{
		"imported": imported,
		"failed":   len(req.Orders) - imported,
		"results":  results,
	})
}

func (h *Handler) importOne(ctx context.Context, merchantID string, item importItem) (*orders.Order, error) {
	if item.Amount < 0 {
		return nil, errors.New("amount must not be negative")
	}
	phone := validation.NormalizePhone(item.Phone)
	if phone != "" && !validation.IsValidPhone(phone) {
		return nil, errors.New("invalid phone number")
	}

	status := orders.Status(item.Status)
	if status == "" {
		status = orders.StatusPendingReview
	}

	now := time.Now()
	o := &orders.Order{
		ID:                  idgen.WithPrefix("ord_"),
		MerchantID:          merchantID,
		Code:                validation.SanitizeString(item.Code, 255),
		Phone:               phone,
		CustomerName:        validation.SanitizeString(item.CustomerName, 255),
		Amount:              item.Amount,
		DiscountAmount:      item.DiscountAmount,
		ShippingFee:         item.ShippingFee,
		CustomerShippingFee: item.CustomerShippingFee,
		SellerShippingFee:   item.SellerShippingFee,
		PaymentMethod:       item.PaymentMethod,
		Status:              status,
		Province:            validation.SanitizeString(item.Province, 255),
		District:            validation.SanitizeString(item.District, 255),
		Ward:                validation.SanitizeString(item.Ward, 255),
		Product:             validation.SanitizeString(item.Product, 255),
		Channel:             validation.SanitizeString(item.Channel, 255),
		Source:              validation.SanitizeString(item.Source, 255),
		CreatedAt:           now,
		OrderDate:           now,
	}
	if item.OrderDate != "" {
		t, err := time.Parse(time.RFC3339, item.OrderDate)
		if err != nil {
			return nil, errors.New("orderDate must be RFC3339")
		}
		o.OrderDate = t
	}

	// Score at entry. History lookup failures degrade to a no-history score
	// rather than blocking the import.
	var successes, booms int
	if phone != "" {
		if history, err := h.store.ListByPhone(ctx, merchantID, phone); err == nil {
			for _, past := range history {
				if orders.IsSuccess(past) {
					successes++
				}
				if orders.IsBoom(past) {
					booms++
				}
			}
		}
	}
	a := h.engine.Score(ctx, merchantID, o.ID, risk.ScoreInput{
		Phone:         phone,
		Amount:        o.Amount,
		PaymentMethod: o.PaymentMethod,
		PastSuccesses: successes,
		PastBooms:     booms,
		Reachable:     item.Reachable,
	})
	score := a.Score
	o.RiskScore = &score
	metrics.RiskScores.Observe(float64(score))
	if o.RiskLevel() == orders.RiskLevelHigh {
		metrics.HighRiskOrdersTotal.Inc()
	}

	if err := h.store.Create(ctx, o); err != nil {
		return nil, errors.New("failed to store order")
	}

	if h.events != nil {
		h.events.OrderCreated(o)
		if o.RiskLevel() == orders.RiskLevelHigh {
			h.events.HighRiskFlagged(o)
		}
	}
	return o, nil
}

// List returns a cursor-paginated page of the merchant's orders, newest first.
// GET /v1/merchants/:id/orders?status=&from=&to=&limit=&cursor=
func (h *Handler) List(c *gin.Context) {
	merchantID := c.Param("id")

	q := orders.ListQuery{
		MerchantID: merchantID,
		Status:     orders.Status(c.Query("status")),
		Limit:      50,
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.Limit = n
			if q.Limit > 200 {
				q.Limit = 200
			}
		}
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.From = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.To = t
		}
	}
	cursor, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_cursor"})
		return
	}
	q.Cursor = cursor

	items, err := h.store.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	page, next, hasMore := pagination.Page(items, q.Limit, func(o *orders.Order) (time.Time, string) {
		return o.CreatedAt, o.ID
	})
	c.JSON(http.StatusOK, gin.H{
		"orders":     page,
		"count":      len(page),
		"nextCursor": next,
		"hasMore":    hasMore,
	})
}

// Get returns one order.
func (h *Handler) Get(c *gin.Context) {
	o, ok := h.fetch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

// Transitions returns the statuses the order may move to next.
func (h *Handler) Transitions(c *gin.Context) {
	o, ok := h.fetch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": o.Status,
		"next":   lifecycle.Next(o.Status),
	})
}

type statusRequest struct {
	To     string `json:"to" binding:"required"`
	Reason string `json:"reason"`
}

// UpdateStatus moves an order through the lifecycle state machine.
// POST /v1/merchants/:id/orders/:orderId/status
//
// The write is compare-and-set on the status the transition was validated
// against, so two concurrent mutations cannot both pass validation and land.
func (h *Handler) UpdateStatus(c *gin.Context) {
	merchantID := c.Param("id")

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain 'to' status",
		})
		return
	}
	to := orders.Status(req.To)
	if !to.Known() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unknown_status",
			"message": "Target status is not a recognized status",
		})
		return
	}

	o, ok := h.fetch(c)
	if !ok {
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "orders.update_status",
		traces.MerchantID(merchantID), traces.OrderID(o.ID))
	defer span.End()

	if err := lifecycle.ValidateTransition(o.Status, to); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "illegal_transition",
			"message": err.Error(),
		})
		return
	}

	updated, err := h.store.UpdateStatus(ctx, merchantID, o.ID, o.Status, orders.StatusUpdate{
		To:     to,
		Reason: validation.SanitizeString(req.Reason, validation.MaxStringLength),
		At:     time.Now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrStatusConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "status_conflict",
				"message": "Order status changed concurrently, retry",
			})
		case errors.Is(err, orders.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		}
		return
	}

	if updated.Status != o.Status {
		metrics.StatusTransitionsTotal.WithLabelValues(string(updated.Status)).Inc()
		if h.events != nil {
			h.events.StatusChanged(updated, o.Status)
		}
	}
	c.JSON(http.StatusOK, gin.H{"order": updated})
}

type paymentRequest struct {
	PaidAt string `json:"paidAt"` // RFC3339, defaults to now
}

// RecordPayment stamps the payment timestamp without touching the status.
// Payment and delivery state advance independently.
func (h *Handler) RecordPayment(c *gin.Context) {
	merchantID := c.Param("id")

	var req paymentRequest
	_ = c.ShouldBindJSON(&req)
	paidAt := time.Now()
	if req.PaidAt != "" {
		t, err := time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "paidAt must be RFC3339",
			})
			return
		}
		paidAt = t
	}

	o, err := h.store.RecordPayment(c.Request.Context(), merchantID, c.Param("orderId"), paidAt)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

type refundRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// RecordRefund accumulates a refund against the order.
func (h *Handler) RecordRefund(c *gin.Context) {
	merchantID := c.Param("id")

	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain a positive 'amount'",
		})
		return
	}

	o, err := h.store.RecordRefund(c.Request.Context(), merchantID, c.Param("orderId"), req.Amount)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (h *Handler) fetch(c *gin.Context) (*orders.Order, bool) {
	o, err := h.store.Get(c.Request.Context(), c.Param("id"), c.Param("orderId"))
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		}
		return nil, false
	}
	return o, true
}
