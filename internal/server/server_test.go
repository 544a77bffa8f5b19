package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/codtrack/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Port:             "0",
		Env:              "development",
		LogLevel:         "error",
		SnapshotInterval: time.Hour,
		RateLimitRPS:     1000,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig())
	require.NoError(t, err)
	return s
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestLivenessEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessEndpoint(t *testing.T) {
	s := newTestServer(t)

	// Not ready until Run() marks it so
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	s.ready.Store(true)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "codtrack_")
}

func TestCoreRoutesRegistered(t *testing.T) {
	s := newTestServer(t)

	// Create a merchant, then hit the routes that hang off it.
	body, _ := json.Marshal(map[string]string{"name": "Shop One", "slug": "shop-one"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/merchants", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Merchant struct {
			ID string `json:"id"`
		} `json:"merchant"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Merchant.ID)

	routes := []string{
		"/v1/merchants/" + created.Merchant.ID + "/orders",
		"/v1/merchants/" + created.Merchant.ID + "/blacklist",
		"/v1/merchants/" + created.Merchant.ID + "/analytics/overview",
		"/v1/merchants/" + created.Merchant.ID + "/analytics/funnel",
	}
	for _, route := range routes {
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, route, nil))
		assert.Equal(t, http.StatusOK, w.Code, "route %s", route)
	}
}

func TestImportThenAnalytics(t *testing.T) {
	s := newTestServer(t)

	payload, _ := json.Marshal(map[string]interface{}{
		"orders": []map[string]interface{}{
			{"code": "A-1", "phone": "0900000001", "amount": 250000, "paymentMethod": "cod", "province": "Hanoi"},
			{"code": "A-2", "phone": "0900000002", "amount": 1200000, "paymentMethod": "cod", "province": "Danang"},
		},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/merchants/mer_test/orders/import", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/merchants/mer_test/analytics/overview?range=7d", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		KPIs struct {
			TotalOrders int `json:"totalOrders"`
			CODOrders   int `json:"codOrders"`
		} `json:"kpis"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.KPIs.TotalOrders)
	assert.Equal(t, 2, resp.KPIs.CODOrders)
}

func TestNotFoundRoute(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDHeaderSet(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, "req-abc", w.Header().Get("X-Request-ID"))
}
