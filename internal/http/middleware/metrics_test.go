package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetrics_CountersInflightAndPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewHTTPMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Handler())
	r.GET("/orders/:id", func(c *gin.Context) { c.String(http.StatusOK, "order") })
	r.DELETE("/orders/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/orders/a", nil),
		httptest.NewRequest(http.MethodGet, "/orders/b", nil),
		httptest.NewRequest(http.MethodDelete, "/orders/a", nil),
		httptest.NewRequest(http.MethodGet, "/missing", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/orders/:id", "200")); got != 2 {
		t.Fatalf("route counter = %v; want 2", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("DELETE", "/orders/:id", "204")); got != 1 {
		t.Fatalf("delete counter = %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/missing", "404")); got != 1 {
		t.Fatalf("fallback counter = %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.inflight); got != 0 {
		t.Fatalf("inflight = %v; want 0", got)
	}
	if n := testutil.CollectAndCount(m.latency); n != 3 {
		t.Fatalf("latency series = %d; want 3", n)
	}
}

func TestHTTPMetrics_CountsReplays(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewHTTPMetrics(prometheus.NewRegistry())
	cache := NewReplayCache(0)

	r := gin.New()
	r.Use(m.Handler())
	r.Use(Idempotency(cache, IdempotencyOptions{}))
	r.POST("/orders", func(c *gin.Context) { c.JSON(http.StatusCreated, gin.H{"id": "order_1"}) })

	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set(HeaderIdempotencyKey, "k-1")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(m.replays.WithLabelValues("/orders")); got != 2 {
		t.Fatalf("replays = %v; want 2", got)
	}
}

func TestNewHTTPMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTPMetrics(reg)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	NewHTTPMetrics(reg)
}
