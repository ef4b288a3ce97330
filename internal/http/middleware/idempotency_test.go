package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func idemRouter(cache *ReplayCache, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(Idempotency(cache, IdempotencyOptions{}))
	r.POST("/orders", handler)
	r.POST("/import", handler)
	return r
}

func postWithKey(r http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_HelpersDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected no key")
	}
	if IsReplay(c) {
		t.Fatalf("expected IsReplay=false by default")
	}
	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must read as absent")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if IsReplay(c) {
		t.Fatalf("non-bool replay flag must read as false")
	}
}

func TestIdempotency_NoHeaderPassesThrough(t *testing.T) {
	var calls atomic.Int32
	r := idemRouter(NewReplayCache(time.Hour), func(c *gin.Context) {
		calls.Add(1)
		if _, ok := GetIdempotencyKey(c); ok {
			t.Errorf("key should be absent")
		}
		c.JSON(http.StatusCreated, gin.H{"n": calls.Load()})
	})

	postWithKey(r, "/orders", "")
	postWithKey(r, "/orders", "")
	if calls.Load() != 2 {
		t.Fatalf("handler calls = %d; want 2", calls.Load())
	}
}

func TestIdempotency_InvalidKey(t *testing.T) {
	r := idemRouter(NewReplayCache(time.Hour), func(c *gin.Context) {
		t.Errorf("handler must not run for an invalid key")
	})

	for _, key := range []string{"has space", strings.Repeat("a", 201)} {
		w := postWithKey(r, "/orders", key)
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("key %q: got %d %s", key, w.Code, w.Body.String())
		}
	}
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	var calls atomic.Int32
	r := idemRouter(NewReplayCache(time.Hour), func(c *gin.Context) {
		n := calls.Add(1)
		if k, _ := GetIdempotencyKey(c); k != "form-1" {
			t.Errorf("key = %q", k)
		}
		c.JSON(http.StatusCreated, gin.H{"id": "order_" + string(rune('0'+n))})
	})

	first := postWithKey(r, "/orders", "form-1")
	second := postWithKey(r, "/orders", "form-1")

	if calls.Load() != 1 {
		t.Fatalf("handler ran %d times; want 1", calls.Load())
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("replay mismatch: %d %q vs %q", second.Code, second.Body.String(), first.Body.String())
	}
	if second.Header().Get(HeaderIdempotentReplay) != "true" || first.Header().Get(HeaderIdempotentReplay) != "" {
		t.Fatalf("replay header misplaced")
	}
	if !strings.HasPrefix(second.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("content type not replayed: %q", second.Header().Get("Content-Type"))
	}
}

func TestIdempotency_KeyScopedByPath(t *testing.T) {
	var calls atomic.Int32
	r := idemRouter(NewReplayCache(time.Hour), func(c *gin.Context) {
		calls.Add(1)
		c.Status(http.StatusOK)
	})

	postWithKey(r, "/orders", "same")
	postWithKey(r, "/import", "same")
	if calls.Load() != 2 {
		t.Fatalf("handler calls = %d; want 2", calls.Load())
	}
}

func TestIdempotency_FailuresAreNotStored(t *testing.T) {
	var calls atomic.Int32
	cache := NewReplayCache(time.Hour)
	r := idemRouter(cache, func(c *gin.Context) {
		if calls.Add(1) == 1 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"code": "validation_failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	if w := postWithKey(r, "/orders", "retry"); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("first = %d", w.Code)
	}
	if cache.Len() != 0 {
		t.Fatalf("failed response must release the key")
	}
	if w := postWithKey(r, "/orders", "retry"); w.Code != http.StatusCreated {
		t.Fatalf("retry = %d", w.Code)
	}
	if calls.Load() != 2 {
		t.Fatalf("handler calls = %d; want 2", calls.Load())
	}
}

func TestIdempotency_InFlightConflict(t *testing.T) {
	cache := NewReplayCache(time.Hour)
	if hit, inFlight := cache.begin("POST /orders busy"); hit != nil || inFlight {
		t.Fatalf("first claim should succeed")
	}
	r := idemRouter(cache, func(c *gin.Context) {
		t.Errorf("handler must not run while the key is claimed")
	})

	w := postWithKey(r, "/orders", "busy")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d; want 409", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["code"] != "idempotency_in_progress" {
		t.Fatalf("unexpected body %s (%v)", w.Body.String(), err)
	}
}

func TestIdempotency_PanicReleasesKey(t *testing.T) {
	cache := NewReplayCache(time.Hour)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.Use(Idempotency(cache, IdempotencyOptions{}))
	r.POST("/orders", func(c *gin.Context) { panic("boom") })

	if w := postWithKey(r, "/orders", "p-1"); w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if cache.Len() != 0 {
		t.Fatalf("panicking request must release its key")
	}
}

func TestReplayCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	cache := NewReplayCache(time.Minute)
	cache.Now = func() time.Time { return now }

	cache.begin("k")
	cache.complete("k", &storedResponse{status: http.StatusCreated, body: []byte("x")})

	if hit, _ := cache.begin("k"); hit == nil || string(hit.body) != "x" {
		t.Fatalf("expected hit before expiry")
	}
	now = now.Add(time.Minute)
	if hit, inFlight := cache.begin("k"); hit != nil || inFlight {
		t.Fatalf("expected expired entry to be dropped")
	}
}

func TestNewReplayCache_DefaultTTL(t *testing.T) {
	if got := NewReplayCache(0).TTL; got != 24*time.Hour {
		t.Fatalf("ttl = %v", got)
	}
}
