// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Idempotency-Key support for unsafe requests. Creating
// an order for a debt client also opens a debt, so a double-submitted form
// must not produce two of each. When a request carries the header:
//
//   - the key is validated (400 bad_idempotency_key otherwise)
//   - a completed 2xx response stored under the same method, path and key is
//     replayed verbatim with Idempotent-Replay: true, skipping every later
//     handler including the rate limiter
//   - a request racing an in-flight one with the same key gets 409
//   - otherwise the response is captured and stored for ReplayCache.TTL
//
// Requests without the header pass through untouched.
package middleware

import (
	"bytes"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay marks a response served from the replay cache.
const HeaderIdempotentReplay = "Idempotent-Replay"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
)

// GetIdempotencyKey returns the validated key stored by Idempotency.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the response was served from the replay cache.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// storedResponse is a completed response kept for replay.
type storedResponse struct {
	status      int
	contentType string
	body        []byte
	storedAt    time.Time
	pending     bool
}

// ReplayCache keeps completed responses by idempotency key for TTL. It is
// process-local and safe for concurrent use.
type ReplayCache struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]*storedResponse
}

// NewReplayCache returns a cache that forgets responses after ttl. A ttl <= 0
// defaults to 24h.
func NewReplayCache(ttl time.Duration) *ReplayCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ReplayCache{TTL: ttl, Now: time.Now, entries: make(map[string]*storedResponse)}
}

// begin claims key. It returns the stored response when one exists, or
// inFlight when another request holds the claim.
func (rc *ReplayCache) begin(key string) (hit *storedResponse, inFlight bool) {
	now := rc.Now()
	rc.mu.Lock()
	defer rc.mu.Unlock()

	for k, e := range rc.entries {
		if !e.pending && now.Sub(e.storedAt) >= rc.TTL {
			delete(rc.entries, k)
		}
	}
	if e, ok := rc.entries[key]; ok {
		if e.pending {
			return nil, true
		}
		cp := *e
		return &cp, false
	}
	rc.entries[key] = &storedResponse{pending: true}
	return nil, false
}

// complete stores the response for key, or releases the claim when resp is nil.
func (rc *ReplayCache) complete(key string, resp *storedResponse) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if resp == nil {
		delete(rc.entries, key)
		return
	}
	resp.storedAt = rc.Now()
	rc.entries[key] = resp
}

// Len reports the number of tracked keys.
func (rc *ReplayCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries)
}

// IdempotencyOptions configures header validation.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Defaults to ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// capturingWriter tees the response body so it can be stored.
type capturingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency returns middleware replaying completed responses from cache.
func Idempotency(cache *ReplayCache, opts IdempotencyOptions) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "bad_idempotency_key",
				"message":    "Некорректный Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		scoped := c.Request.Method + " " + c.Request.URL.Path + " " + key
		hit, inFlight := cache.begin(scoped)
		switch {
		case inFlight:
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "idempotency_in_progress",
				"message":    "Запрос с этим ключом ещё выполняется",
			})
			return
		case hit != nil:
			c.Set(ctxKeyIdemReplay, true)
			c.Header(HeaderIdempotentReplay, "true")
			c.Data(hit.status, hit.contentType, hit.body)
			c.Abort()
			return
		}

		cw := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		defer func() {
			if rec := recover(); rec != nil {
				cache.complete(scoped, nil)
				panic(rec)
			}
		}()

		c.Next()

		status := cw.Status()
		if status < 200 || status >= 300 {
			cache.complete(scoped, nil)
			return
		}
		cache.complete(scoped, &storedResponse{
			status:      status,
			contentType: cw.Header().Get("Content-Type"),
			body:        bytes.Clone(cw.buf.Bytes()),
		})
	}
}
