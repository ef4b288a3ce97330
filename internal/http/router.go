// Package httpapi wires the Gin transport to the journal services, the
// middleware chain and the route handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, redacted access logs, panic
// recovery, metrics, CORS, security headers, idempotent replays, rate
// limiting and response compression.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/service-journal/internal/config"
	"github.com/tbourn/service-journal/internal/http/handlers"
	"github.com/tbourn/service-journal/internal/http/middleware"
	"github.com/tbourn/service-journal/internal/services"
)

// Deps carries what RegisterRoutes needs besides configuration.
type Deps struct {
	Journal *services.JournalService
	Logger  zerolog.Logger

	// Registerer receives the HTTP collectors and Gatherer backs /metrics.
	// Both nil selects a private registry, which tests rely on to avoid
	// duplicate registration.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// RegisterRoutes attaches all middleware and endpoints to r and mounts the
// journal API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: access log with the suggestion query redacted
//  4. Recovery: capture panics after logger
//  5. Body size limiter and gzip
//  6. Metrics
//  7. Idempotency replay (before the limiter so replays cost no tokens)
//  8. Rate limiter per client IP
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	reg, gatherer := deps.Registerer, deps.Gatherer
	if reg == nil || gatherer == nil {
		private := prometheus.NewRegistry()
		reg, gatherer = private, private
	}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger, middleware.NewRedactor(middleware.RedactOptions{
		MaskQuery: []string{"q"},
	})))
	r.Use(middleware.Recovery())
	r.Use(limitBody(cfg.MaxBodyBytes))

	apiBase := cfg.APIBasePath
	// Outside the replay cache so it stores uncompressed bodies. The xlsx
	// zip does not compress further.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{joinPath(apiBase, "/export/xlsx")})))

	r.Use(middleware.NewHTTPMetrics(reg).Handler())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.Use(middleware.Idempotency(middleware.NewReplayCache(cfg.IdempotencyTTL), middleware.IdempotencyOptions{MaxLen: 200}))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition", middleware.HeaderIdempotentReplay},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// ACAO: * even without an Origin header, for the local UI and health checks.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		NoStorePrefixes: []string{joinPath(apiBase, "/export")},
		EnablePolicy:    true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "Маршрут не найден")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "Метод не поддерживается")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	j := deps.Journal
	h := handlers.New(j, j, j, j)

	api := groupWithPrefix(r, apiBase)
	{
		// Orders
		api.POST("/orders", h.CreateOrder)
		api.GET("/orders", h.ListOrders)
		api.GET("/orders/all", h.ListAllOrders)
		api.GET("/orders/range", h.OrdersInRange)
		api.GET("/orders/:id", h.GetOrder)
		api.PATCH("/orders/:id", h.UpdateOrder)
		api.DELETE("/orders/:id", h.DeleteOrder)
		api.POST("/snapshots/:id/undo", h.UndoDelete)

		// Debts
		api.GET("/debts", h.ListDebts)
		api.POST("/debts/:id/close", h.CloseDebt)

		// Insights
		api.GET("/suggest/clients", h.SuggestClients)
		api.GET("/suggest/cars", h.SuggestCars)
		api.GET("/stats", h.Stats)

		// Transfer
		api.GET("/export/json", h.ExportJSON)
		api.GET("/export/json-ru", h.ExportLocalizedJSON)
		api.GET("/export/csv", h.ExportCSV)
		api.GET("/export/xlsx", h.ExportXLSX)
		api.GET("/export/pdf", h.ExportPrintable)
		api.POST("/import", h.Import)
		api.DELETE("/data", h.ClearData)
	}
}

// limitBody caps request bodies at maxBytes; reads beyond it fail with
// *http.MaxBytesError. A non-positive cap disables the limit.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath appends sub to a base path normalized by config.
func joinPath(base, sub string) string {
	if base == "" || base == "/" {
		return sub
	}
	return base + sub
}
