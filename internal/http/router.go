// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-suite-runner/internal/config"
	"github.com/tbourn/go-suite-runner/internal/domain"
	"github.com/tbourn/go-suite-runner/internal/execapi"
	"github.com/tbourn/go-suite-runner/internal/http/handlers"
	"github.com/tbourn/go-suite-runner/internal/http/middleware"
	"github.com/tbourn/go-suite-runner/internal/ratelimit"
	"github.com/tbourn/go-suite-runner/internal/repo"
	"github.com/tbourn/go-suite-runner/internal/services"
)

// suiteRepoShim adapts the repository free functions to the services.SuiteRepo
// interface expected by the SuiteService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type suiteRepoShim struct{}

func (suiteRepoShim) CreateSuite(ctx context.Context, db *gorm.DB, title, description string, ttl time.Duration) (*domain.Suite, error) {
	return repo.CreateSuite(ctx, db, title, description, ttl)
}

func (suiteRepoShim) GetSuite(ctx context.Context, db *gorm.DB, id string) (*domain.Suite, error) {
	return repo.GetSuite(ctx, db, id)
}

func (suiteRepoShim) CurrentSuite(ctx context.Context, db *gorm.DB) (*domain.Suite, error) {
	return repo.CurrentSuite(ctx, db)
}

func (suiteRepoShim) CountArchived(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountArchived(ctx, db)
}

func (suiteRepoShim) ListArchivedPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Suite, error) {
	return repo.ListArchivedPage(ctx, db, offset, limit)
}

func (suiteRepoShim) SetArchived(ctx context.Context, db *gorm.DB, id string, archived bool) error {
	return repo.SetArchived(ctx, db, id, archived)
}

func (suiteRepoShim) SetBaseOrigin(ctx context.Context, db *gorm.DB, id, origin string) error {
	return repo.SetBaseOrigin(ctx, db, id, origin)
}

func (suiteRepoShim) TouchSuite(ctx context.Context, db *gorm.DB, id string) error {
	return repo.TouchSuite(ctx, db, id)
}

func (suiteRepoShim) DeleteSuite(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteSuite(ctx, db, id)
}

func (suiteRepoShim) AppendEndpoint(ctx context.Context, db *gorm.DB, suiteID string, draft repo.EndpointDraft) (*domain.Endpoint, error) {
	return repo.AppendEndpoint(ctx, db, suiteID, draft)
}

func (suiteRepoShim) UpdateEndpointMeta(ctx context.Context, db *gorm.DB, suiteID, id string, patch repo.EndpointPatch) error {
	return repo.UpdateEndpointMeta(ctx, db, suiteID, id, patch)
}

func (suiteRepoShim) RemoveEndpoint(ctx context.Context, db *gorm.DB, suiteID, id string) error {
	return repo.RemoveEndpoint(ctx, db, suiteID, id)
}

func (suiteRepoShim) SweepAll(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	return repo.SweepAll(ctx, db, now)
}

// execStoreShim adapts the repository free functions to the services.ExecStore
// interface expected by the ExecService.
type execStoreShim struct{}

func (execStoreShim) GetEndpoint(ctx context.Context, db *gorm.DB, suiteID, id string) (*domain.Endpoint, error) {
	return repo.GetEndpoint(ctx, db, suiteID, id)
}

func (execStoreShim) ListEndpoints(ctx context.Context, db *gorm.DB, suiteID string) ([]domain.Endpoint, error) {
	return repo.ListEndpoints(ctx, db, suiteID)
}

func (execStoreShim) MarkEndpointRunning(ctx context.Context, db *gorm.DB, suiteID, id string) error {
	return repo.MarkEndpointRunning(ctx, db, suiteID, id)
}

func (execStoreShim) MarkEndpointCompleted(ctx context.Context, db *gorm.DB, suiteID, id, resultJSON string, executedAt time.Time) error {
	return repo.MarkEndpointCompleted(ctx, db, suiteID, id, resultJSON, executedAt)
}

func (execStoreShim) MarkEndpointFailed(ctx context.Context, db *gorm.DB, suiteID, id, message string, executedAt time.Time) error {
	return repo.MarkEndpointFailed(ctx, db, suiteID, id, message, executedAt)
}

func (execStoreShim) ResetEndpoints(ctx context.Context, db *gorm.DB, suiteID string) error {
	return repo.ResetEndpoints(ctx, db, suiteID)
}

func (execStoreShim) ResetRunningEndpoints(ctx context.Context, db *gorm.DB, suiteID string) (int64, error) {
	return repo.ResetRunningEndpoints(ctx, db, suiteID)
}

func (execStoreShim) TouchSuite(ctx context.Context, db *gorm.DB, id string) error {
	return repo.TouchSuite(ctx, db, id)
}

func (execStoreShim) AppendRequestHistory(ctx context.Context, db *gorm.DB, requestLine string, succeeded bool, duration, ttl time.Duration) (*domain.RequestHistoryEntry, error) {
	return repo.AppendRequestHistory(ctx, db, requestLine, succeeded, duration, ttl)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, health and metrics endpoints, and then mounts the
// versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Response compression (skip the metrics scrape)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/client
	suiteSvc := services.NewSuiteService(db, suiteRepoShim{})
	suiteSvc.TTL = cfg.SuiteTTL

	execClient := execapi.New(cfg.Exec.BaseURL, cfg.Exec.Timeout)
	execSvc := services.NewExecService(db, execStoreShim{}, execClient, ratelimit.New())
	execSvc.Delay = cfg.Exec.InterCallDelay
	execSvc.HistoryTTL = cfg.HistoryTTL

	vaultSvc := services.NewVaultService(db)
	vaultSvc.TTL = cfg.VaultTTL
	historySvc := services.NewHistoryService(db)

	h := handlers.New(suiteSvc, execSvc, vaultSvc, historySvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Suites
		api.POST("/suites", h.CreateSuite)
		api.GET("/suites/current", h.CurrentSuite)
		api.POST("/suites/current/archive", h.ArchiveCurrent)
		api.POST("/suites/current/endpoints", h.AttachToCurrent)
		api.GET("/suites/:id", h.GetSuite)

		// Endpoints
		api.POST("/suites/:id/endpoints", h.AttachEndpoint)
		api.PUT("/suites/:id/endpoints/:epID", h.UpdateEndpoint)
		api.DELETE("/suites/:id/endpoints/:epID", h.RemoveEndpoint)

		// Execution
		api.POST("/suites/:id/endpoints/:epID/execute", h.ExecuteEndpoint)
		api.POST("/suites/:id/execute", h.ExecuteSuite)
		api.POST("/suites/:id/execute/stop", h.StopSuite)

		// Suite history
		api.GET("/history/suites", h.SuiteHistory)
		api.POST("/history/suites/:id/load", h.LoadSuite)
		api.DELETE("/history/suites/:id", h.DeleteSuite)

		// Request history
		api.GET("/history/requests", h.RequestHistory)

		// Vault
		api.GET("/vault", h.ListVaultItems)
		api.PUT("/vault/:key", h.PutVaultItem)
		api.GET("/vault/:key", h.GetVaultItem)
		api.DELETE("/vault/:key", h.DeleteVaultItem)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
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
