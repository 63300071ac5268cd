package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func withCapturedLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf) // plain JSON lines
	return &buf
}

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	buf := withCapturedLogger(t)

	// Simulate upstream RequestID middleware that sets the response header
	r.Use(func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-resp")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Vault-Token"}}))

	// Route with params so c.FullPath() is non-empty
	r.GET("/suites/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// Raw query is redacted with regex (no parsing), so simple occurrences suffice
	q := "email=a.b+tag@example.com&phone=+1-555-123-4567&api_key=sk-live-12345"
	req := httptest.NewRequest(http.MethodGet, "/suites/123e4567-e89b-12d3-a456-426614174000?"+q, nil)
	// Built-in sensitive headers
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "sid=topsecret")
	req.Header.Set("X-Api-Key", "shhh")
	// Custom masked header
	req.Header.Set("X-Vault-Token", "vt-999")
	// Header with sensitive fragments that should be pattern-redacted, not fully masked
	req.Header.Set("X-Custom", "email a@b.com token=abc123 phone 555-123-4567")
	// Also set a request header request-id; the response header should still win
	req.Header.Set("X-Request-ID", "rid-req")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"info"`) {
		t.Fatalf("expected info log, got: %s", logs)
	}
	// path should be the route pattern
	if !strings.Contains(logs, `"path":"/suites/:id"`) {
		t.Fatalf("expected path to use c.FullPath, got: %s", logs)
	}
	// request id prefers response header
	if !strings.Contains(logs, `"request_id":"rid-resp"`) {
		t.Fatalf("expected request_id from response header, got: %s", logs)
	}
	// query redactions, including the credential pair
	if !strings.Contains(logs, `[REDACTED:email]`) || !strings.Contains(logs, `[REDACTED:phone]`) {
		t.Fatalf("expected query redactions, got: %s", logs)
	}
	if !strings.Contains(logs, `api_key=[REDACTED:secret]`) || strings.Contains(logs, "sk-live-12345") {
		t.Fatalf("expected api_key value scrubbed, got: %s", logs)
	}
	// header masking for built-ins and custom
	for _, h := range []string{"Authorization", "Cookie", "X-Api-Key", "X-Vault-Token"} {
		if !strings.Contains(logs, `"`+h+`":"[REDACTED]"`) {
			t.Fatalf("%s must be masked: %s", h, logs)
		}
	}
	// pattern redactions inside a non-masked header
	if !strings.Contains(logs, `"X-Custom":"email [REDACTED:email] token=[REDACTED:secret] phone [REDACTED:phone]"`) {
		t.Fatalf("expected redacted X-Custom header, got: %s", logs)
	}
}

func TestRedactingLogger_RouteScopeFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	buf := withCapturedLogger(t)

	r.Use(RedactingLogger(RedactOptions{}))
	r.PUT("/suites/:id/endpoints/:epID", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("endpoint_update")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPut, "/suites/s-1/endpoints/ep-2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	logs := buf.String()
	// The access log names the resource acted on, not just the route pattern.
	if !strings.Contains(logs, `"suite_id":"s-1"`) || !strings.Contains(logs, `"endpoint_id":"ep-2"`) {
		t.Fatalf("access log must carry route identifiers: %s", logs)
	}
	// Handler-side logs emitted through LoggerFrom inherit the same fields.
	var handlerLine string
	for _, line := range strings.Split(strings.TrimSpace(logs), "\n") {
		if strings.Contains(line, "endpoint_update") {
			handlerLine = line
		}
	}
	if handlerLine == "" {
		t.Fatalf("handler log missing: %s", logs)
	}
	if !strings.Contains(handlerLine, `"suite_id":"s-1"`) || !strings.Contains(handlerLine, `"endpoint_id":"ep-2"`) {
		t.Fatalf("handler log must carry route identifiers: %s", handlerLine)
	}
}

func TestRedactingLogger_WarnAndErrorLevels_RequestIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	buf := withCapturedLogger(t)

	// No response header X-Request-ID this time
	r.Use(RedactingLogger(RedactOptions{}))

	r.GET("/warn", func(c *gin.Context) { c.Status(http.StatusNotFound) })             // 404 -> warn
	r.GET("/error", func(c *gin.Context) { c.Status(http.StatusInternalServerError) }) // 500 -> error

	reqWarn := httptest.NewRequest(http.MethodGet, "/warn", nil)
	reqWarn.Header.Set("X-Request-ID", "rid-warn")
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, reqWarn)

	reqErr := httptest.NewRequest(http.MethodGet, "/error", nil)
	reqErr.Header.Set("X-Request-ID", "rid-err")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, reqErr)

	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"request_id":"rid-warn"`) {
		t.Fatalf("warn log not found or missing request_id fallback: %s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"request_id":"rid-err"`) {
		t.Fatalf("error log not found or missing request_id fallback: %s", logs)
	}
}
