// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, a structured HTTP logger that scrubs
// sensitive values from request metadata before emitting logs. Request lines
// managed by this API routinely embed credentials (tokens, api keys, vault
// values), and clients sometimes echo fragments of them into query strings,
// so the logger treats query and header values as hostile by default.
//
// Behavior:
//   - Never logs request or response bodies
//   - Masks credential-bearing directive pairs (password=, token=, api_key=...)
//   - Redacts emails, phone numbers, and UUID-like identifiers
//   - Fully masks sensitive headers (Authorization, Cookie, Set-Cookie,
//     X-Api-Key, plus any custom names)
//   - Attaches a request-scoped zerolog.Logger (key "logger", see LoggerFrom)
//     carrying the suite, endpoint, and vault key route parameters
//   - Emits structured JSON via zerolog
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders: []string{"X-Vault-Token"},
//	}))
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders lists extra HTTP header names whose values are replaced with
// "[REDACTED]" wholesale. Matching is case-insensitive and merged with the
// built-in set ("Authorization", "Cookie", "Set-Cookie", "X-Api-Key").
type RedactOptions struct {
	MaskHeaders []string
}

// RedactingLogger returns a Gin middleware that logs each request with
// method, route path, scrubbed query string, status, response size, latency
// and scrubbed headers. Severity is INFO, WARN for 4xx, ERROR for 5xx.
//
// Scrub order matters: credential pairs go first so a token value never
// survives to the looser patterns, then UUIDs before phone numbers so the
// phone pattern cannot match the digit segments of a UUID.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	secretRE := regexp.MustCompile(`(?i)\b(password|secret|token|api_key|key)=("[^"]*"|[^&\s]+)`)
	uuidRE := regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE := regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits-only phone pattern. Examples matched: "+1 212-555-1212",
	// "212 555 1212", "(212) 555-1212".
	phoneRE := regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)

	scrub := func(s string) string {
		if s == "" {
			return s
		}
		out := secretRE.ReplaceAllString(s, "$1=[REDACTED:secret]")
		out = uuidRE.ReplaceAllString(out, "[REDACTED:id]")
		out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
		out = phoneRE.ReplaceAllString(out, "[REDACTED:phone]")
		return out
	}

	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
		"x-api-key":     {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := scrub(c.Request.URL.RawQuery)

		// Request-scoped logger for handlers and services. It carries the
		// suite, endpoint, and vault key route parameters so domain logs
		// name the resource being acted on.
		rid, _ := c.Get(requestIDKey)
		lc := log.With().
			Str("request_id", asString(rid)).
			Str("method", c.Request.Method).
			Str("path", path)
		scoped := routeScope(c, lc).Logger()
		c.Set("logger", &scoped)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = scrub(strings.Join(vv, ", "))
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		reqID := c.Writer.Header().Get("X-Request-ID")
		if reqID == "" {
			reqID = c.GetHeader("X-Request-ID")
		}

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}

		ev = ev.
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", latency).
			Interface("headers", safeHeaders)
		if id := c.Param("id"); id != "" {
			ev = ev.Str("suite_id", id)
		}
		if epID := c.Param("epID"); epID != "" {
			ev = ev.Str("endpoint_id", epID)
		}
		if key := c.Param("key"); key != "" {
			ev = ev.Str("vault_key", key)
		}
		ev.Msg("http_request")
	}
}
