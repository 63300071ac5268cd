// Package validate provides pure input validators with fixed limits for
// request-line text, URLs, and JSON payloads. Validators never leak raw
// parser errors: every failure is reported as a stable reason code plus a
// human-readable message.
package validate

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Fixed limits for user-supplied inputs.
const (
	MaxRequestLineLen = 10_000    // characters
	MaxURLLen         = 2_048     // characters
	MaxHeadersBytes   = 8_192     // bytes
	MaxBodyBytes      = 1_048_576 // bytes
)

// Reason is a stable, machine-readable code describing why validation failed.
type Reason string

const (
	ReasonRequired         Reason = "required"
	ReasonTooLong          Reason = "too_long"
	ReasonEmpty            Reason = "empty"
	ReasonInvalidFormat    Reason = "invalid_format"
	ReasonDisallowedScheme Reason = "disallowed_scheme"
)

// Result is the outcome of a validation check.
type Result struct {
	Valid   bool
	Reason  Reason // empty when Valid
	Message string // human-readable; empty when Valid
}

func valid() Result { return Result{Valid: true} }

func invalid(reason Reason, msg string) Result {
	return Result{Reason: reason, Message: msg}
}

// RequestLineLength checks that text is present, within the fixed length
// limit, and not whitespace-only.
func RequestLineLength(text string) Result {
	if text == "" {
		return invalid(ReasonRequired, "request line is required")
	}
	if len(text) > MaxRequestLineLen {
		return invalid(ReasonTooLong, fmt.Sprintf("request line exceeds %d characters", MaxRequestLineLen))
	}
	if strings.TrimSpace(text) == "" {
		return invalid(ReasonEmpty, "request line is empty")
	}
	return valid()
}

// URL checks that raw is present, within the length limit, parseable, and
// uses the http or https scheme.
func URL(raw string) Result {
	if raw == "" {
		return invalid(ReasonRequired, "URL is required")
	}
	if len(raw) > MaxURLLen {
		return invalid(ReasonTooLong, fmt.Sprintf("URL exceeds %d characters", MaxURLLen))
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return invalid(ReasonInvalidFormat, "URL is not a valid absolute URL")
	}
	// The scheme verdict comes before any shape checks: a parseable URL with
	// a scheme outside the allowlist is disallowed, not malformed.
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return invalid(ReasonDisallowedScheme, "URL scheme must be http or https")
	}
	if u.Host == "" {
		return invalid(ReasonInvalidFormat, "URL is not a valid absolute URL")
	}
	return valid()
}

// JSON checks that text is present and parses as JSON. The size limit is the
// caller's concern (headers vs. body carry different caps); use
// JSONWithLimit to enforce one.
func JSON(text string) Result {
	if text == "" {
		return invalid(ReasonRequired, "JSON payload is required")
	}
	if !json.Valid([]byte(text)) {
		return invalid(ReasonInvalidFormat, "payload is not valid JSON")
	}
	return valid()
}

// JSONWithLimit checks text like JSON and additionally rejects payloads over
// maxBytes with TooLong.
func JSONWithLimit(text string, maxBytes int) Result {
	if text == "" {
		return invalid(ReasonRequired, "JSON payload is required")
	}
	if len(text) > maxBytes {
		return invalid(ReasonTooLong, fmt.Sprintf("payload exceeds %d bytes", maxBytes))
	}
	if !json.Valid([]byte(text)) {
		return invalid(ReasonInvalidFormat, "payload is not valid JSON")
	}
	return valid()
}
