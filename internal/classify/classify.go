// Package classify maps raw execution failures onto safe, user-presentable
// messages. Raw backend text is only ever surfaced after sanitization, and
// anything that smells like credentials is replaced wholesale with a generic
// phrase rather than echoed back.
package classify

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-suite-runner/internal/sanitize"
)

// Failure is the tagged union of raw failure shapes the engine can observe.
// Exactly one concrete type matches per failure; Classify switches
// exhaustively over them.
type Failure interface{ isFailure() }

// HTTPFailure is a remote response with a non-success status, optionally
// carrying a decoded JSON body.
type HTTPFailure struct {
	Status int
	Body   map[string]any
}

// MessageFailure wraps an error value whose text may leak internals.
type MessageFailure struct {
	Err error
}

// StringFailure is a bare string failure, e.g. a rejected promise-style
// payload relayed by the remote API.
type StringFailure struct {
	Text string
}

func (HTTPFailure) isFailure()    {}
func (MessageFailure) isFailure() {}
func (StringFailure) isFailure()  {}

// Fixed user-facing phrases. None of them embed caller-controlled text.
const (
	MsgAuth       = "authentication error, check your credentials"
	MsgTimeout    = "the request timed out, try again"
	MsgNetwork    = "a network error occurred, check your connection"
	MsgUnexpected = "an unexpected error occurred"
)

// statusPhrases maps well-known HTTP statuses to fixed phrases.
var statusPhrases = map[int]string{
	400: "invalid request format",
	401: "authentication required",
	403: "access denied",
	404: "endpoint not found",
	429: "too many requests, wait and retry",
	500: "server error, try again later",
	502: "bad gateway, the upstream service is unavailable",
	503: "service unavailable, try again later",
	504: "gateway timeout, the upstream service did not respond",
}

// secretMarkers flag message text that must never be echoed back.
var secretMarkers = []string{"password", "token", "key", "secret", "api_key"}

// Classify reduces a raw failure to one sanitized, non-sensitive string.
//
// HTTP failures prefer a backend-supplied message/error/detail field
// (sanitized), then a fixed per-status phrase, then a generic status line.
// Message failures are screened for secret, timeout, and network markers
// before their text is surfaced. Nil input yields the generic phrase.
func Classify(f Failure) string {
	switch t := f.(type) {
	case HTTPFailure:
		return classifyHTTP(t)
	case MessageFailure:
		if t.Err == nil {
			return MsgUnexpected
		}
		return classifyText(t.Err.Error())
	case StringFailure:
		if strings.TrimSpace(t.Text) == "" {
			return MsgUnexpected
		}
		return sanitize.Sanitize(t.Text)
	}
	return MsgUnexpected
}

func classifyHTTP(f HTTPFailure) string {
	for _, field := range []string{"message", "error", "detail"} {
		if v, ok := f.Body[field]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return sanitize.Sanitize(s)
			}
		}
	}
	if phrase, ok := statusPhrases[f.Status]; ok {
		return phrase
	}
	return fmt.Sprintf("request failed with status code %d", f.Status)
}

func classifyText(msg string) string {
	lower := strings.ToLower(msg)
	for _, marker := range secretMarkers {
		if strings.Contains(lower, marker) {
			// Never echo text that matched a secret marker.
			return MsgAuth
		}
	}
	if strings.Contains(lower, "timeout") {
		return MsgTimeout
	}
	if strings.Contains(lower, "network") || strings.Contains(lower, "connection") {
		return MsgNetwork
	}
	return sanitize.Sanitize(msg)
}
