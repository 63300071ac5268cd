// Package execapi is the HTTP client for the remote execution API: a single
// endpoint that accepts a request line and performs the described HTTP call
// on the caller's behalf.
//
// The client treats the API as an opaque collaborator. Response payloads are
// decoded but not interpreted; sanitization and error classification happen
// upstream in the execution engine.
package execapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds one remote call end to end.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read, protecting
	// the process from a hostile or broken upstream.
	maxResponseBytes = 10 << 20
)

// StatusError reports a non-2xx response from the execution API, carrying
// the decoded body (when it was JSON) for the classifier.
type StatusError struct {
	Status int
	Body   map[string]any
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("execution api returned status %d", e.Status)
}

// Client calls the remote execution API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client for the API at baseURL. A non-positive timeout
// falls back to DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// executeRequest is the JSON body sent to the execution API.
type executeRequest struct {
	RequestLine string `json:"requestLine"`
}

// Execute POSTs the request line and returns the decoded response payload.
//
// Non-2xx statuses yield a *StatusError with the decoded body when one was
// present. Transport failures (DNS, refused connections, timeouts) surface
// as the underlying error for the classifier to inspect.
func (c *Client) Execute(ctx context.Context, requestLine string) (map[string]any, error) {
	payload, err := json.Marshal(executeRequest{RequestLine: requestLine})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	var body map[string]any
	if len(raw) > 0 {
		// Tolerate non-JSON bodies: status handling below still applies.
		_ = json.Unmarshal(raw, &body)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: body}
	}
	return body, nil
}
