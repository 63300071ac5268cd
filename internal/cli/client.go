package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// View models mirroring the server's JSON responses. They are kept local so
// the CLI only depends on the wire contract, not on server internals.

type suiteView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	BaseOrigin  string         `json:"base_origin"`
	Archived    bool           `json:"archived"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Endpoints   []endpointView `json:"endpoints,omitempty"`
}

type endpointView struct {
	ID           string     `json:"id"`
	SuiteID      string     `json:"suite_id"`
	Position     int        `json:"position"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	RequestLine  string     `json:"request_line"`
	Status       string     `json:"status"`
	Result       *string    `json:"result,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	ExecutedAt   *time.Time `json:"executed_at,omitempty"`
}

type vaultItemView struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type historyEntryView struct {
	RequestLine string    `json:"request_line"`
	Succeeded   bool      `json:"succeeded"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type paginationView struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

type suiteHistoryView struct {
	Suites     []suiteView    `json:"suites"`
	Pagination paginationView `json:"pagination"`
}

type batchStatusView struct {
	SuiteID string `json:"suite_id"`
	Running bool   `json:"running"`
}

type apiError struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// client is a minimal JSON client for the suite-runner API.
type client struct {
	base string
	hc   *http.Client
}

func newClient(server string) *client {
	return &client{
		base: strings.TrimRight(server, "/") + "/api/v1",
		hc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends a JSON request and decodes the response into out (when non-nil).
// Non-2xx responses are turned into an error carrying the server's stable
// error code when one is present.
func (c *client) do(method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, c.base+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach server at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var e apiError
		if json.Unmarshal(raw, &e) == nil && e.Message != "" {
			return fmt.Errorf("%s (%s)", e.Message, e.Code)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *client) get(path string, out any) error { return c.do(http.MethodGet, path, nil, out) }

func (c *client) del(path string) error { return c.do(http.MethodDelete, path, nil, nil) }

func (c *client) post(path string, body, out any) error {
	return c.do(http.MethodPost, path, body, out)
}

func (c *client) put(path string, body, out any) error {
	return c.do(http.MethodPut, path, body, out)
}

func escape(s string) string { return url.PathEscape(s) }
