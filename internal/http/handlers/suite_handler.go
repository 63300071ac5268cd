// Suite HTTP handlers.
//
// This file exposes REST endpoints for suite resources:
//   - POST   /suites                         (create)
//   - GET    /suites/current                 (active suite)
//   - GET    /suites/{id}                    (fetch one)
//   - POST   /suites/{id}/endpoints          (attach endpoint)
//   - POST   /suites/current/endpoints       (attach, creating a suite when needed)
//   - PUT    /suites/{id}/endpoints/{epID}   (update endpoint metadata)
//   - DELETE /suites/{id}/endpoints/{epID}   (remove endpoint)
//   - POST   /suites/current/archive         (move active suite to history)
//   - GET    /history/suites                 (archived suites, paginated)
//   - POST   /history/suites/{id}/load       (restore an archived suite)
//   - DELETE /history/suites/{id}            (purge an archived suite)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-suite-runner/internal/domain"
	"github.com/tbourn/go-suite-runner/internal/services"
	"github.com/tbourn/go-suite-runner/internal/utils"
)

//
// Service contracts (context-aware)
//

// SuiteService defines suite lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SuiteService interface {
	// Create starts a new suite with an optional title and description.
	Create(ctx context.Context, title, description string) (*domain.Suite, error)
	// Current returns the active suite.
	Current(ctx context.Context) (*domain.Suite, error)
	// Get returns one suite by id with its endpoints.
	Get(ctx context.Context, id string) (*domain.Suite, error)
	// AttachEndpoint appends a pending endpoint, enforcing the suite origin.
	AttachEndpoint(ctx context.Context, suiteID string, draft services.EndpointDraft) (*domain.Endpoint, error)
	// AttachToCurrent attaches to the active suite, creating one when absent.
	AttachToCurrent(ctx context.Context, draft services.EndpointDraft) (*domain.Endpoint, error)
	// UpdateEndpoint merges optional metadata changes into an endpoint.
	UpdateEndpoint(ctx context.Context, suiteID, id string, patch services.EndpointPatch) error
	// RemoveEndpoint deletes an endpoint.
	RemoveEndpoint(ctx context.Context, suiteID, id string) error
	// ArchiveCurrent moves the active suite into history.
	ArchiveCurrent(ctx context.Context) (*domain.Suite, error)
	// LoadFromHistory makes an archived suite current again.
	LoadFromHistory(ctx context.Context, id string) (*domain.Suite, error)
	// DeleteFromHistory permanently removes a suite.
	DeleteFromHistory(ctx context.Context, id string) error
	// History returns a page of archived suites and the total count.
	History(ctx context.Context, page, pageSize int) ([]domain.Suite, int64, error)
}

// ExecOps defines execution operations consumed by HTTP handlers.
type ExecOps interface {
	// ExecuteOne runs a single endpoint and returns its final state.
	ExecuteOne(ctx context.Context, suiteID, endpointID string) (*domain.Endpoint, error)
	// ExecuteAll runs every endpoint of a suite in sequence.
	ExecuteAll(ctx context.Context, suiteID string) error
	// StopAll halts a running batch.
	StopAll(ctx context.Context, suiteID string) error
	// BatchRunning reports whether a batch is active for the suite.
	BatchRunning(suiteID string) bool
}

// VaultOps defines key/value vault operations consumed by HTTP handlers.
type VaultOps interface {
	Put(ctx context.Context, key, value string) (*domain.VaultItem, error)
	Get(ctx context.Context, key string) (*domain.VaultItem, error)
	List(ctx context.Context) ([]domain.VaultItem, error)
	Delete(ctx context.Context, key string) error
}

// HistoryOps reads the request execution log.
type HistoryOps interface {
	List(ctx context.Context, limit int) ([]domain.RequestHistoryEntry, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for suites, execution, the vault, and the
// request history log. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	suiteSvc   SuiteService
	execSvc    ExecOps
	vaultSvc   VaultOps
	historySvc HistoryOps
}

// New constructs and returns a Handlers instance bound to the given services.
func New(suiteSvc SuiteService, execSvc ExecOps, vaultSvc VaultOps, historySvc HistoryOps) *Handlers {
	return &Handlers{suiteSvc: suiteSvc, execSvc: execSvc, vaultSvc: vaultSvc, historySvc: historySvc}
}

//
// DTOs
//

// CreateSuiteRequest is the JSON payload for creating a suite.
type CreateSuiteRequest struct {
	// Title optionally names the suite; a default is used when empty.
	Title string `json:"title"`
	// Description optionally documents the suite.
	Description string `json:"description"`
}

// AttachEndpointRequest is the JSON payload for attaching an endpoint.
type AttachEndpointRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// RequestLine is the pipe-delimited request description; it must carry
	// a URL directive matching the suite's base origin.
	RequestLine string `json:"requestLine" binding:"required"`
}

// UpdateEndpointRequest carries optional endpoint metadata changes. Absent
// fields are left untouched.
type UpdateEndpointRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	RequestLine *string `json:"requestLine"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// SuiteHistoryResponse wraps a page of archived suites and pagination
// information.
type SuiteHistoryResponse struct {
	Suites     []domain.Suite `json:"suites"`
	Pagination Pagination     `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// failService maps well-known service errors onto stable envelopes. Unknown
// errors become 500s with the given fallback code.
func failService(c *gin.Context, err error, fallbackCode string) {
	var verr *services.ValidationError
	var mismatch *services.OriginMismatchError
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, ErrCodeValidation, verr.Message)
	case errors.Is(err, services.ErrOriginExtraction):
		fail(c, http.StatusBadRequest, ErrCodeValidation, "request line must contain a valid URL directive")
	case errors.As(err, &mismatch):
		fail(c, http.StatusConflict, ErrCodeOriginMismatch, mismatch.Error())
	case errors.Is(err, services.ErrSuiteNotFound), errors.Is(err, services.ErrNoCurrentSuite):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "suite not found")
	case errors.Is(err, services.ErrEndpointNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "endpoint not found")
	case errors.Is(err, services.ErrVaultItemNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "vault item not found")
	case errors.Is(err, services.ErrBatchRunning):
		fail(c, http.StatusConflict, ErrCodeBatchRunning, "a batch is already running for this suite")
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}

//
// Handlers
//

// CreateSuite creates a new suite and returns the resource.
func (h *Handlers) CreateSuite(c *gin.Context) {
	var req CreateSuiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	suite, err := h.suiteSvc.Create(c.Request.Context(), strings.TrimSpace(req.Title), req.Description)
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, suite)
}

// CurrentSuite returns the active suite with its endpoints.
func (h *Handlers) CurrentSuite(c *gin.Context) {
	suite, err := h.suiteSvc.Current(c.Request.Context())
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, suite)
}

// GetSuite returns one suite by id.
func (h *Handlers) GetSuite(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "suite id must be a UUID")
		return
	}
	suite, err := h.suiteSvc.Get(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, suite)
}

// AttachEndpoint validates the payload and appends a pending endpoint to the
// suite, enforcing the single-origin rule.
func (h *Handlers) AttachEndpoint(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "suite id must be a UUID")
		return
	}
	var req AttachEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "requestLine is required")
		return
	}

	ep, err := h.suiteSvc.AttachEndpoint(c.Request.Context(), id, services.EndpointDraft{
		Title:       req.Title,
		Description: req.Description,
		RequestLine: req.RequestLine,
	})
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, ep)
}

// AttachToCurrent appends a pending endpoint to the active suite, creating a
// fresh suite implicitly when none is active.
func (h *Handlers) AttachToCurrent(c *gin.Context) {
	var req AttachEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "requestLine is required")
		return
	}

	ep, err := h.suiteSvc.AttachToCurrent(c.Request.Context(), services.EndpointDraft{
		Title:       req.Title,
		Description: req.Description,
		RequestLine: req.RequestLine,
	})
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, ep)
}

// UpdateEndpoint merges optional metadata changes into an endpoint. Unknown
// endpoint ids are a silent no-op per the store contract.
func (h *Handlers) UpdateEndpoint(c *gin.Context) {
	suiteID, epID := c.Param("id"), c.Param("epID")
	if _, err := uuid.Parse(suiteID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "suite id must be a UUID")
		return
	}
	var req UpdateEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	err := h.suiteSvc.UpdateEndpoint(c.Request.Context(), suiteID, epID, services.EndpointPatch{
		Title:       req.Title,
		Description: req.Description,
		RequestLine: req.RequestLine,
	})
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// RemoveEndpoint deletes one endpoint from a suite.
func (h *Handlers) RemoveEndpoint(c *gin.Context) {
	suiteID, epID := c.Param("id"), c.Param("epID")
	if _, err := uuid.Parse(suiteID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "suite id must be a UUID")
		return
	}
	if err := h.suiteSvc.RemoveEndpoint(c.Request.Context(), suiteID, epID); err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// ArchiveCurrent moves the active suite into the history list.
func (h *Handlers) ArchiveCurrent(c *gin.Context) {
	suite, err := h.suiteSvc.ArchiveCurrent(c.Request.Context())
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, suite)
}

// SuiteHistory returns a page of archived suites, newest first.
func (h *Handlers) SuiteHistory(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.suiteSvc.History(c.Request.Context(), page, pageSize)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, SuiteHistoryResponse{
		Suites: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// LoadSuite restores an archived suite as the current one.
func (h *Handlers) LoadSuite(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "suite id must be a UUID")
		return
	}
	suite, err := h.suiteSvc.LoadFromHistory(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, suite)
}

// DeleteSuite permanently removes an archived suite and its endpoints.
func (h *Handlers) DeleteSuite(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "suite id must be a UUID")
		return
	}
	if err := h.suiteSvc.DeleteFromHistory(c.Request.Context(), id); err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}
