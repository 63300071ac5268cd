// Execution HTTP handlers.
//
// This file exposes REST endpoints for running endpoints:
//   - POST /suites/{id}/endpoints/{epID}/execute  (run one, synchronous)
//   - POST /suites/{id}/execute                   (run all, asynchronous)
//   - POST /suites/{id}/execute/stop              (halt a running batch)
//
// Batch execution is long-running, so ExecuteAll detaches from the request:
// the handler answers 202 Accepted once the batch has been admitted and the
// loop keeps going on a background context. Progress lands on the endpoints
// themselves; clients poll the suite resource.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-suite-runner/internal/services"
)

// BatchStatusResponse reports the admission state of a batch run.
type BatchStatusResponse struct {
	SuiteID string `json:"suite_id"`
	Running bool   `json:"running"`
}

// ExecuteEndpoint runs a single endpoint to completion and returns its final
// state, including the stored result or classified error message.
func (h *Handlers) ExecuteEndpoint(c *gin.Context) {
	suiteID, epID := c.Param("id"), c.Param("epID")
	if _, err := uuid.Parse(suiteID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "suite id must be a UUID")
		return
	}

	ep, err := h.execSvc.ExecuteOne(c.Request.Context(), suiteID, epID)
	if err != nil {
		failService(c, err, ErrCodeExecuteFailed)
		return
	}
	ok(c, http.StatusOK, ep)
}

// ExecuteSuite starts a sequential batch run over every endpoint of the
// suite. A batch already in flight yields 409.
func (h *Handlers) ExecuteSuite(c *gin.Context) {
	suiteID := c.Param("id")
	if _, err := uuid.Parse(suiteID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "suite id must be a UUID")
		return
	}
	if h.execSvc.BatchRunning(suiteID) {
		failService(c, services.ErrBatchRunning, ErrCodeExecuteFailed)
		return
	}

	// The batch outlives the request; detach from its context.
	go func() {
		if err := h.execSvc.ExecuteAll(context.Background(), suiteID); err != nil {
			log.Warn().Err(err).Str("suite_id", suiteID).Msg("batch execution aborted")
		}
	}()

	ok(c, http.StatusAccepted, BatchStatusResponse{SuiteID: suiteID, Running: true})
}

// StopSuite halts the batch for a suite and returns running endpoints to
// pending. Stopping a suite with no batch is harmless.
func (h *Handlers) StopSuite(c *gin.Context) {
	suiteID := c.Param("id")
	if _, err := uuid.Parse(suiteID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "suite id must be a UUID")
		return
	}
	if err := h.execSvc.StopAll(c.Request.Context(), suiteID); err != nil {
		failService(c, err, ErrCodeExecuteFailed)
		return
	}
	ok(c, http.StatusAccepted, BatchStatusResponse{SuiteID: suiteID, Running: h.execSvc.BatchRunning(suiteID)})
}
