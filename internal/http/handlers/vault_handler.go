// Vault and request-history HTTP handlers.
//
// This file exposes REST endpoints for the TTL-bound key/value vault and the
// append-only request execution log:
//   - PUT    /vault/{key}       (store or replace)
//   - GET    /vault             (list live items)
//   - GET    /vault/{key}       (fetch one)
//   - DELETE /vault/{key}       (remove)
//   - GET    /history/requests  (recent executions, newest first)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suite-runner/internal/utils"
)

// PutVaultItemRequest is the JSON payload for storing a vault value.
type PutVaultItemRequest struct {
	Value string `json:"value" binding:"required"`
}

// PutVaultItem stores value under the path key, replacing any existing item
// and refreshing its TTL.
func (h *Handlers) PutVaultItem(c *gin.Context) {
	var req PutVaultItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value is required")
		return
	}
	item, err := h.vaultSvc.Put(c.Request.Context(), c.Param("key"), req.Value)
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusOK, item)
}

// GetVaultItem fetches one live vault item by key.
func (h *Handlers) GetVaultItem(c *gin.Context) {
	item, err := h.vaultSvc.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, item)
}

// ListVaultItems returns every live vault item.
func (h *Handlers) ListVaultItems(c *gin.Context) {
	items, err := h.vaultSvc.List(c.Request.Context())
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, items)
}

// DeleteVaultItem removes one vault item by key.
func (h *Handlers) DeleteVaultItem(c *gin.Context) {
	if err := h.vaultSvc.Delete(c.Request.Context(), c.Param("key")); err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// RequestHistory returns the most recent request executions, newest first.
// The limit query param caps the result; the service applies a default.
func (h *Handlers) RequestHistory(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	entries, err := h.historySvc.List(c.Request.Context(), limit)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, entries)
}
