package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-suite-runner/internal/domain"
	"github.com/tbourn/go-suite-runner/internal/services"
)

func newVaultRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/vault/:key", h.PutVaultItem)
	r.GET("/vault", h.ListVaultItems)
	r.GET("/vault/:key", h.GetVaultItem)
	r.DELETE("/vault/:key", h.DeleteVaultItem)
	r.GET("/history/requests", h.RequestHistory)
	return r
}

func TestPutVaultItem_OK(t *testing.T) {
	h := New(stubSuiteSvc{}, stubExecSvc{}, stubVaultSvc{}, stubHistorySvc{})
	r := newVaultRouter(h)

	w := doJSON(t, r, http.MethodPut, "/vault/base_url", gin.H{"value": "https://a.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var item domain.VaultItem
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil || item.Key != "base_url" {
		t.Fatalf("body: %v / %+v", err, item)
	}
}

func TestPutVaultItem_MissingValue(t *testing.T) {
	h := New(stubSuiteSvc{}, stubExecSvc{}, stubVaultSvc{}, stubHistorySvc{})
	r := newVaultRouter(h)

	if w := doJSON(t, r, http.MethodPut, "/vault/base_url", gin.H{}); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestGetVaultItem_NotFound(t *testing.T) {
	h := New(stubSuiteSvc{}, stubExecSvc{}, stubVaultSvc{get: func(context.Context, string) (*domain.VaultItem, error) {
		return nil, services.ErrVaultItemNotFound
	}}, stubHistorySvc{})
	r := newVaultRouter(h)

	w := doJSON(t, r, http.MethodGet, "/vault/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestListVaultItems_OK(t *testing.T) {
	h := New(stubSuiteSvc{}, stubExecSvc{}, stubVaultSvc{list: func(context.Context) ([]domain.VaultItem, error) {
		return []domain.VaultItem{{Key: "a"}, {Key: "b"}}, nil
	}}, stubHistorySvc{})
	r := newVaultRouter(h)

	w := doJSON(t, r, http.MethodGet, "/vault", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var items []domain.VaultItem
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil || len(items) != 2 {
		t.Fatalf("body: %v / %d items", err, len(items))
	}
}

func TestDeleteVaultItem_NoContent(t *testing.T) {
	h := New(stubSuiteSvc{}, stubExecSvc{}, stubVaultSvc{}, stubHistorySvc{})
	r := newVaultRouter(h)

	if w := doJSON(t, r, http.MethodDelete, "/vault/base_url", nil); w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestRequestHistory_LimitForwarded(t *testing.T) {
	h := New(stubSuiteSvc{}, stubExecSvc{}, stubVaultSvc{}, stubHistorySvc{list: func(_ context.Context, limit int) ([]domain.RequestHistoryEntry, error) {
		if limit != 5 {
			t.Fatalf("limit = %d, want 5", limit)
		}
		return []domain.RequestHistoryEntry{{RequestLine: "HTTP GET | URL https://a.com", Succeeded: true, CreatedAt: time.Now()}}, nil
	}})
	r := newVaultRouter(h)

	w := doJSON(t, r, http.MethodGet, "/history/requests?limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var entries []domain.RequestHistoryEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil || len(entries) != 1 {
		t.Fatalf("body: %v / %d", err, len(entries))
	}
}
