package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-suite-runner/internal/domain"
	"github.com/tbourn/go-suite-runner/internal/services"
)

func newExecRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/suites/:id/endpoints/:epID/execute", h.ExecuteEndpoint)
	r.POST("/suites/:id/execute", h.ExecuteSuite)
	r.POST("/suites/:id/execute/stop", h.StopSuite)
	return r
}

func TestExecuteEndpoint_ReturnsFinalState(t *testing.T) {
	msg := "service unavailable, try again later"
	h := New(stubSuiteSvc{}, stubExecSvc{execOne: func(_ context.Context, suiteID, id string) (*domain.Endpoint, error) {
		return &domain.Endpoint{ID: id, SuiteID: suiteID, Status: domain.StatusFailed, ErrorMessage: &msg}, nil
	}}, stubVaultSvc{}, stubHistorySvc{})
	r := newExecRouter(h)

	w := doJSON(t, r, http.MethodPost, "/suites/"+uuid.NewString()+"/endpoints/ep-1/execute", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var ep domain.Endpoint
	if err := json.Unmarshal(w.Body.Bytes(), &ep); err != nil {
		t.Fatalf("json: %v", err)
	}
	if ep.Status != domain.StatusFailed || ep.ErrorMessage == nil || *ep.ErrorMessage != msg {
		t.Fatalf("body: %+v", ep)
	}
}

func TestExecuteEndpoint_NotFound(t *testing.T) {
	h := New(stubSuiteSvc{}, stubExecSvc{execOne: func(context.Context, string, string) (*domain.Endpoint, error) {
		return nil, services.ErrEndpointNotFound
	}}, stubVaultSvc{}, stubHistorySvc{})
	r := newExecRouter(h)

	w := doJSON(t, r, http.MethodPost, "/suites/"+uuid.NewString()+"/endpoints/missing/execute", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestExecuteSuite_Accepted(t *testing.T) {
	var mu sync.Mutex
	var started string
	done := make(chan struct{})
	h := New(stubSuiteSvc{}, stubExecSvc{execAll: func(_ context.Context, suiteID string) error {
		mu.Lock()
		started = suiteID
		mu.Unlock()
		close(done)
		return nil
	}}, stubVaultSvc{}, stubHistorySvc{})
	r := newExecRouter(h)

	id := uuid.NewString()
	w := doJSON(t, r, http.MethodPost, "/suites/"+id+"/execute", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d", w.Code)
	}
	var resp BatchStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.SuiteID != id || !resp.Running {
		t.Fatalf("body: %v / %+v", err, resp)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("batch goroutine never started")
	}
	mu.Lock()
	defer mu.Unlock()
	if started != id {
		t.Fatalf("batch started for %q, want %q", started, id)
	}
}

func TestExecuteSuite_ConflictWhenRunning(t *testing.T) {
	h := New(stubSuiteSvc{}, stubExecSvc{running: true}, stubVaultSvc{}, stubHistorySvc{})
	r := newExecRouter(h)

	w := doJSON(t, r, http.MethodPost, "/suites/"+uuid.NewString()+"/execute", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeBatchRunning {
		t.Fatalf("body: %v / %+v", err, er)
	}
}

func TestStopSuite_Accepted(t *testing.T) {
	var stopped string
	h := New(stubSuiteSvc{}, stubExecSvc{stop: func(_ context.Context, suiteID string) error {
		stopped = suiteID
		return nil
	}}, stubVaultSvc{}, stubHistorySvc{})
	r := newExecRouter(h)

	id := uuid.NewString()
	w := doJSON(t, r, http.MethodPost, "/suites/"+id+"/execute/stop", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d", w.Code)
	}
	if stopped != id {
		t.Fatalf("stop forwarded %q, want %q", stopped, id)
	}
}

func TestExecRoutes_BadSuiteID(t *testing.T) {
	h := New(stubSuiteSvc{}, stubExecSvc{}, stubVaultSvc{}, stubHistorySvc{})
	r := newExecRouter(h)

	for _, path := range []string{
		"/suites/nope/endpoints/e/execute",
		"/suites/nope/execute",
		"/suites/nope/execute/stop",
	} {
		if w := doJSON(t, r, http.MethodPost, path, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", path, w.Code)
		}
	}
}
