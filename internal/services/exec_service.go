// Package services – ExecService
//
// This file implements the execution engine: it drives single and batch
// execution of endpoints through the remote execution API, gating every call
// on the sliding-window rate limiter, sanitizing successful payloads, and
// classifying failures into safe messages. All durable writes go through the
// store; the engine never touches rows directly.
//
// Batch execution is strictly sequential with a fixed pacing delay between
// calls. Stop is cooperative: a flag is checked between iterations, so a
// call already in flight completes and still writes its outcome.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/tbourn/go-suite-runner/internal/classify"
	"github.com/tbourn/go-suite-runner/internal/domain"
	"github.com/tbourn/go-suite-runner/internal/execapi"
	"github.com/tbourn/go-suite-runner/internal/observability"
	"github.com/tbourn/go-suite-runner/internal/ratelimit"
	"github.com/tbourn/go-suite-runner/internal/repo"
	"github.com/tbourn/go-suite-runner/internal/sanitize"
)

// DefaultInterCallDelay is the pause between consecutive calls of a batch.
const DefaultInterCallDelay = 500 * time.Millisecond

// DefaultHistoryTTL bounds how long request-history entries are kept.
const DefaultHistoryTTL = 48 * time.Hour

// ExecStore defines the persistence contract required by ExecService.
// It is the only path through which the engine mutates endpoint state.
type ExecStore interface {
	GetEndpoint(ctx context.Context, db *gorm.DB, suiteID, id string) (*domain.Endpoint, error)
	ListEndpoints(ctx context.Context, db *gorm.DB, suiteID string) ([]domain.Endpoint, error)
	MarkEndpointRunning(ctx context.Context, db *gorm.DB, suiteID, id string) error
	MarkEndpointCompleted(ctx context.Context, db *gorm.DB, suiteID, id, resultJSON string, executedAt time.Time) error
	MarkEndpointFailed(ctx context.Context, db *gorm.DB, suiteID, id, message string, executedAt time.Time) error
	ResetEndpoints(ctx context.Context, db *gorm.DB, suiteID string) error
	ResetRunningEndpoints(ctx context.Context, db *gorm.DB, suiteID string) (int64, error)
	TouchSuite(ctx context.Context, db *gorm.DB, id string) error
	AppendRequestHistory(ctx context.Context, db *gorm.DB, requestLine string, succeeded bool, duration, ttl time.Duration) (*domain.RequestHistoryEntry, error)
}

// Executor performs one remote call for a request line.
type Executor interface {
	Execute(ctx context.Context, requestLine string) (map[string]any, error)
}

// batchState tracks one in-flight batch; the stop flag is read between
// iterations only.
type batchState struct {
	mu      sync.Mutex
	stopped bool
}

func (b *batchState) stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
}

func (b *batchState) isStopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

// ExecService drives endpoint execution.
type ExecService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Store is the persistence contract for endpoint state.
	Store ExecStore
	// Client calls the remote execution API.
	Client Executor
	// Limiter gates every outbound call.
	Limiter *ratelimit.Limiter

	// Identifier keys the limiter windows; defaults to "local".
	Identifier string
	// Delay is the pause between consecutive batch calls.
	Delay time.Duration
	// HistoryTTL bounds the request-history records this engine appends.
	HistoryTTL time.Duration

	mu      sync.Mutex
	batches map[string]*batchState
}

// NewExecService constructs an ExecService with default pacing and history
// TTL. Limiter and Client are shared instances passed by reference.
func NewExecService(db *gorm.DB, store ExecStore, client Executor, limiter *ratelimit.Limiter) *ExecService {
	return &ExecService{
		DB:         db,
		Store:      store,
		Client:     client,
		Limiter:    limiter,
		Identifier: "local",
		Delay:      DefaultInterCallDelay,
		HistoryTTL: DefaultHistoryTTL,
		batches:    make(map[string]*batchState),
	}
}

// BatchRunning reports whether a batch is currently executing for suiteID.
func (s *ExecService) BatchRunning(suiteID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.batches[suiteID]
	return ok
}

// ExecuteOne runs a single endpoint through the lifecycle:
// running → limiter gate → remote call → completed or failed.
// It returns the endpoint's final state.
func (s *ExecService) ExecuteOne(ctx context.Context, suiteID, endpointID string) (*domain.Endpoint, error) {
	ep, err := s.Store.GetEndpoint(ctx, s.DB, suiteID, endpointID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEndpointNotFound
		}
		return nil, err
	}

	if err := s.Store.MarkEndpointRunning(ctx, s.DB, suiteID, endpointID); err != nil {
		return nil, err
	}

	if d := s.Limiter.Allow(s.Identifier); !d.Allowed {
		// No network call is made for a rate-limited endpoint.
		msg := fmt.Sprintf("rate limit exceeded, retry after %d seconds", d.RetryAfterSeconds)
		if err := s.Store.MarkEndpointFailed(ctx, s.DB, suiteID, endpointID, msg, time.Now().UTC()); err != nil {
			return nil, err
		}
		observability.ExecutionsTotal.WithLabelValues("rate_limited").Inc()
		return s.finish(ctx, suiteID, endpointID)
	}

	start := time.Now()
	payload, execErr := s.Client.Execute(ctx, ep.RequestLine)
	elapsed := time.Since(start)
	executedAt := time.Now().UTC()

	if execErr != nil {
		msg := classify.Classify(failureShape(execErr))
		if err := s.Store.MarkEndpointFailed(ctx, s.DB, suiteID, endpointID, msg, executedAt); err != nil {
			return nil, err
		}
		observability.ExecutionsTotal.WithLabelValues("failed").Inc()
		s.record(ctx, ep.RequestLine, false, elapsed)
		return s.finish(ctx, suiteID, endpointID)
	}

	resultJSON, err := json.Marshal(sanitize.Deep(payload))
	if err != nil {
		if err := s.Store.MarkEndpointFailed(ctx, s.DB, suiteID, endpointID, classify.MsgUnexpected, executedAt); err != nil {
			return nil, err
		}
		observability.ExecutionsTotal.WithLabelValues("failed").Inc()
		s.record(ctx, ep.RequestLine, false, elapsed)
		return s.finish(ctx, suiteID, endpointID)
	}

	if err := s.Store.MarkEndpointCompleted(ctx, s.DB, suiteID, endpointID, string(resultJSON), executedAt); err != nil {
		return nil, err
	}
	observability.ExecutionsTotal.WithLabelValues("completed").Inc()
	s.record(ctx, ep.RequestLine, true, elapsed)
	return s.finish(ctx, suiteID, endpointID)
}

// ExecuteAll resets every endpoint of the suite to pending and executes them
// strictly in sequence with the configured pacing delay. At most one batch
// per suite runs at a time; a second request fails with ErrBatchRunning.
func (s *ExecService) ExecuteAll(ctx context.Context, suiteID string) error {
	s.mu.Lock()
	if _, ok := s.batches[suiteID]; ok {
		s.mu.Unlock()
		return ErrBatchRunning
	}
	batch := &batchState{}
	s.batches[suiteID] = batch
	s.mu.Unlock()

	observability.BatchesInflight.Inc()
	defer func() {
		observability.BatchesInflight.Dec()
		s.mu.Lock()
		delete(s.batches, suiteID)
		s.mu.Unlock()
	}()

	if err := s.Store.ResetEndpoints(ctx, s.DB, suiteID); err != nil {
		return err
	}
	endpoints, err := s.Store.ListEndpoints(ctx, s.DB, suiteID)
	if err != nil {
		return err
	}

	delay := s.Delay
	if delay <= 0 {
		delay = DefaultInterCallDelay
	}
	// Token bucket as a pacer: the first call passes immediately, each
	// following one waits out the delay.
	pacer := rate.NewLimiter(rate.Every(delay), 1)

	for _, ep := range endpoints {
		if batch.isStopped() || ctx.Err() != nil {
			break
		}
		if err := pacer.Wait(ctx); err != nil {
			break
		}
		if batch.isStopped() {
			break
		}
		if _, err := s.ExecuteOne(ctx, suiteID, ep.ID); err != nil {
			// Endpoint-level failures are recorded on the endpoint itself;
			// only store/context errors abort the loop.
			if errors.Is(err, ErrEndpointNotFound) {
				continue // removed mid-batch
			}
			return err
		}
	}
	return nil
}

// StopAll halts the batch loop for suiteID and returns every running
// endpoint to pending. A call already in flight is not aborted; its outcome
// still lands when it completes.
func (s *ExecService) StopAll(ctx context.Context, suiteID string) error {
	s.mu.Lock()
	if batch, ok := s.batches[suiteID]; ok {
		batch.stop()
	}
	s.mu.Unlock()

	if _, err := s.Store.ResetRunningEndpoints(ctx, s.DB, suiteID); err != nil {
		return err
	}
	return s.Store.TouchSuite(ctx, s.DB, suiteID)
}

// finish re-reads the endpoint's final state and bumps the suite.
func (s *ExecService) finish(ctx context.Context, suiteID, endpointID string) (*domain.Endpoint, error) {
	if err := s.Store.TouchSuite(ctx, s.DB, suiteID); err != nil {
		return nil, err
	}
	return s.Store.GetEndpoint(ctx, s.DB, suiteID, endpointID)
}

// record appends to the request history log. Persistence failures here are
// reported but never fail the execution itself.
func (s *ExecService) record(ctx context.Context, requestLine string, succeeded bool, duration time.Duration) {
	ttl := s.HistoryTTL
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	if _, err := s.Store.AppendRequestHistory(ctx, s.DB, requestLine, succeeded, duration, ttl); err != nil {
		log.Warn().Err(err).Msg("request history write failed")
	}
}

// failureShape maps a raw client error onto the classifier's tagged union.
func failureShape(err error) classify.Failure {
	var se *execapi.StatusError
	if errors.As(err, &se) {
		return classify.HTTPFailure{Status: se.Status, Body: se.Body}
	}
	return classify.MessageFailure{Err: err}
}
