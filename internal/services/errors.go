// Package services defines the business logic for suites, endpoints,
// execution, and the peripheral vault/history collections. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrSuiteNotFound indicates that the requested suite does not exist
	// (or has already been swept).
	ErrSuiteNotFound = errors.New("suite not found")

	// ErrNoCurrentSuite is returned when an operation needs an active suite
	// and none exists.
	ErrNoCurrentSuite = errors.New("no current suite")

	// ErrEndpointNotFound indicates that the requested endpoint does not
	// exist within its suite.
	ErrEndpointNotFound = errors.New("endpoint not found")

	// ErrOriginExtraction is returned when an endpoint draft carries no
	// usable URL directive to derive a base origin from.
	ErrOriginExtraction = errors.New("could not extract origin from request line")

	// ErrBatchRunning is returned when a batch execution is requested while
	// one is already in flight for the same suite.
	ErrBatchRunning = errors.New("batch execution already running")
)

// ValidationError reports a rejected input together with the stable reason
// code produced by the validate package.
type ValidationError struct {
	Reason  string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string { return e.Message }

// OriginMismatchError reports a violated single-origin invariant, carrying
// both origins so the caller can show exactly what clashed.
type OriginMismatchError struct {
	SuiteOrigin    string
	EndpointOrigin string
}

// Error implements the error interface.
func (e *OriginMismatchError) Error() string {
	return fmt.Sprintf("endpoint origin %s does not match suite origin %s", e.EndpointOrigin, e.SuiteOrigin)
}
