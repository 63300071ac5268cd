// Package domain defines the persistence models for suites, endpoints, vault
// items, and the request history log. These types are mapped with GORM and
// form the core data layer of the suite-runner application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Status models the execution lifecycle of an Endpoint.
//
// Transitions:
//
//	pending  → running             (execution starts)
//	running  → completed | failed  (outcome of the remote call)
//	running  → pending             (stop requested before the outcome landed)
//	completed/failed → running     (re-execution; prior outcome is cleared)
//
// There is no terminal state; endpoints are re-runnable indefinitely.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is one of the four known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether a transition from s to next is allowed by the
// endpoint lifecycle.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning
	case StatusRunning:
		// completed/failed on outcome, pending on stop.
		return next == StatusCompleted || next == StatusFailed || next == StatusPending
	case StatusCompleted, StatusFailed:
		// Re-execution restarts the cycle after the prior outcome is cleared.
		return next == StatusRunning || next == StatusPending
	}
	return false
}

// Suite represents a named, persisted group of endpoints that all target the
// same base origin. At most one non-archived suite is the "current" suite;
// archived suites form the history list.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Title / Description: free text, normalized by the service layer.
//   - BaseOrigin: scheme+host of the first attached endpoint; empty until the
//     first endpoint is attached. Every later attachment must match it.
//   - Archived: true when the suite has been moved to the history list.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - ExpiresAt: CreatedAt + TTL; the suite is discarded by the lazy sweep
//     once this instant has passed.
type Suite struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string    `json:"title"       gorm:"type:varchar(255);not null;default:'New suite'"`
	Description string    `json:"description" gorm:"type:text"`
	BaseOrigin  string    `json:"base_origin" gorm:"type:varchar(2048)"`
	Archived    bool      `json:"archived"    gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ExpiresAt   time.Time `json:"expires_at"  gorm:"not null;index"`

	// Endpoints are exclusively owned; deleting the suite deletes them.
	Endpoints []Endpoint `json:"endpoints,omitempty" gorm:"foreignKey:SuiteID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Suite.
func (Suite) TableName() string { return "suites" }

// Expired reports whether the suite's TTL has elapsed at instant now.
func (s *Suite) Expired(now time.Time) bool { return !s.ExpiresAt.After(now) }

// Endpoint represents a single request-line definition plus its last
// execution outcome, owned by exactly one suite.
//
// Invariant: Result and ErrorMessage are never both set; exactly one or
// neither holds depending on Status.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - SuiteID: foreign key to the owning suite (indexed with Position).
//   - Position: insertion order within the suite; batch execution follows it.
//   - RequestLine: the pipe-delimited directive text; opaque here except for
//     the URL directive used for the origin check at attach time.
//   - Status: lifecycle state (see Status).
//   - Result: serialized JSON of the last successful, sanitized response.
//   - ErrorMessage: last safe error message.
//   - ExecutedAt: set on every execution outcome; absent until the first one.
type Endpoint struct {
	ID           string     `json:"id"           gorm:"type:char(36);primaryKey"`
	SuiteID      string     `json:"suite_id"     gorm:"type:char(36);not null;index:idx_suite_endpoints,priority:1"`
	Position     int        `json:"position"     gorm:"not null;index:idx_suite_endpoints,priority:2"`
	Title        string     `json:"title"        gorm:"type:varchar(255)"`
	Description  string     `json:"description"  gorm:"type:text"`
	RequestLine  string     `json:"request_line" gorm:"type:text;not null"`
	Status       Status     `json:"status"       gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','running','completed','failed')"`
	Result       *string    `json:"result,omitempty"        gorm:"type:text"`
	ErrorMessage *string    `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ExecutedAt   *time.Time `json:"executed_at,omitempty"`

	// Suite is the owning aggregate root.
	Suite Suite `json:"-" gorm:"foreignKey:SuiteID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Endpoint.
func (Endpoint) TableName() string { return "endpoints" }

// VaultItem is a simple persisted key/value record with its own TTL.
// Peripheral to the execution core: plain CRUD, swept on read like suites.
type VaultItem struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Key       string         `json:"key"        gorm:"type:varchar(255);not null;uniqueIndex:ux_vault_key"`
	Value     string         `json:"value"      gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	ExpiresAt time.Time      `json:"expires_at" gorm:"not null;index"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for VaultItem.
func (VaultItem) TableName() string { return "vault_items" }

// RequestHistoryEntry is an append-only log record of an executed request
// line and its outcome, kept for a bounded TTL.
type RequestHistoryEntry struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	RequestLine string    `json:"request_line" gorm:"type:text;not null"`
	Succeeded   bool      `json:"succeeded"    gorm:"not null"`
	DurationMS  int64     `json:"duration_ms"  gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"   gorm:"index"`
	ExpiresAt   time.Time `json:"expires_at"   gorm:"not null;index"`
}

// TableName returns the database table name for RequestHistoryEntry.
func (RequestHistoryEntry) TableName() string { return "request_history" }
