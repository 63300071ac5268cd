// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for Endpoint rows.
//
// The execution engine never writes endpoint state directly: every lifecycle
// mutation goes through the Mark* functions here, which also enforce the
// result/error exclusivity invariant by always nulling the opposite column.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-suite-runner/internal/domain"
)

// EndpointDraft carries the caller-supplied fields for a new endpoint.
type EndpointDraft struct {
	Title       string
	Description string
	RequestLine string
}

// AppendEndpoint inserts a new pending endpoint at the end of the suite's
// sequence. Position is assigned from the current endpoint count.
func AppendEndpoint(ctx context.Context, db *gorm.DB, suiteID string, draft EndpointDraft) (*domain.Endpoint, error) {
	var count int64
	if err := db.WithContext(ctx).
		Model(&domain.Endpoint{}).
		Where("suite_id = ?", suiteID).
		Count(&count).Error; err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e := &domain.Endpoint{
		ID:          uuid.NewString(),
		SuiteID:     suiteID,
		Position:    int(count),
		Title:       draft.Title,
		Description: draft.Description,
		RequestLine: draft.RequestLine,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// GetEndpoint fetches an endpoint by ID scoped to its suite.
// Returns ErrNotFound if missing.
func GetEndpoint(ctx context.Context, db *gorm.DB, suiteID, id string) (*domain.Endpoint, error) {
	var e domain.Endpoint
	err := db.WithContext(ctx).
		Where("id = ? AND suite_id = ?", id, suiteID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEndpoints returns a suite's endpoints in position order.
func ListEndpoints(ctx context.Context, db *gorm.DB, suiteID string) ([]domain.Endpoint, error) {
	var out []domain.Endpoint
	err := db.WithContext(ctx).
		Where("suite_id = ?", suiteID).
		Order("position asc").
		Find(&out).Error
	return out, err
}

// EndpointPatch carries optional metadata fields for UpdateEndpointMeta.
// Nil fields are left untouched.
type EndpointPatch struct {
	Title       *string
	Description *string
	RequestLine *string
}

// UpdateEndpointMeta merges non-nil patch fields into the endpoint.
// Returns ErrNotFound when the endpoint does not exist; an empty patch is a
// no-op.
func UpdateEndpointMeta(ctx context.Context, db *gorm.DB, suiteID, id string, patch EndpointPatch) error {
	updates := map[string]any{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.RequestLine != nil {
		updates["request_line"] = *patch.RequestLine
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()

	res := db.WithContext(ctx).
		Model(&domain.Endpoint{}).
		Where("id = ? AND suite_id = ?", id, suiteID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkEndpointRunning transitions an endpoint to running and clears any
// prior outcome. Returns ErrNotFound if the endpoint does not exist.
func MarkEndpointRunning(ctx context.Context, db *gorm.DB, suiteID, id string) error {
	return markEndpoint(ctx, db, suiteID, id, map[string]any{
		"status":        domain.StatusRunning,
		"result":        nil,
		"error_message": nil,
		"updated_at":    time.Now().UTC(),
	})
}

// MarkEndpointCompleted stores the sanitized result JSON, stamps the
// execution time, and transitions to completed. The error column is nulled
// so result and error are never both present.
func MarkEndpointCompleted(ctx context.Context, db *gorm.DB, suiteID, id, resultJSON string, executedAt time.Time) error {
	return markEndpoint(ctx, db, suiteID, id, map[string]any{
		"status":        domain.StatusCompleted,
		"result":        resultJSON,
		"error_message": nil,
		"executed_at":   executedAt,
		"updated_at":    time.Now().UTC(),
	})
}

// MarkEndpointFailed stores the safe error message, stamps the execution
// time, and transitions to failed. The result column is nulled.
func MarkEndpointFailed(ctx context.Context, db *gorm.DB, suiteID, id, message string, executedAt time.Time) error {
	return markEndpoint(ctx, db, suiteID, id, map[string]any{
		"status":        domain.StatusFailed,
		"result":        nil,
		"error_message": message,
		"executed_at":   executedAt,
		"updated_at":    time.Now().UTC(),
	})
}

// MarkEndpointPending returns an endpoint to pending without touching its
// executed_at stamp; used by the stop path.
func MarkEndpointPending(ctx context.Context, db *gorm.DB, suiteID, id string) error {
	return markEndpoint(ctx, db, suiteID, id, map[string]any{
		"status":        domain.StatusPending,
		"result":        nil,
		"error_message": nil,
		"updated_at":    time.Now().UTC(),
	})
}

func markEndpoint(ctx context.Context, db *gorm.DB, suiteID, id string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Endpoint{}).
		Where("id = ? AND suite_id = ?", id, suiteID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetEndpoints returns every endpoint of a suite to pending and clears
// prior outcomes in one batch update; used before a batch run.
func ResetEndpoints(ctx context.Context, db *gorm.DB, suiteID string) error {
	return db.WithContext(ctx).
		Model(&domain.Endpoint{}).
		Where("suite_id = ?", suiteID).
		Updates(map[string]any{
			"status":        domain.StatusPending,
			"result":        nil,
			"error_message": nil,
			"updated_at":    time.Now().UTC(),
		}).Error
}

// ResetRunningEndpoints returns only the currently running endpoints of a
// suite to pending; used by the stop path.
func ResetRunningEndpoints(ctx context.Context, db *gorm.DB, suiteID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Endpoint{}).
		Where("suite_id = ? AND status = ?", suiteID, domain.StatusRunning).
		Updates(map[string]any{
			"status":        domain.StatusPending,
			"result":        nil,
			"error_message": nil,
			"updated_at":    time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// RemoveEndpoint deletes an endpoint by ID scoped to its suite.
// Returns ErrNotFound if the endpoint does not exist.
func RemoveEndpoint(ctx context.Context, db *gorm.DB, suiteID, id string) error {
	res := db.WithContext(ctx).Delete(&domain.Endpoint{}, "id = ? AND suite_id = ?", id, suiteID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
