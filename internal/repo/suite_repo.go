// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Suite
// aggregate.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Origin invariants, archiving rules, and
// the execution lifecycle live in the service layer.
//
// Error semantics:
//   - When a suite is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-suite-runner/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateSuite inserts a new Suite row with the given title and description.
// The suite ID is a randomly generated UUID, timestamps are UTC, and the
// expiry is set to now + ttl. The new suite starts non-archived with no
// endpoints and an empty base origin.
func CreateSuite(ctx context.Context, db *gorm.DB, title, description string, ttl time.Duration) (*domain.Suite, error) {
	now := time.Now().UTC()
	s := &domain.Suite{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetSuite fetches a suite by ID with its endpoints preloaded in position
// order. Returns ErrNotFound if the suite does not exist.
func GetSuite(ctx context.Context, db *gorm.DB, id string) (*domain.Suite, error) {
	var s domain.Suite
	err := db.WithContext(ctx).
		Preload("Endpoints", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CurrentSuite returns the single non-archived suite, with endpoints
// preloaded in position order, or ErrNotFound when no suite is active.
func CurrentSuite(ctx context.Context, db *gorm.DB) (*domain.Suite, error) {
	var s domain.Suite
	err := db.WithContext(ctx).
		Preload("Endpoints", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Where("archived = ?", false).
		Order("created_at desc").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListArchived returns archived suites ordered by last update descending.
// Endpoints are not preloaded; use GetSuite for a full aggregate.
func ListArchived(ctx context.Context, db *gorm.DB) ([]domain.Suite, error) {
	var out []domain.Suite
	err := db.WithContext(ctx).
		Where("archived = ?", true).
		Order("updated_at desc").
		Find(&out).Error
	return out, err
}

// CountArchived returns the number of archived suites for pagination.
func CountArchived(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Suite{}).
		Where("archived = ?", true).
		Count(&total).Error
	return total, err
}

// ListArchivedPage returns a page of archived suites ordered by last update
// descending. The caller computes offset and limit.
func ListArchivedPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Suite, error) {
	var out []domain.Suite
	err := db.WithContext(ctx).
		Where("archived = ?", true).
		Order("updated_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SetArchived flips the archived flag of a suite. Returns ErrNotFound when
// the suite does not exist.
func SetArchived(ctx context.Context, db *gorm.DB, id string, archived bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Suite{}).
		Where("id = ?", id).
		Updates(map[string]any{"archived": archived, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBaseOrigin records the base origin of a suite (set once, by the first
// endpoint attachment). Returns ErrNotFound when the suite does not exist.
func SetBaseOrigin(ctx context.Context, db *gorm.DB, id, origin string) error {
	res := db.WithContext(ctx).
		Model(&domain.Suite{}).
		Where("id = ?", id).
		Updates(map[string]any{"base_origin": origin, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSuiteMeta updates title and description. Returns ErrNotFound when
// the suite does not exist.
func UpdateSuiteMeta(ctx context.Context, db *gorm.DB, id, title, description string) error {
	res := db.WithContext(ctx).
		Model(&domain.Suite{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":       title,
			"description": description,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchSuite bumps a suite's updated_at to now.
func TouchSuite(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.Suite{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}

// DeleteSuite removes a suite and, through the FK cascade, its endpoints.
// Returns ErrNotFound when the suite does not exist.
func DeleteSuite(ctx context.Context, db *gorm.DB, id string) error {
	// Endpoints first: SQLite only cascades when the FK pragma held at
	// insert time, so an explicit delete keeps the ownership rule honest.
	if err := db.WithContext(ctx).Where("suite_id = ?", id).Delete(&domain.Endpoint{}).Error; err != nil {
		return err
	}
	res := db.WithContext(ctx).Delete(&domain.Suite{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
