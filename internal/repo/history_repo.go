// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// append-only request history log.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-suite-runner/internal/domain"
)

// AppendRequestHistory records one executed request line and its outcome.
func AppendRequestHistory(ctx context.Context, db *gorm.DB, requestLine string, succeeded bool, duration time.Duration, ttl time.Duration) (*domain.RequestHistoryEntry, error) {
	now := time.Now().UTC()
	e := &domain.RequestHistoryEntry{
		ID:          uuid.NewString(),
		RequestLine: requestLine,
		Succeeded:   succeeded,
		DurationMS:  duration.Milliseconds(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// ListRequestHistory returns the most recent unexpired entries, newest
// first, capped at limit.
func ListRequestHistory(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.RequestHistoryEntry, error) {
	var out []domain.RequestHistoryEntry
	err := db.WithContext(ctx).
		Where("expires_at > ?", now).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
