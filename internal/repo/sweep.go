// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file is the lazy, read-path garbage collector for
// TTL-bearing collections: callers invoke Sweep on load, there is no
// background timer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-suite-runner/internal/domain"
)

// SweepExpiredSuites deletes suites (and their endpoints) whose TTL has
// elapsed at instant now, returning the number of suites removed.
func SweepExpiredSuites(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	var ids []string
	if err := db.WithContext(ctx).
		Model(&domain.Suite{}).
		Where("expires_at <= ?", now).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := db.WithContext(ctx).Where("suite_id IN ?", ids).Delete(&domain.Endpoint{}).Error; err != nil {
		return 0, err
	}
	res := db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Suite{})
	return res.RowsAffected, res.Error
}

// SweepExpiredVaultItems deletes vault items whose TTL has elapsed.
func SweepExpiredVaultItems(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Unscoped().
		Where("expires_at <= ?", now).
		Delete(&domain.VaultItem{})
	return res.RowsAffected, res.Error
}

// SweepExpiredRequestHistory deletes history entries whose TTL has elapsed.
func SweepExpiredRequestHistory(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.RequestHistoryEntry{})
	return res.RowsAffected, res.Error
}

// SweepAll runs all three sweeps and reports the total rows removed.
// Failures are returned but partial progress is kept; each collection is
// swept independently.
func SweepAll(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	var total int64
	n, err := SweepExpiredSuites(ctx, db, now)
	total += n
	if err != nil {
		return total, err
	}
	n, err = SweepExpiredVaultItems(ctx, db, now)
	total += n
	if err != nil {
		return total, err
	}
	n, err = SweepExpiredRequestHistory(ctx, db, now)
	total += n
	return total, err
}
