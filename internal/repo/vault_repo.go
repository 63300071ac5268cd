// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for VaultItem
// records: simple key/value rows with a TTL, no cross-aggregate invariants.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-suite-runner/internal/domain"
)

// PutVaultItem inserts or replaces the item stored under key. The expiry is
// refreshed to now + ttl on every write.
func PutVaultItem(ctx context.Context, db *gorm.DB, key, value string, ttl time.Duration) (*domain.VaultItem, error) {
	now := time.Now().UTC()

	var existing domain.VaultItem
	err := db.WithContext(ctx).Where("key = ?", key).First(&existing).Error
	switch {
	case err == nil:
		existing.Value = value
		existing.UpdatedAt = now
		existing.ExpiresAt = now.Add(ttl)
		if err := db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case err == gorm.ErrRecordNotFound:
		item := &domain.VaultItem{
			ID:        uuid.NewString(),
			Key:       key,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(ttl),
		}
		if err := db.WithContext(ctx).Create(item).Error; err != nil {
			return nil, err
		}
		return item, nil
	default:
		return nil, err
	}
}

// GetVaultItem fetches the item stored under key. An item whose TTL has
// elapsed reads as absent even before the sweep removes it.
func GetVaultItem(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.VaultItem, error) {
	var item domain.VaultItem
	if err := db.WithContext(ctx).Where("key = ?", key).First(&item).Error; err != nil {
		return nil, err
	}
	if !item.ExpiresAt.After(now) {
		return nil, ErrNotFound
	}
	return &item, nil
}

// ListVaultItems returns all unexpired items ordered by key.
func ListVaultItems(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.VaultItem, error) {
	var out []domain.VaultItem
	err := db.WithContext(ctx).
		Where("expires_at > ?", now).
		Order("key asc").
		Find(&out).Error
	return out, err
}

// DeleteVaultItem removes the item stored under key. The delete is
// unscoped: the unique key index must free up for a later re-insert.
// Returns ErrNotFound if no such item exists.
func DeleteVaultItem(ctx context.Context, db *gorm.DB, key string) error {
	res := db.WithContext(ctx).Unscoped().Where("key = ?", key).Delete(&domain.VaultItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
