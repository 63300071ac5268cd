// Package services – VaultService and HistoryService
//
// Peripheral collections: the vault is a TTL-bound key/value store and the
// request history is an append-only execution log. Both are plain CRUD with
// no cross-aggregate invariants; values are sanitized on the way in and the
// lazy sweep runs on every read.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-suite-runner/internal/domain"
	"github.com/tbourn/go-suite-runner/internal/repo"
	"github.com/tbourn/go-suite-runner/internal/sanitize"
)

// ErrVaultItemNotFound indicates the requested vault key does not exist or
// has expired.
var ErrVaultItemNotFound = errors.New("vault item not found")

// DefaultVaultTTL bounds persisted vault items; it matches the suite TTL.
const DefaultVaultTTL = DefaultSuiteTTL

// VaultService provides CRUD over sanitized, TTL-bound key/value records.
type VaultService struct {
	DB  *gorm.DB
	TTL time.Duration
}

// NewVaultService constructs a VaultService with the default TTL.
func NewVaultService(db *gorm.DB) *VaultService {
	return &VaultService{DB: db, TTL: DefaultVaultTTL}
}

// Put stores value under key, sanitizing both. An existing key is replaced
// and its TTL refreshed.
func (s *VaultService) Put(ctx context.Context, key, value string) (*domain.VaultItem, error) {
	key = sanitize.Sanitize(key)
	if key == "" {
		return nil, ErrVaultItemNotFound
	}
	return repo.PutVaultItem(ctx, s.DB, key, sanitize.Sanitize(value), s.TTL)
}

// Get returns the item stored under key after sweeping expired rows.
func (s *VaultService) Get(ctx context.Context, key string) (*domain.VaultItem, error) {
	now := time.Now().UTC()
	if _, err := repo.SweepExpiredVaultItems(ctx, s.DB, now); err != nil {
		return nil, err
	}
	item, err := repo.GetVaultItem(ctx, s.DB, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrVaultItemNotFound
	}
	return item, err
}

// List returns all live items after sweeping expired rows.
func (s *VaultService) List(ctx context.Context) ([]domain.VaultItem, error) {
	now := time.Now().UTC()
	if _, err := repo.SweepExpiredVaultItems(ctx, s.DB, now); err != nil {
		return nil, err
	}
	return repo.ListVaultItems(ctx, s.DB, now)
}

// Delete removes the item stored under key.
func (s *VaultService) Delete(ctx context.Context, key string) error {
	err := repo.DeleteVaultItem(ctx, s.DB, key)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrVaultItemNotFound
	}
	return err
}

// HistoryService reads the append-only request history log.
type HistoryService struct {
	DB *gorm.DB
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{DB: db}
}

// List returns the most recent unexpired entries, newest first, after
// sweeping expired rows. Non-positive limits default to 50.
func (s *HistoryService) List(ctx context.Context, limit int) ([]domain.RequestHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	now := time.Now().UTC()
	if _, err := repo.SweepExpiredRequestHistory(ctx, s.DB, now); err != nil {
		return nil, err
	}
	return repo.ListRequestHistory(ctx, s.DB, now, limit)
}
