package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-suite-runner/internal/domain"
)

func TestCreateSuite_AndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s, err := CreateSuite(ctx, db, "smoke", "api smoke checks", 48*time.Hour)
	if err != nil {
		t.Fatalf("CreateSuite: %v", err)
	}
	if s.ID == "" || s.Archived || s.BaseOrigin != "" {
		t.Fatalf("unexpected new suite: %+v", s)
	}
	if !s.ExpiresAt.After(s.CreatedAt.Add(47 * time.Hour)) {
		t.Fatalf("expiry not createdAt+TTL: %+v", s)
	}

	got, err := GetSuite(ctx, db, s.ID)
	if err != nil {
		t.Fatalf("GetSuite: %v", err)
	}
	if got.Title != "smoke" || len(got.Endpoints) != 0 {
		t.Fatalf("readback mismatch: %+v", got)
	}
}

func TestGetSuite_NotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := GetSuite(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCurrentSuite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := CurrentSuite(ctx, db); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound with no suites, got %v", err)
	}

	s, _ := CreateSuite(ctx, db, "a", "", time.Hour)
	got, err := CurrentSuite(ctx, db)
	if err != nil || got.ID != s.ID {
		t.Fatalf("CurrentSuite: got %+v err %v", got, err)
	}

	if err := SetArchived(ctx, db, s.ID, true); err != nil {
		t.Fatalf("SetArchived: %v", err)
	}
	if _, err := CurrentSuite(ctx, db); !errors.Is(err, ErrNotFound) {
		t.Fatalf("archived suite must not be current, got %v", err)
	}
}

func TestArchiveListAndPage(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		s, _ := CreateSuite(ctx, db, "s", "", time.Hour)
		_ = SetArchived(ctx, db, s.ID, true)
		ids = append(ids, s.ID)
	}

	all, err := ListArchived(ctx, db)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListArchived: %v / %d", err, len(all))
	}
	total, err := CountArchived(ctx, db)
	if err != nil || total != 3 {
		t.Fatalf("CountArchived: %v / %d", err, total)
	}
	page, err := ListArchivedPage(ctx, db, 1, 2)
	if err != nil || len(page) != 2 {
		t.Fatalf("ListArchivedPage: %v / %d", err, len(page))
	}
	_ = ids
}

func TestSetBaseOrigin(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s, _ := CreateSuite(ctx, db, "s", "", time.Hour)
	if err := SetBaseOrigin(ctx, db, s.ID, "https://a.com"); err != nil {
		t.Fatalf("SetBaseOrigin: %v", err)
	}
	got, _ := GetSuite(ctx, db, s.ID)
	if got.BaseOrigin != "https://a.com" {
		t.Fatalf("base origin = %q", got.BaseOrigin)
	}
	if err := SetBaseOrigin(ctx, db, "missing", "https://a.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSuite_CascadesToEndpoints(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s, _ := CreateSuite(ctx, db, "s", "", time.Hour)
	if _, err := AppendEndpoint(ctx, db, s.ID, EndpointDraft{RequestLine: "HTTP GET | URL https://a.com/x"}); err != nil {
		t.Fatalf("AppendEndpoint: %v", err)
	}
	if err := DeleteSuite(ctx, db, s.ID); err != nil {
		t.Fatalf("DeleteSuite: %v", err)
	}

	var count int64
	if err := db.Model(&domain.Endpoint{}).Where("suite_id = ?", s.ID).Count(&count).Error; err != nil {
		t.Fatalf("count endpoints: %v", err)
	}
	if count != 0 {
		t.Fatalf("endpoints survived suite deletion: %d", count)
	}

	if err := DeleteSuite(ctx, db, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
}
