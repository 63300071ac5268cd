package domain

import (
	"testing"
	"time"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed} {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if Status("done").Valid() {
		t.Fatalf("unknown status must not be valid")
	}
}

func TestStatusCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusPending, true}, // stop request
		{StatusCompleted, StatusRunning, true},
		{StatusCompleted, StatusPending, true},
		{StatusFailed, StatusRunning, true},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusCompleted, false},
		{Status("bogus"), StatusRunning, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSuiteExpired(t *testing.T) {
	now := time.Now().UTC()
	s := &Suite{ExpiresAt: now.Add(time.Hour)}
	if s.Expired(now) {
		t.Fatalf("suite expiring in the future must not be expired")
	}
	s.ExpiresAt = now.Add(-time.Second)
	if !s.Expired(now) {
		t.Fatalf("suite with past expiry must be expired")
	}
	// Boundary: expiry exactly at now counts as expired.
	s.ExpiresAt = now
	if !s.Expired(now) {
		t.Fatalf("suite expiring exactly now must be expired")
	}
}

func TestTableNames(t *testing.T) {
	if got := (Suite{}).TableName(); got != "suites" {
		t.Fatalf("unexpected table name %q", got)
	}
	if got := (Endpoint{}).TableName(); got != "endpoints" {
		t.Fatalf("unexpected table name %q", got)
	}
	if got := (VaultItem{}).TableName(); got != "vault_items" {
		t.Fatalf("unexpected table name %q", got)
	}
	if got := (RequestHistoryEntry{}).TableName(); got != "request_history" {
		t.Fatalf("unexpected table name %q", got)
	}
}
