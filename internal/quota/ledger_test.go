package quota_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hinter/internal/quota"
)

func openLedger(t *testing.T, path string, limit int) *quota.Ledger {
	t.Helper()
	ledger, err := quota.Open(path, limit)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return ledger
}

func TestTryConsumeEnforcesDailyLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_counter.json")
	ledger := openLedger(t, path, 2)
	dayD := time.Date(2026, 8, 4, 10, 0, 0, 0, time.UTC)

	if err := ledger.TryConsume(dayD); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := ledger.TryConsume(dayD); err != nil {
		t.Fatalf("second consume: %v", err)
	}

	err := ledger.TryConsume(dayD)
	if err == nil {
		t.Fatal("expected quota error on third consume")
	}
	var exceeded *quota.ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected *ExceededError, got %T: %v", err, err)
	}
	if exceeded.Used != 2 || exceeded.Limit != 2 {
		t.Fatalf("unexpected counters: %+v", exceeded)
	}
	if stats := ledger.Stats(dayD); stats.Used != 2 {
		t.Fatalf("count mutated by failed consume: %d", stats.Used)
	}

	// The next calendar day resets the counter.
	dayNext := dayD.Add(24 * time.Hour)
	if err := ledger.TryConsume(dayNext); err != nil {
		t.Fatalf("consume on next day: %v", err)
	}
	if stats := ledger.Stats(dayNext); stats.Used != 1 {
		t.Fatalf("expected count reset to 1, got %d", stats.Used)
	}
}

func TestZeroLimitDisablesCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_counter.json")
	ledger := openLedger(t, path, 0)
	now := time.Now()

	for i := 0; i < 50; i++ {
		if err := ledger.TryConsume(now); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_counter.json")
	now := time.Date(2026, 8, 4, 12, 0, 0, 0, time.UTC)

	first := openLedger(t, path, 5)
	if err := first.TryConsume(now); err != nil {
		t.Fatalf("consume: %v", err)
	}

	second := openLedger(t, path, 5)
	if stats := second.Stats(now); stats.Used != 1 {
		t.Fatalf("expected persisted count 1, got %d", stats.Used)
	}
}

func TestDayRolloverRecordsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_counter.json")
	ledger := openLedger(t, path, 10)

	day1 := time.Date(2026, 8, 4, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := ledger.TryConsume(day1); err != nil {
			t.Fatalf("consume: %v", err)
		}
	}

	day2 := day1.Add(24 * time.Hour)
	stats := ledger.Stats(day2)
	if stats.Used != 0 {
		t.Fatalf("expected reset count, got %d", stats.Used)
	}
	if len(stats.History) != 1 || stats.History[0].Count != 3 || stats.History[0].Day != "2026-08-04" {
		t.Fatalf("unexpected history: %+v", stats.History)
	}
}

func TestCorruptLedgerStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_counter.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt ledger: %v", err)
	}

	ledger := openLedger(t, path, 3)
	if err := ledger.TryConsume(time.Now()); err != nil {
		t.Fatalf("consume after corrupt ledger: %v", err)
	}
}
