package usagelog_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hinter/internal/usagelog"
)

func openStore(t *testing.T) *usagelog.Store {
	t.Helper()
	store, err := usagelog.OpenPath(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	events := []usagelog.Event{
		{Kind: usagelog.EventHintGenerated, SessionID: "s1", System: "SNES", Game: "Secret Of Mana", Success: true, ResponseMS: 2100, Detail: "Check the cannon travel ce..."},
		{Kind: usagelog.EventHintViewed, SessionID: "s1", System: "SNES", Game: "Secret Of Mana", Success: true},
		{Kind: usagelog.EventRateLimited, SessionID: "s1"},
	}
	for _, event := range events {
		if err := store.Record(ctx, event); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 events, got %d", len(recent))
	}
	if recent[0].Kind != usagelog.EventRateLimited {
		t.Fatalf("expected newest first, got %s", recent[0].Kind)
	}
	if recent[2].ResponseMS != 2100 || !recent[2].Success {
		t.Fatalf("event fields not round-tripped: %+v", recent[2])
	}
	if recent[2].CreatedAt.IsZero() {
		t.Fatal("created_at not parsed")
	}
}

func TestKindCountsRespectsSince(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now()

	old := usagelog.Event{Kind: usagelog.EventHintGenerated, CreatedAt: now.Add(-48 * time.Hour)}
	fresh := usagelog.Event{Kind: usagelog.EventHintGenerated, CreatedAt: now}
	failed := usagelog.Event{Kind: usagelog.EventAPIError, CreatedAt: now}
	for _, event := range []usagelog.Event{old, fresh, failed} {
		if err := store.Record(ctx, event); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	counts, err := store.KindCounts(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("KindCounts: %v", err)
	}
	if counts[usagelog.EventHintGenerated] != 1 {
		t.Fatalf("expected 1 recent generation, got %d", counts[usagelog.EventHintGenerated])
	}
	if counts[usagelog.EventAPIError] != 1 {
		t.Fatalf("expected 1 api error, got %d", counts[usagelog.EventAPIError])
	}
}

func TestGameTotalsOrdersByCount(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Record(ctx, usagelog.Event{Kind: usagelog.EventHintGenerated, System: "SNES", Game: "Earthbound"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := store.Record(ctx, usagelog.Event{Kind: usagelog.EventHintGenerated, System: "PSX", Game: "Vagrant Story"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// Viewed events must not count toward generation totals.
	if err := store.Record(ctx, usagelog.Event{Kind: usagelog.EventHintViewed, System: "PSX", Game: "Vagrant Story"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	totals, err := store.GameTotals(ctx, 10)
	if err != nil {
		t.Fatalf("GameTotals: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 games, got %d", len(totals))
	}
	if totals[0].Game != "Earthbound" || totals[0].Hints != 3 {
		t.Fatalf("unexpected leader %+v", totals[0])
	}
	if totals[1].Hints != 1 {
		t.Fatalf("viewed events leaked into totals: %+v", totals[1])
	}
}
