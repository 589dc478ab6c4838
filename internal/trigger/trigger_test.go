package trigger_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"hinter/internal/config"
	"hinter/internal/logging"
	"hinter/internal/trigger"
)

func newSource(t *testing.T, debounceMillis int, now func() time.Time) *trigger.Source {
	t.Helper()
	cfg := config.Default()
	cfg.Input.DebounceMillis = debounceMillis
	return trigger.NewSource(&cfg, logging.NewNop(), trigger.WithClock(now))
}

func TestDispatchCoalescesSameKindWithinDebounceWindow(t *testing.T) {
	clock := time.Unix(1000, 0)
	src := newSource(t, 1000, func() time.Time { return clock })

	if !src.Dispatch(trigger.KindRequest, trigger.OriginInput) {
		t.Fatal("first trigger should emit")
	}
	clock = clock.Add(200 * time.Millisecond)
	if src.Dispatch(trigger.KindRequest, trigger.OriginMarker) {
		t.Fatal("duplicate inside debounce window should be dropped")
	}
	clock = clock.Add(900 * time.Millisecond)
	if !src.Dispatch(trigger.KindRequest, trigger.OriginInput) {
		t.Fatal("trigger after window should emit")
	}
	if got := len(src.Events()); got != 2 {
		t.Fatalf("expected 2 buffered events, got %d", got)
	}
}

func TestDispatchDebouncesPerKind(t *testing.T) {
	clock := time.Unix(1000, 0)
	src := newSource(t, 1000, func() time.Time { return clock })

	if !src.Dispatch(trigger.KindRequest, trigger.OriginInput) {
		t.Fatal("request should emit")
	}
	if !src.Dispatch(trigger.KindView, trigger.OriginInput) {
		t.Fatal("view is a different kind and should not be debounced")
	}
}

func TestDispatchPreservesOrder(t *testing.T) {
	clock := time.Unix(1000, 0)
	src := newSource(t, 0, func() time.Time { return clock })

	src.Dispatch(trigger.KindRequest, trigger.OriginInput)
	src.Dispatch(trigger.KindView, trigger.OriginMarker)

	first := <-src.Events()
	second := <-src.Events()
	if first.Kind != trigger.KindRequest || second.Kind != trigger.KindView {
		t.Fatalf("events out of order: %v then %v", first.Kind, second.Kind)
	}
	if first.Origin != trigger.OriginInput || second.Origin != trigger.OriginMarker {
		t.Fatalf("origins not preserved: %v then %v", first.Origin, second.Origin)
	}
}

func TestDispatchBufferFullDropDoesNotDebounceRetry(t *testing.T) {
	clock := time.Unix(1000, 0)
	src := newSource(t, 1000, func() time.Time { return clock })

	// Fill the event buffer without draining it.
	for {
		clock = clock.Add(2 * time.Second)
		if !src.Dispatch(trigger.KindRequest, trigger.OriginMarker) {
			break
		}
	}

	// The drop above must not have stamped the debounce window: after
	// draining one slot, an immediate retry at the same instant emits.
	<-src.Events()
	if !src.Dispatch(trigger.KindRequest, trigger.OriginMarker) {
		t.Fatal("retry after buffer-full drop should emit")
	}
}

func TestChordFiresOnceUntilReleased(t *testing.T) {
	tracker, err := trigger.NewChordTracker(
		[]string{"BTN_SELECT", "BTN_TL"},
		[]string{"BTN_SELECT", "BTN_TR"},
	)
	if err != nil {
		t.Fatalf("NewChordTracker: %v", err)
	}

	const (
		btnTL     = 0x136
		btnTR     = 0x137
		btnSelect = 0x13a
	)

	if _, fired := tracker.Press(btnSelect); fired {
		t.Fatal("partial chord should not fire")
	}
	kind, fired := tracker.Press(btnTL)
	if !fired || kind != trigger.KindRequest {
		t.Fatalf("expected request chord, got fired=%v kind=%v", fired, kind)
	}

	// Still held: a repeated press event must not re-fire.
	if _, fired := tracker.Press(btnTL); fired {
		t.Fatal("held chord re-fired without a release")
	}

	tracker.Release(btnTL)
	if kind, fired := tracker.Press(btnTL); !fired || kind != trigger.KindRequest {
		t.Fatal("chord should re-arm after release")
	}

	tracker.Release(btnTL)
	if kind, fired := tracker.Press(btnTR); !fired || kind != trigger.KindView {
		t.Fatalf("expected view chord, got fired=%v kind=%v", fired, kind)
	}
}

func TestChordTrackerResetClearsHeldButtons(t *testing.T) {
	tracker, err := trigger.NewChordTracker(
		[]string{"BTN_SELECT", "BTN_TL"},
		[]string{"BTN_SELECT", "BTN_TR"},
	)
	if err != nil {
		t.Fatalf("NewChordTracker: %v", err)
	}

	const (
		btnTL     = 0x136
		btnSelect = 0x13a
	)

	// Device detaches while select is held; its release never arrives.
	if _, fired := tracker.Press(btnSelect); fired {
		t.Fatal("partial chord should not fire")
	}
	tracker.Reset()

	// After a reattach, the stale press must not complete the chord.
	if _, fired := tracker.Press(btnTL); fired {
		t.Fatal("chord fired from stale held state after reset")
	}
	if kind, fired := tracker.Press(btnSelect); !fired || kind != trigger.KindRequest {
		t.Fatalf("full chord after reset should fire, got fired=%v kind=%v", fired, kind)
	}
}

func TestChordTrackerRejectsUnknownButton(t *testing.T) {
	_, err := trigger.NewChordTracker([]string{"BTN_WARP"}, []string{"BTN_SELECT"})
	if err == nil {
		t.Fatal("expected error for unknown button name")
	}
}

func TestMarkerSweepEmitsOncePerSentinel(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = dir
	cfg.Input.MarkerPollMillis = 50

	var events []trigger.Kind
	dispatch := func(kind trigger.Kind, origin trigger.Origin) bool {
		if origin != trigger.OriginMarker {
			t.Fatalf("unexpected origin %v", origin)
		}
		events = append(events, kind)
		return true
	}
	watcher := trigger.NewMarkerWatcher(&cfg, dispatch, logging.NewNop())

	markerPath := filepath.Join(dir, trigger.MarkerRequest)
	if err := os.WriteFile(markerPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	watcher.Sweep()
	watcher.Sweep()

	if len(events) != 1 || events[0] != trigger.KindRequest {
		t.Fatalf("expected one request event, got %v", events)
	}
	if _, err := os.Stat(markerPath); !os.IsNotExist(err) {
		t.Fatal("sentinel should be deleted after consumption")
	}
}

func TestMarkerSweepHandlesBothSentinels(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = dir

	var events []trigger.Kind
	watcher := trigger.NewMarkerWatcher(&cfg, func(kind trigger.Kind, _ trigger.Origin) bool {
		events = append(events, kind)
		return true
	}, logging.NewNop())

	for _, name := range []string{trigger.MarkerRequest, trigger.MarkerView} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	watcher.Sweep()

	if len(events) != 2 || events[0] != trigger.KindRequest || events[1] != trigger.KindView {
		t.Fatalf("expected request then view, got %v", events)
	}
}
