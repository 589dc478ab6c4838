package screenshot_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hinter/internal/config"
	"hinter/internal/logging"
	"hinter/internal/screenshot"
	"hinter/internal/services"
)

type fakeTrigger struct {
	fire func(ctx context.Context) error
}

func (f *fakeTrigger) Screenshot(ctx context.Context) error {
	if f.fire == nil {
		return nil
	}
	return f.fire(ctx)
}

func newCapturer(t *testing.T, dir string, waitSeconds int, trigger screenshot.Trigger) *screenshot.Capturer {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ScreenshotDir = dir
	cfg.RetroArch.ScreenshotWaitSeconds = waitSeconds
	return screenshot.New(&cfg, trigger, logging.NewNop())
}

func TestCaptureFindsFileWrittenAfterTrigger(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "old.png")
	if err := os.WriteFile(stale, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(stale, past, past); err != nil {
		t.Fatal(err)
	}

	trigger := &fakeTrigger{fire: func(context.Context) error {
		return os.WriteFile(filepath.Join(dir, "fresh.png"), []byte("fresh"), 0o644)
	}}

	capturer := newCapturer(t, dir, 2, trigger)
	path, err := capturer.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if filepath.Base(path) != "fresh.png" {
		t.Fatalf("expected fresh.png, got %s", path)
	}
}

func TestCaptureTimesOutWhenNothingAppears(t *testing.T) {
	dir := t.TempDir()
	capturer := newCapturer(t, dir, 0, &fakeTrigger{})

	_, err := capturer.Capture(context.Background())
	if !errors.Is(err, services.ErrScreenshotTimeout) {
		t.Fatalf("expected ErrScreenshotTimeout, got %v", err)
	}
}

func TestCapturePropagatesTriggerFailure(t *testing.T) {
	sentinel := errors.New("port down")
	trigger := &fakeTrigger{fire: func(context.Context) error { return sentinel }}
	capturer := newCapturer(t, t.TempDir(), 1, trigger)

	_, err := capturer.Capture(context.Background())
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected trigger error, got %v", err)
	}
}

func TestCaptureIgnoresNonImageFiles(t *testing.T) {
	dir := t.TempDir()
	trigger := &fakeTrigger{fire: func(context.Context) error {
		return os.WriteFile(filepath.Join(dir, "note.txt"), []byte("x"), 0o644)
	}}
	capturer := newCapturer(t, dir, 0, trigger)

	_, err := capturer.Capture(context.Background())
	if !errors.Is(err, services.ErrScreenshotTimeout) {
		t.Fatalf("expected timeout for non-image file, got %v", err)
	}
}
