package daemon_test

import (
	"context"
	"path/filepath"
	"testing"

	"hinter/internal/config"
	"hinter/internal/coordinator"
	"hinter/internal/daemon"
	"hinter/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ScreenshotDir = filepath.Join(base, "screenshots")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Input.Device = filepath.Join(base, "no-such-device")
	cfg.Provider.APIKey = "test-key"
	return &cfg
}

func TestStartStopLifecycle(t *testing.T) {
	d, err := daemon.New(testConfig(t), "session-1", logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if status := d.Status(); !status.Running {
		t.Fatal("expected running after Start")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("second Start on a running daemon should fail")
	}

	d.Stop()
	if status := d.Status(); status.Running {
		t.Fatal("expected stopped after Stop")
	}
}

func TestSecondInstanceRejectedByLock(t *testing.T) {
	cfg := testConfig(t)

	first, err := daemon.New(cfg, "session-1", logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, err := daemon.New(cfg, "session-2", logging.NewNop())
	if err != nil {
		t.Fatalf("New second: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected lock conflict for second instance")
	}
}

func TestStatusSnapshotBeforeStart(t *testing.T) {
	cfg := testConfig(t)
	cfg.Hints.DailyLimit = 7

	d, err := daemon.New(cfg, "session-1", logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	status := d.Status()
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if status.Session != coordinator.StateIdle {
		t.Fatalf("expected idle session, got %s", status.Session)
	}
	if status.QuotaLimit != 7 || status.QuotaUsed != 0 {
		t.Fatalf("unexpected quota snapshot %d/%d", status.QuotaUsed, status.QuotaLimit)
	}
	if status.PadAttached {
		t.Fatal("no controller device exists, pad must not report attached")
	}
}
