package display_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hinter/internal/config"
	"hinter/internal/display"
	"hinter/internal/hints"
	"hinter/internal/logging"
)

type recordedCall struct {
	binary string
	args   []string
}

type fakeRunner struct {
	calls []recordedCall
	fail  map[string]error
}

func (f *fakeRunner) Run(ctx context.Context, binary string, args ...string) error {
	f.calls = append(f.calls, recordedCall{binary: binary, args: args})
	if err, ok := f.fail[binary]; ok {
		return err
	}
	return nil
}

type fakeMessenger struct {
	messages []string
	pauses   int
	pauseErr error
}

func (f *fakeMessenger) ShowMessage(ctx context.Context, text string) error {
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeMessenger) PauseToggle(ctx context.Context) error {
	f.pauses++
	return f.pauseErr
}

// blockingRunner holds the viewer open until its context ends, the way a
// real image viewer waits for dismissal.
type blockingRunner struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (b *blockingRunner) Run(ctx context.Context, binary string, args ...string) error {
	b.mu.Lock()
	b.calls = append(b.calls, recordedCall{binary: binary, args: args})
	b.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

type fakeDismisser struct {
	release chan struct{}
	err     error
}

func (f *fakeDismisser) Wait(ctx context.Context) error {
	select {
	case <-f.release:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newPresenter(t *testing.T, installed map[string]bool, runner *fakeRunner, messenger *fakeMessenger) *display.Presenter {
	t.Helper()
	cfg := config.Default()
	cfg.Input.Device = ""
	return display.New(&cfg, messenger, logging.NewNop(),
		display.WithRunner(runner),
		display.WithAvailability(func(binary string) bool { return installed[binary] }),
		display.WithSleep(func(time.Duration) {}),
	)
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hint.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewPicksFirstInstalledBackend(t *testing.T) {
	p := newPresenter(t, map[string]bool{"mpv": true, "feh": true}, &fakeRunner{}, &fakeMessenger{})
	if p.Backend() != "mpv" {
		t.Fatalf("expected mpv, got %s", p.Backend())
	}
}

func TestNewFallsBackToRetroArchWhenNoViewerInstalled(t *testing.T) {
	p := newPresenter(t, nil, &fakeRunner{}, &fakeMessenger{})
	if p.Backend() != display.BackendRetroArch {
		t.Fatalf("expected retroarch fallback, got %s", p.Backend())
	}
}

func TestShowRunsViewerWithImagePath(t *testing.T) {
	runner := &fakeRunner{}
	p := newPresenter(t, map[string]bool{"feh": true}, runner, &fakeMessenger{})
	image := writeImage(t)

	artifact := &hints.Artifact{ImagePath: image, Text: "check the cave"}
	if err := p.Show(context.Background(), artifact); err != nil {
		t.Fatalf("Show: %v", err)
	}

	if len(runner.calls) != 1 || runner.calls[0].binary != "feh" {
		t.Fatalf("expected one feh call, got %+v", runner.calls)
	}
	args := runner.calls[0].args
	if args[len(args)-1] != image {
		t.Fatalf("expected image path as final arg, got %v", args)
	}
}

func TestShowButtonPressDismissesViewer(t *testing.T) {
	runner := &blockingRunner{}
	dismisser := &fakeDismisser{release: make(chan struct{})}
	cfg := config.Default()
	cfg.Input.Device = ""
	cfg.Display.DismissTimeoutSeconds = 30
	p := display.New(&cfg, &fakeMessenger{}, logging.NewNop(),
		display.WithRunner(runner),
		display.WithAvailability(func(binary string) bool { return binary == "feh" }),
		display.WithSleep(func(time.Duration) {}),
		display.WithDismisser(dismisser),
	)

	image := writeImage(t)
	done := make(chan error, 1)
	go func() {
		done <- p.Show(context.Background(), &hints.Artifact{ImagePath: image, Text: "hint"})
	}()
	close(dismisser.release)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Show after button press: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("button press did not dismiss the viewer")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.calls) != 1 || runner.calls[0].binary != "feh" {
		t.Fatalf("expected one feh call, got %+v", runner.calls)
	}
}

func TestShowDismissTimeoutEndsViewer(t *testing.T) {
	runner := &blockingRunner{}
	// Wait errors (no readable device) leave the timeout as the only
	// dismissal path.
	dismisser := &fakeDismisser{release: make(chan struct{}), err: errors.New("no device")}
	close(dismisser.release)

	cfg := config.Default()
	cfg.Input.Device = ""
	cfg.Display.DismissTimeoutSeconds = 1
	p := display.New(&cfg, &fakeMessenger{}, logging.NewNop(),
		display.WithRunner(runner),
		display.WithAvailability(func(binary string) bool { return binary == "feh" }),
		display.WithSleep(func(time.Duration) {}),
		display.WithDismisser(dismisser),
	)

	if err := p.Show(context.Background(), &hints.Artifact{ImagePath: writeImage(t), Text: "hint"}); err != nil {
		t.Fatalf("Show after dismiss timeout: %v", err)
	}
}

func TestShowSuspendsEmulatorForDRMViewers(t *testing.T) {
	runner := &fakeRunner{}
	p := newPresenter(t, map[string]bool{"mpv": true}, runner, &fakeMessenger{})

	artifact := &hints.Artifact{ImagePath: writeImage(t)}
	if err := p.Show(context.Background(), artifact); err != nil {
		t.Fatalf("Show: %v", err)
	}

	if len(runner.calls) != 3 {
		t.Fatalf("expected suspend/view/resume, got %+v", runner.calls)
	}
	if runner.calls[0].binary != "pkill" || runner.calls[0].args[0] != "-STOP" {
		t.Fatalf("expected suspend first, got %+v", runner.calls[0])
	}
	if runner.calls[2].binary != "pkill" || runner.calls[2].args[0] != "-CONT" {
		t.Fatalf("expected resume last, got %+v", runner.calls[2])
	}
}

func TestShowFallsBackToOSDWhenViewerFails(t *testing.T) {
	runner := &fakeRunner{fail: map[string]error{"fbi": errors.New("no framebuffer")}}
	messenger := &fakeMessenger{}
	p := newPresenter(t, map[string]bool{"fbi": true}, runner, messenger)

	artifact := &hints.Artifact{ImagePath: writeImage(t), Text: "push the statue north"}
	if err := p.Show(context.Background(), artifact); err != nil {
		t.Fatalf("Show: %v", err)
	}

	if messenger.pauses != 1 {
		t.Fatalf("expected one pause toggle, got %d", messenger.pauses)
	}
	if len(messenger.messages) == 0 || messenger.messages[0] != "push the statue north" {
		t.Fatalf("expected hint text on OSD, got %v", messenger.messages)
	}
}

func TestOSDChunksLongTextAtWordBoundaries(t *testing.T) {
	messenger := &fakeMessenger{}
	p := newPresenter(t, nil, &fakeRunner{}, messenger)

	long := ""
	for i := 0; i < 60; i++ {
		long += "lantern "
	}
	artifact := &hints.Artifact{Text: long}
	if err := p.Show(context.Background(), artifact); err != nil {
		t.Fatalf("Show: %v", err)
	}

	if len(messenger.messages) < 3 {
		t.Fatalf("expected several chunks plus closer, got %d", len(messenger.messages))
	}
	for _, msg := range messenger.messages[:len(messenger.messages)-1] {
		if len(msg) > 120 {
			t.Fatalf("chunk exceeds OSD limit: %q", msg)
		}
	}
	closer := messenger.messages[len(messenger.messages)-1]
	if closer != "Press Start to unpause and continue" {
		t.Fatalf("unexpected closing message %q", closer)
	}
}

func TestOSDPauseFailurePropagates(t *testing.T) {
	messenger := &fakeMessenger{pauseErr: errors.New("port unreachable")}
	p := newPresenter(t, nil, &fakeRunner{}, messenger)

	err := p.Show(context.Background(), &hints.Artifact{Text: "hint"})
	if err == nil {
		t.Fatal("expected error when pause fails")
	}
}
