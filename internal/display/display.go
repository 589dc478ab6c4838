// Package display shows hint artifacts on top of a running emulator.
//
// Batocera-style systems have no desktop compositor, so the presenter picks
// whichever image viewer the firmware ships: fbv or mpv can take over the
// DRM output while RetroArch is suspended, fbi and feh draw to the
// framebuffer or an X display, and when no viewer exists at all the hint
// text is chunked through the RetroArch on-screen message facility with the
// game paused.
package display

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"hinter/internal/config"
	"hinter/internal/deps"
	"hinter/internal/hints"
	"hinter/internal/logging"
	"hinter/internal/trigger"
)

const (
	// BackendRetroArch is the always-available fallback that pauses the
	// game and pushes hint text through the on-screen display.
	BackendRetroArch = "retroarch"

	osdChunkLimit = 120
	osdChunkDelay = 4 * time.Second
	osdFinalDelay = 2 * time.Second

	// suspendSettle gives RetroArch time to stop rendering before a
	// viewer grabs the DRM output, and to release it again afterwards.
	suspendSettle = 300 * time.Millisecond
)

// Messenger is the slice of the control port the OSD fallback needs.
type Messenger interface {
	ShowMessage(ctx context.Context, text string) error
	PauseToggle(ctx context.Context) error
}

// Runner executes a display subprocess and blocks until it exits or the
// context ends. Context cancellation must terminate the subprocess.
type Runner interface {
	Run(ctx context.Context, binary string, args ...string) error
}

// Dismisser blocks until the player presses a controller button. A nil
// Wait error dismisses the viewer early; other returns leave the viewer
// bounded by the dismiss timeout alone.
type Dismisser interface {
	Wait(ctx context.Context) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, binary string, args ...string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run()
}

// Presenter owns the chosen backend and shows artifacts until dismissal.
type Presenter struct {
	backend        string
	dismissTimeout time.Duration
	messenger      Messenger
	runner         Runner
	dismiss        Dismisser
	available      func(string) bool
	sleep          func(time.Duration)
	logger         *slog.Logger
}

// Option adjusts presenter construction, primarily for tests.
type Option func(*Presenter)

// WithRunner replaces the subprocess runner.
func WithRunner(r Runner) Option {
	return func(p *Presenter) { p.runner = r }
}

// WithAvailability replaces the binary probe.
func WithAvailability(fn func(string) bool) Option {
	return func(p *Presenter) { p.available = fn }
}

// WithSleep replaces the delay between OSD chunks.
func WithSleep(fn func(time.Duration)) Option {
	return func(p *Presenter) { p.sleep = fn }
}

// WithDismisser replaces the controller-button dismissal source.
func WithDismisser(d Dismisser) Option {
	return func(p *Presenter) { p.dismiss = d }
}

// New probes the configured backend order once and locks in the first
// viewer that is installed. The RetroArch OSD fallback needs no external
// binary and always terminates the cascade.
func New(cfg *config.Config, messenger Messenger, logger *slog.Logger, opts ...Option) *Presenter {
	p := &Presenter{
		backend:        BackendRetroArch,
		dismissTimeout: time.Duration(cfg.Display.DismissTimeoutSeconds) * time.Second,
		messenger:      messenger,
		runner:         execRunner{},
		available:      deps.Available,
		sleep:          time.Sleep,
		logger:         logging.NewComponentLogger(logger, "display"),
	}
	if waiter := trigger.NewButtonWaiter(cfg); waiter != nil {
		p.dismiss = waiter
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, backend := range cfg.Display.Backends {
		if backend == BackendRetroArch {
			break
		}
		if p.available(backend) {
			p.backend = backend
			break
		}
	}
	p.logger.Info("display backend selected", logging.String(logging.FieldBackend, p.backend))
	return p
}

// Backend reports the viewer chosen at construction.
func (p *Presenter) Backend() string {
	return p.backend
}

// Show presents the artifact and blocks until the viewer exits, the dismiss
// timeout elapses, or the context is cancelled. A viewer failure degrades to
// the OSD fallback rather than erroring out of the view pipeline.
func (p *Presenter) Show(ctx context.Context, artifact *hints.Artifact) error {
	if p.backend != BackendRetroArch && artifact.ImagePath != "" {
		if err := p.showImage(ctx, artifact.ImagePath); err == nil {
			return nil
		} else if ctx.Err() != nil {
			return ctx.Err()
		} else {
			p.logger.Warn("image backend failed, using OSD fallback",
				logging.String(logging.FieldBackend, p.backend),
				logging.Error(err),
			)
		}
	}
	return p.showOSD(ctx, artifact)
}

func (p *Presenter) showImage(ctx context.Context, imagePath string) error {
	if _, err := os.Stat(imagePath); err != nil {
		return fmt.Errorf("hint image unavailable: %w", err)
	}

	viewCtx, cancel := context.WithTimeout(ctx, p.dismissTimeout)
	defer cancel()

	// The viewers run with their own input disabled; the pad is the only
	// control surface, so a button press races the viewer and wins by
	// cancelling its context.
	if p.dismiss != nil {
		go func() {
			if err := p.dismiss.Wait(viewCtx); err == nil {
				p.logger.Info("hint dismissed by controller button",
					logging.String(logging.FieldBackend, p.backend),
				)
				cancel()
			}
		}()
	}

	suspends := p.backend == "fbv" || p.backend == "mpv"
	if suspends {
		p.suspendEmulator(ctx)
		defer p.resumeEmulator()
	}

	p.logger.Info("showing hint image",
		logging.String(logging.FieldBackend, p.backend),
		logging.String("image", imagePath),
	)
	err := p.runner.Run(viewCtx, p.backend, backendArgs(p.backend, imagePath)...)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case viewCtx.Err() != nil:
		// Button press and dismiss timeout both count as dismissal.
		return nil
	}
	return err
}

// backendArgs returns viewer invocations tuned for fullscreen single-image
// display with quiet output.
func backendArgs(backend, imagePath string) []string {
	switch backend {
	case "fbv":
		return []string{"-c", "-f", "-i", imagePath}
	case "mpv":
		return []string{
			"--vo=drm",
			"--image-display-duration=inf",
			"--really-quiet",
			"--no-osc",
			"--no-input-default-bindings",
			imagePath,
		}
	case "fbi":
		return []string{"-T", "1", "-a", "--noverbose", imagePath}
	case "feh":
		return []string{"-F", "-Z", imagePath}
	}
	return []string{imagePath}
}

// suspendEmulator freezes RetroArch so a DRM viewer can take the output.
// Failure is tolerated: the viewer may still win the display race.
func (p *Presenter) suspendEmulator(ctx context.Context) {
	if err := p.runner.Run(ctx, "pkill", "-STOP", "retroarch"); err != nil {
		p.logger.Debug("could not suspend emulator", logging.Error(err))
		return
	}
	p.sleep(suspendSettle)
}

func (p *Presenter) resumeEmulator() {
	// Resume must not inherit a cancelled view context.
	if err := p.runner.Run(context.Background(), "pkill", "-CONT", "retroarch"); err != nil {
		p.logger.Debug("could not resume emulator", logging.Error(err))
	}
	p.sleep(suspendSettle)
}

// showOSD pauses the game and walks the hint text through the on-screen
// display in word-boundary chunks the OSD can fit.
func (p *Presenter) showOSD(ctx context.Context, artifact *hints.Artifact) error {
	if err := p.messenger.PauseToggle(ctx); err != nil {
		return err
	}

	text := strings.Join(strings.Fields(artifact.Text), " ")
	if text == "" {
		if err := p.messenger.ShowMessage(ctx, "Hint ready - check the hints directory"); err != nil {
			return err
		}
		p.sleep(osdFinalDelay)
		return nil
	}

	for _, chunk := range chunkText(text, osdChunkLimit) {
		if err := p.messenger.ShowMessage(ctx, chunk); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		p.sleep(osdChunkDelay)
	}
	if err := p.messenger.ShowMessage(ctx, "Press Start to unpause and continue"); err != nil {
		return err
	}
	p.sleep(osdFinalDelay)
	return nil
}

// chunkText splits text into pieces of at most limit characters, breaking
// at word boundaries. A single word longer than the limit becomes its own
// chunk rather than being split mid-word.
func chunkText(text string, limit int) []string {
	var (
		chunks  []string
		current strings.Builder
	)
	for _, word := range strings.Fields(text) {
		switch {
		case current.Len() == 0:
			current.WriteString(word)
		case current.Len()+1+len(word) <= limit:
			current.WriteByte(' ')
			current.WriteString(word)
		default:
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(word)
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
