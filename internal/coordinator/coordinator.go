// Package coordinator owns the session state machine and serializes the
// request and view pipelines against each other.
//
// All state transitions pass through one mutex: triggers are handled in
// arrival order, the synchronous capture phase of a request excludes views,
// and the savestate sandwich of a view excludes everything. Only the
// network-bound tail of hint generation runs detached, bounded by a
// single-flight rule.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"hinter/internal/config"
	"hinter/internal/hints"
	"hinter/internal/logging"
	"hinter/internal/notifications"
	"hinter/internal/provider"
	"hinter/internal/quota"
	"hinter/internal/retroarch"
	"hinter/internal/services"
	"hinter/internal/trigger"
	"hinter/internal/usagelog"
)

// SessionState is the single authoritative activity value. At most one
// non-idle state exists at any instant.
type SessionState string

const (
	StateIdle            SessionState = "idle"
	StateRequestInFlight SessionState = "request_in_flight"
	StateViewInProgress  SessionState = "view_in_progress"
)

// ControlPort is the slice of the emulator command interface the pipelines
// use directly.
type ControlPort interface {
	Status(ctx context.Context) (retroarch.Status, error)
	SaveState(ctx context.Context, slot int) error
	LoadState(ctx context.Context, slot int) error
	ShowMessage(ctx context.Context, text string) error
}

// Capturer produces a fresh screenshot and returns its path.
type Capturer interface {
	Capture(ctx context.Context) (string, error)
}

// Renderer turns hint text into viewable files under a directory.
type Renderer interface {
	Render(ctx context.Context, artifact *hints.Artifact, dir string) error
}

// Presenter shows a ready artifact and blocks until dismissal.
type Presenter interface {
	Show(ctx context.Context, artifact *hints.Artifact) error
}

// HintSlot is the atomically replaced current-hint reference.
type HintSlot interface {
	Replace(artifact *hints.Artifact) error
	Load() (*hints.Artifact, error)
}

// HintArchive keeps the append-only copy of every generated hint.
type HintArchive interface {
	Append(artifact *hints.Artifact) error
	CopyImageTo(artifact *hints.Artifact, dir string) (string, error)
}

// Recorder receives structured usage events.
type Recorder interface {
	Record(ctx context.Context, event usagelog.Event) error
}

// Deps bundles the collaborators the coordinator drives.
type Deps struct {
	Control   ControlPort
	Capturer  Capturer
	Generator provider.Provider
	Renderer  Renderer
	Presenter Presenter
	Slot      HintSlot
	Archive   HintArchive
	Ledger    *quota.Ledger
	Usage     Recorder
	Notifier  notifications.Service
}

// Coordinator runs the trigger loop and both pipelines.
type Coordinator struct {
	cfg       *config.Config
	deps      Deps
	logger    *slog.Logger
	sessionID string
	now       func() time.Time
	sleep     func(time.Duration)

	mu         sync.Mutex
	state      SessionState
	generating bool

	background sync.WaitGroup
}

// Savestate writes on some cores (CD-based systems especially) take a
// moment to land; the sandwich waits before and after the display step.
const (
	saveSettle = 2 * time.Second
	loadSettle = 200 * time.Millisecond
)

// Option adjusts coordinator construction.
type Option func(*Coordinator)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithSleep replaces the savestate settle delays, for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(c *Coordinator) { c.sleep = fn }
}

// New wires the coordinator. sessionID tags usage events from this daemon
// run.
func New(cfg *config.Config, deps Deps, sessionID string, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:       cfg,
		deps:      deps,
		logger:    logging.NewComponentLogger(logger, "coordinator"),
		sessionID: sessionID,
		now:       time.Now,
		sleep:     time.Sleep,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current session state.
func (c *Coordinator) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generating reports whether a background generation task is outstanding.
func (c *Coordinator) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

// Run consumes triggers until the context ends, then waits for any
// outstanding background task.
func (c *Coordinator) Run(ctx context.Context, events <-chan trigger.Event) {
	for {
		select {
		case <-ctx.Done():
			c.background.Wait()
			return
		case event := <-events:
			c.handle(ctx, event)
		}
	}
}

// Wait blocks until the outstanding background task, if any, completes.
func (c *Coordinator) Wait() {
	c.background.Wait()
}

func (c *Coordinator) handle(ctx context.Context, event trigger.Event) {
	logger := c.logger.With(
		logging.String(logging.FieldTrigger, event.Kind.String()),
		logging.String("origin", string(event.Origin)),
	)

	var err error
	switch event.Kind {
	case trigger.KindRequest:
		err = c.HandleRequest(ctx)
	case trigger.KindView:
		err = c.HandleView(ctx)
	default:
		logger.Warn("unknown trigger kind")
		return
	}
	if err == nil {
		return
	}
	if services.UserFacing(err) {
		logger.Info("trigger declined", logging.Error(err))
		return
	}
	logger.Error("pipeline failed", logging.Error(err))
}

// HandleRequest runs the synchronous phase of the request pipeline and, on
// success, detaches the generation task.
func (c *Coordinator) HandleRequest(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("request ignored, session busy", logging.String("state", string(state)))
		return nil
	}
	if c.generating {
		c.mu.Unlock()
		c.showMessage(ctx, c.cfg.Hints.MessageGenerating)
		return services.ErrBusy
	}
	c.state = StateRequestInFlight
	c.mu.Unlock()

	artifact, screenshotPath, err := c.captureRequest(ctx)

	c.mu.Lock()
	c.state = StateIdle
	if err == nil {
		c.generating = true
		c.background.Add(1)
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}

	go c.generate(ctx, artifact, screenshotPath)
	return nil
}

// captureRequest covers quota, identity, and screenshot: every step that
// must run while the player is still looking at the moment they asked
// about.
func (c *Coordinator) captureRequest(ctx context.Context) (*hints.Artifact, string, error) {
	now := c.now()

	if err := c.deps.Ledger.TryConsume(now); err != nil {
		var exceeded *quota.ExceededError
		if errors.As(err, &exceeded) {
			c.showMessage(ctx, fmt.Sprintf(c.cfg.Hints.MessageLimitReached, exceeded.Used, exceeded.Limit))
			c.notifyAsync(func(nctx context.Context) error {
				return c.deps.Notifier.NotifyLimitReached(nctx, exceeded.Used, exceeded.Limit)
			})
			c.record(usagelog.Event{Kind: usagelog.EventRateLimited})
			return nil, "", services.Wrap(services.ErrQuotaExceeded, "request", "consume_quota", err.Error(), nil)
		}
		return nil, "", services.Wrap(nil, "request", "consume_quota", "ledger update failed", err)
	}

	status, err := c.deps.Control.Status(ctx)
	if err != nil {
		c.showMessage(ctx, c.cfg.Hints.MessageError)
		return nil, "", services.Wrap(services.ErrControlPortUnreachable, "request", "query_status", "", err)
	}
	if !status.ContentLoaded() {
		c.showMessage(ctx, "No game running!")
		return nil, "", services.Wrap(services.ErrNoActiveGame, "request", "query_status", "", nil)
	}

	game := hints.GameContext{
		System:     retroarch.SystemForCore(status.Core),
		Game:       retroarch.GameTitle(status.Content),
		Core:       status.Core,
		CapturedAt: now,
	}

	c.showMessage(ctx, c.cfg.Hints.MessageGenerating)

	screenshotPath, err := c.deps.Capturer.Capture(ctx)
	if err != nil {
		c.showMessage(ctx, c.cfg.Hints.MessageError)
		return nil, "", err
	}

	c.logger.Info("request captured",
		logging.String(logging.FieldGame, game.Game),
		logging.String(logging.FieldSystem, game.System),
		logging.String("screenshot", screenshotPath),
	)
	return hints.NewArtifact(game, now), screenshotPath, nil
}

// generate runs detached: provider call, render, publish. Exactly one
// attempt; the quota consumed during capture is not refunded on failure.
func (c *Coordinator) generate(ctx context.Context, artifact *hints.Artifact, screenshotPath string) {
	defer func() {
		c.mu.Lock()
		c.generating = false
		c.mu.Unlock()
		c.background.Done()
	}()

	logger := c.logger.With(
		logging.String(logging.FieldHintID, artifact.ID),
		logging.String(logging.FieldGame, artifact.Game.Game),
		logging.String(logging.FieldSystem, artifact.Game.System),
	)

	start := c.now()
	text, err := c.deps.Generator.Generate(ctx, provider.Request{
		ScreenshotPath: screenshotPath,
		System:         artifact.Game.System,
		Game:           artifact.Game.Game,
	})
	elapsed := c.now().Sub(start)

	if err != nil {
		artifact.Status = hints.StatusFailed
		logger.Error("hint generation failed",
			logging.Error(err),
			logging.Duration("api_time", elapsed),
			logging.String(logging.FieldStage, "generate"),
		)
		c.showMessage(ctx, c.cfg.Hints.MessageError)
		c.notifyAsync(func(nctx context.Context) error {
			return c.deps.Notifier.NotifyHintFailed(nctx, artifact.Game.Game, err)
		})
		c.record(usagelog.Event{
			Kind:       usagelog.EventAPIError,
			System:     artifact.Game.System,
			Game:       artifact.Game.Game,
			Core:       artifact.Game.Core,
			ResponseMS: elapsed.Milliseconds(),
			Detail:     err.Error(),
		})
		return
	}

	artifact.Text = text
	logger.Info("hint generated",
		logging.Duration("api_time", elapsed),
		logging.Int("hint_length", len(text)),
	)

	if err := c.publish(ctx, artifact); err != nil {
		logger.Error("hint publish failed",
			logging.Error(err),
			logging.String(logging.FieldStage, "publish"),
		)
		c.showMessage(ctx, c.cfg.Hints.MessageError)
		c.notifyAsync(func(nctx context.Context) error {
			return c.deps.Notifier.NotifyHintFailed(nctx, artifact.Game.Game, err)
		})
		return
	}

	c.showMessage(ctx, c.cfg.Hints.MessageReady)
	c.notifyAsync(func(nctx context.Context) error {
		return c.deps.Notifier.NotifyHintReady(nctx, artifact.Game.Game, artifact.Game.System)
	})
	c.record(usagelog.Event{
		Kind:       usagelog.EventHintGenerated,
		System:     artifact.Game.System,
		Game:       artifact.Game.Game,
		Core:       artifact.Game.Core,
		Success:    true,
		ResponseMS: elapsed.Milliseconds(),
		Detail:     preview(artifact.Text),
	})
	logger.Info("hint ready")
}

// publish renders into a staging directory, archives the immutable copy,
// and atomically replaces the current-hint slot. A render image failure is
// already degraded to text-only inside the renderer.
func (c *Coordinator) publish(ctx context.Context, artifact *hints.Artifact) error {
	staging, err := os.MkdirTemp(c.cfg.Paths.DataDir, "staging-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := c.deps.Renderer.Render(ctx, artifact, staging); err != nil {
		return fmt.Errorf("render hint: %w", err)
	}
	artifact.Status = hints.StatusReady

	if err := c.deps.Archive.Append(artifact); err != nil {
		return fmt.Errorf("archive hint: %w", err)
	}
	if err := c.deps.Slot.Replace(artifact); err != nil {
		return fmt.Errorf("replace current hint: %w", err)
	}

	// Hint images land in the frontend's screenshot gallery too, so they
	// stay browsable after the current slot moves on.
	if dir := c.cfg.Paths.ScreenshotDir; dir != "" {
		if _, err := c.deps.Archive.CopyImageTo(artifact, dir); err != nil {
			c.logger.Warn("gallery copy failed",
				logging.String(logging.FieldHintID, artifact.ID),
				logging.Error(err),
			)
		}
	}
	return nil
}

// HandleView runs the savestate sandwich around the display backend.
func (c *Coordinator) HandleView(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("view ignored, session busy", logging.String("state", string(state)))
		return nil
	}

	artifact, err := c.deps.Slot.Load()
	if err != nil {
		c.mu.Unlock()
		if errors.Is(err, hints.ErrNoHint) {
			c.showMessage(ctx, "No hint ready! Request one first.")
			return nil
		}
		return fmt.Errorf("load current hint: %w", err)
	}
	c.state = StateViewInProgress
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
	}()

	logger := c.logger.With(
		logging.String(logging.FieldHintID, artifact.ID),
		logging.String(logging.FieldGame, artifact.Game.Game),
	)
	slot := c.cfg.RetroArch.SavestateSlot

	// Never display a hint without a corresponding save.
	if err := c.deps.Control.SaveState(ctx, slot); err != nil {
		c.showMessage(ctx, c.cfg.Hints.MessageError)
		return services.Wrap(services.ErrControlPortUnreachable, "view", "save_state", "", err)
	}
	c.sleep(saveSettle)

	if err := c.deps.Presenter.Show(ctx, artifact); err != nil {
		// The save landed, so restore must still run.
		logger.Warn("hint display failed", logging.Error(err))
	}

	c.sleep(loadSettle)
	if err := c.deps.Control.LoadState(ctx, slot); err != nil {
		logger.Error("state restore failed, game may be paused or rewound",
			logging.Error(err),
			logging.Int("slot", slot),
			logging.String(logging.FieldStage, "restore"),
		)
	}

	c.record(usagelog.Event{
		Kind:    usagelog.EventHintViewed,
		System:  artifact.Game.System,
		Game:    artifact.Game.Game,
		Core:    artifact.Game.Core,
		Success: true,
	})
	logger.Info("hint viewing complete")
	return nil
}

// showMessage pushes a short OSD notification; failures are logged only.
func (c *Coordinator) showMessage(ctx context.Context, text string) {
	if err := c.deps.Control.ShowMessage(ctx, text); err != nil {
		c.logger.Debug("on-screen message failed", logging.Error(err))
	}
}

// notifyAsync runs a push notification off the pipeline path.
func (c *Coordinator) notifyAsync(send func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := send(ctx); err != nil {
			c.logger.Debug("notification failed", logging.Error(err))
		}
	}()
}

func (c *Coordinator) record(event usagelog.Event) {
	if c.deps.Usage == nil {
		return
	}
	event.SessionID = c.sessionID
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.deps.Usage.Record(ctx, event); err != nil {
		c.logger.Warn("usage event not recorded", logging.Error(err))
	}
}

func preview(text string) string {
	const limit = 80
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
