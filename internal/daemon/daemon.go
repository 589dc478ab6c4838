// Package daemon assembles the hint system and enforces single-instance
// execution.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"hinter/internal/config"
	"hinter/internal/coordinator"
	"hinter/internal/display"
	"hinter/internal/hints"
	"hinter/internal/logging"
	"hinter/internal/notifications"
	"hinter/internal/provider"
	"hinter/internal/quota"
	"hinter/internal/render"
	"hinter/internal/retroarch"
	"hinter/internal/screenshot"
	"hinter/internal/trigger"
	"hinter/internal/usagelog"
)

// Daemon owns the trigger producers, the coordinator loop, and the usage
// store lifecycle.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	sessionID string

	source  *trigger.Source
	pad     *trigger.Pad
	markers *trigger.MarkerWatcher
	hotplug *trigger.HotplugMonitor
	coord   *coordinator.Coordinator
	usage   *usagelog.Store
	ledger  *quota.Ledger

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Session      coordinator.SessionState
	Generating   bool
	PadAttached  bool
	QuotaUsed    int
	QuotaLimit   int
	LockFilePath string
}

// New constructs a daemon with all collaborators wired. sessionID tags
// usage events from this run.
func New(cfg *config.Config, sessionID string, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	client := retroarch.NewClient(cfg, logger)
	capturer := screenshot.New(cfg, client, logger)
	generator, err := provider.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure provider: %w", err)
	}
	renderer := render.New(cfg, logger)
	presenter := display.New(cfg, client, logger)
	slot := hints.NewSlot(cfg.Paths.DataDir)
	archive := hints.NewArchive(cfg.ArchiveDir())
	notifier := notifications.NewService(cfg)

	ledger, err := quota.Open(cfg.LedgerPath(), cfg.Hints.DailyLimit)
	if err != nil {
		return nil, fmt.Errorf("open quota ledger: %w", err)
	}
	usage, err := usagelog.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open usage log: %w", err)
	}

	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		sessionID: sessionID,
		usage:     usage,
		ledger:    ledger,
		lockPath:  cfg.DaemonLockPath(),
	}
	d.lock = flock.New(d.lockPath)

	d.coord = coordinator.New(cfg, coordinator.Deps{
		Control:   client,
		Capturer:  capturer,
		Generator: generator,
		Renderer:  renderer,
		Presenter: presenter,
		Slot:      slot,
		Archive:   archive,
		Ledger:    ledger,
		Usage:     usage,
		Notifier:  notifier,
	}, sessionID, logger)

	d.source = trigger.NewSource(cfg, logger)
	d.markers = trigger.NewMarkerWatcher(cfg, d.source.Dispatch, logger)
	d.pad, err = trigger.NewPad(cfg, d.source.Dispatch, logger)
	if err != nil {
		_ = usage.Close()
		return nil, fmt.Errorf("configure controller chords: %w", err)
	}
	d.hotplug = trigger.NewHotplugMonitor(cfg, d.attachPad, logger)

	return d, nil
}

func (d *Daemon) attachPad(ctx context.Context) error {
	if d.pad.Running() {
		return nil
	}
	return d.pad.Start(ctx)
}

// Start acquires the instance lock and launches all loops.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another hinter daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})

	d.markers.Start(d.ctx)
	if err := d.pad.Start(d.ctx); err != nil {
		// NewPad validates chords up front; Start itself degrades
		// silently, so this is unexpected.
		d.logger.Warn("controller listener failed to start", logging.Error(err))
	}
	if err := d.hotplug.Start(d.ctx); err != nil {
		d.logger.Warn("hotplug monitor failed to start", logging.Error(err))
	}

	go func() {
		defer close(d.done)
		d.coord.Run(d.ctx, d.source.Events())
	}()

	d.running.Store(true)
	d.logger.Info("hinter daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldSessionID, d.sessionID),
	)
	return nil
}

// Stop halts all loops, waits for the coordinator to drain, and releases
// the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.hotplug.Stop()
	d.pad.Stop()
	d.markers.Stop()
	if d.done != nil {
		<-d.done
		d.done = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("hinter daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	if d.usage != nil {
		return d.usage.Close()
	}
	return nil
}

// Status returns the current daemon status snapshot.
func (d *Daemon) Status() Status {
	stats := d.ledger.Stats(time.Now())
	return Status{
		Running:      d.running.Load(),
		Session:      d.coord.State(),
		Generating:   d.coord.Generating(),
		PadAttached:  d.pad.Running(),
		QuotaUsed:    stats.Used,
		QuotaLimit:   stats.Limit,
		LockFilePath: d.lockPath,
	}
}
