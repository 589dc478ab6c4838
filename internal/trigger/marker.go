package trigger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hinter/internal/config"
	"hinter/internal/logging"
)

// Sentinel file names watched inside the data directory. Creating one is
// the scriptable trigger path: `touch .request_hint` asks for a hint from
// a shell with no controller attached.
const (
	MarkerRequest = ".request_hint"
	MarkerView    = ".view_hint"
)

// MarkerWatcher polls the data directory for sentinel files and converts
// each one it removes into a trigger. Deleting before dispatch keeps the
// guarantee of at most one trigger per sentinel creation.
type MarkerWatcher struct {
	dir      string
	interval time.Duration
	dispatch func(Kind, Origin) bool
	logger   *slog.Logger

	mu      sync.Mutex
	quit    chan struct{}
	running bool
}

// NewMarkerWatcher constructs the watcher over the configured data dir.
func NewMarkerWatcher(cfg *config.Config, dispatch func(Kind, Origin) bool, logger *slog.Logger) *MarkerWatcher {
	return &MarkerWatcher{
		dir:      cfg.Paths.DataDir,
		interval: time.Duration(cfg.Input.MarkerPollMillis) * time.Millisecond,
		dispatch: dispatch,
		logger:   logging.NewComponentLogger(logger, "marker-watcher"),
	}
}

// Start launches the polling loop.
func (w *MarkerWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.quit = make(chan struct{})
	w.running = true
	go w.loop(ctx, w.quit)

	w.logger.Info("marker watcher started",
		logging.String("dir", w.dir),
		logging.Duration("interval", w.interval),
	)
}

// Stop ends the polling loop.
func (w *MarkerWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	close(w.quit)
	w.quit = nil
	w.running = false
}

func (w *MarkerWatcher) loop(ctx context.Context, quit <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep checks both sentinels once, emitting a trigger for each one it
// successfully removes.
func (w *MarkerWatcher) Sweep() {
	w.consume(MarkerRequest, KindRequest)
	w.consume(MarkerView, KindView)
}

func (w *MarkerWatcher) consume(name string, kind Kind) {
	path := filepath.Join(w.dir, name)
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		// Lost the race with another remover; that remover owns the
		// trigger.
		if !os.IsNotExist(err) {
			w.logger.Warn("could not remove trigger marker",
				logging.String("path", path),
				logging.Error(err),
			)
		}
		return
	}
	w.dispatch(kind, OriginMarker)
}
