// Package screenshot captures and locates emulator screenshots.
//
// RetroArch's SCREENSHOT command gives no reply and no filename, so capture
// is trigger-then-poll: issue the command, then watch the screenshot
// directory for the newest image created after the trigger, bounded by the
// configured wait timeout.
package screenshot

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hinter/internal/config"
	"hinter/internal/logging"
	"hinter/internal/services"
)

const pollInterval = 250 * time.Millisecond

// Trigger issues the capture command on the control port.
type Trigger interface {
	Screenshot(ctx context.Context) error
}

// Capturer locates fresh screenshots in the configured directory.
type Capturer struct {
	dir     string
	timeout time.Duration
	trigger Trigger
	logger  *slog.Logger
}

// New constructs a capturer.
func New(cfg *config.Config, trigger Trigger, logger *slog.Logger) *Capturer {
	return &Capturer{
		dir:     cfg.Paths.ScreenshotDir,
		timeout: time.Duration(cfg.RetroArch.ScreenshotWaitSeconds) * time.Second,
		trigger: trigger,
		logger:  logging.NewComponentLogger(logger, "screenshot"),
	}
}

// Capture triggers a screenshot and returns the path of the resulting file.
// Returns ErrScreenshotTimeout when no new screenshot appears in time.
func (c *Capturer) Capture(ctx context.Context) (string, error) {
	start := time.Now()
	if err := c.trigger.Screenshot(ctx); err != nil {
		return "", err
	}

	deadline := start.Add(c.timeout)
	for {
		if path := c.newestAfter(start); path != "" {
			c.logger.Debug("screenshot located",
				logging.String("path", path),
				logging.Duration("wait", time.Since(start)),
			)
			return path, nil
		}
		if time.Now().After(deadline) {
			return "", services.Wrap(services.ErrScreenshotTimeout, "request", "locate_screenshot",
				c.dir, nil)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// newestAfter returns the newest image file modified after the given instant.
// A one second grace allows for coarse filesystem timestamps.
func (c *Capturer) newestAfter(start time.Time) string {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return ""
	}

	cutoff := start.Add(-time.Second)
	var (
		newest     string
		newestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !isImage(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(c.dir, entry.Name())
			newestTime = info.ModTime()
		}
	}
	return newest
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".bmp", ".jpg", ".jpeg":
		return true
	}
	return false
}
