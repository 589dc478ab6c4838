package logging

import (
	"log/slog"
	"path/filepath"

	"hinter/internal/config"
)

// NewFromConfig builds the daemon logger: configured format and level,
// written to stdout and the persistent log file under the log directory.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	return New(Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OutputPaths: []string{
			"stdout",
			filepath.Join(cfg.Paths.LogDir, "hinter.log"),
		},
	})
}
