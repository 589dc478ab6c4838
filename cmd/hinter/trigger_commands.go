package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"hinter/internal/trigger"
)

func newRequestCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "request",
		Short: "Ask the daemon to generate a hint for the running game",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeMarker(cmd, cmdCtx, trigger.MarkerRequest, "hint request")
		},
	}
}

func newViewCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Ask the daemon to display the ready hint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeMarker(cmd, cmdCtx, trigger.MarkerView, "hint view")
		},
	}
}

// writeMarker drops a sentinel file that the daemon's marker watcher picks
// up on its next poll. The file is intentionally empty; its presence is the
// whole message.
func writeMarker(cmd *cobra.Command, cmdCtx *commandContext, name, label string) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	path := filepath.Join(cfg.Paths.DataDir, name)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Errorf("write %s marker: %w", label, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Queued %s; the daemon will pick it up within %dms.\n",
		label, cfg.Input.MarkerPollMillis)
	return nil
}
