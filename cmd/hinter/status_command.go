package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"hinter/internal/hints"
	"hinter/internal/logging"
	"hinter/internal/quota"
	"hinter/internal/retroarch"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, emulator, and hint status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Hinter Status", colorize) {
				fmt.Fprintln(out, line)
			}

			// The daemon holds this lock for its lifetime; if we can take
			// it, nothing else has it.
			lock := flock.New(cfg.DaemonLockPath())
			if ok, err := lock.TryLock(); err != nil {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, err.Error(), colorize))
			} else if ok {
				_ = lock.Unlock()
				fmt.Fprintln(out, renderStatusLine("Daemon", statusError, "not running", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, "running", colorize))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			defer cancel()
			client := retroarch.NewClient(cfg, logging.NewNop())
			if status, err := client.Status(ctx); err != nil {
				fmt.Fprintln(out, renderStatusLine("RetroArch", statusError, "unreachable at "+client.Addr(), colorize))
			} else if !status.ContentLoaded() {
				fmt.Fprintln(out, renderStatusLine("RetroArch", statusWarn, "no content loaded", colorize))
			} else {
				game := retroarch.GameTitle(status.Content)
				system := retroarch.SystemForCore(status.Core)
				fmt.Fprintln(out, renderStatusLine("RetroArch", statusOK, fmt.Sprintf("%s (%s)", game, system), colorize))
			}

			slot := hints.NewSlot(cfg.Paths.DataDir)
			if artifact, err := slot.Load(); err != nil {
				fmt.Fprintln(out, renderStatusLine("Current hint", statusInfo, "none", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Current hint", statusOK,
					fmt.Sprintf("%s (%s, %s)", artifact.Game.Game, artifact.Game.System, artifact.ID), colorize))
			}

			ledger, err := quota.Open(cfg.LedgerPath(), cfg.Hints.DailyLimit)
			if err != nil {
				return fmt.Errorf("open quota ledger: %w", err)
			}
			stats := ledger.Stats(time.Now())
			if stats.Limit <= 0 {
				fmt.Fprintln(out, renderStatusLine("Daily quota", statusInfo, "disabled", colorize))
			} else {
				kind := statusOK
				if stats.Remaining == 0 {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Daily quota", kind,
					fmt.Sprintf("%d/%d used, %d remaining", stats.Used, stats.Limit, stats.Remaining), colorize))
			}
			return nil
		},
	}
}
