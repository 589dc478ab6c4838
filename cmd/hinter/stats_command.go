package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"hinter/internal/quota"
	"hinter/internal/usagelog"
)

func newStatsCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		recentLimit int
		sinceDays   int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show hint usage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			ledger, err := quota.Open(cfg.LedgerPath(), cfg.Hints.DailyLimit)
			if err != nil {
				return fmt.Errorf("open quota ledger: %w", err)
			}
			stats := ledger.Stats(time.Now())

			for _, line := range renderSectionHeader("Today", colorize) {
				fmt.Fprintln(out, line)
			}
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

			store, err := usagelog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open usage log: %w", err)
			}
			defer store.Close()

			since := time.Now().AddDate(0, 0, -sinceDays)
			counts, err := store.KindCounts(cmd.Context(), since)
			if err != nil {
				return fmt.Errorf("load event counts: %w", err)
			}
			fmt.Fprintln(out)
			for _, line := range renderSectionHeader(fmt.Sprintf("Last %d days", sinceDays), colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Hints generated", statusInfo,
				strconv.Itoa(counts[usagelog.EventHintGenerated]), colorize))
			fmt.Fprintln(out, renderStatusLine("Hints viewed", statusInfo,
				strconv.Itoa(counts[usagelog.EventHintViewed]), colorize))
			fmt.Fprintln(out, renderStatusLine("Rate limited", statusInfo,
				strconv.Itoa(counts[usagelog.EventRateLimited]), colorize))
			fmt.Fprintln(out, renderStatusLine("API errors", statusInfo,
				strconv.Itoa(counts[usagelog.EventAPIError]), colorize))

			totals, err := store.GameTotals(cmd.Context(), 10)
			if err != nil {
				return fmt.Errorf("load game totals: %w", err)
			}
			if len(totals) > 0 {
				rows := make([][]string, 0, len(totals))
				for _, total := range totals {
					rows = append(rows, []string{total.Game, total.System, strconv.Itoa(total.Hints)})
				}
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Top Games", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Game", "System", "Hints"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
			}

			events, err := store.Recent(cmd.Context(), recentLimit)
			if err != nil {
				return fmt.Errorf("load recent events: %w", err)
			}
			if len(events) > 0 {
				rows := make([][]string, 0, len(events))
				for _, event := range events {
					when := event.CreatedAt.Local().Format("2006-01-02 15:04")
					rows = append(rows, []string{when, event.Kind, event.Game, event.System})
				}
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Recent Events", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderTable(
					[]string{"When", "Event", "Game", "System"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&recentLimit, "recent", 10, "Number of recent events to list")
	cmd.Flags().IntVar(&sinceDays, "days", 7, "Window in days for aggregate counts")
	return cmd
}
