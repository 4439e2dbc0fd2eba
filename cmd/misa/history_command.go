package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"misa/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var date string
	var runID string
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded stage outcomes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			filter := history.Filter{RunID: strings.TrimSpace(runID), Limit: limit}
			if strings.TrimSpace(date) != "" {
				if filter.Date, err = ctx.resolveDate(date); err != nil {
					return err
				}
			}

			ledger, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer ledger.Close()

			entries, err := ledger.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if jsonOut {
				if entries == nil {
					entries = []history.Entry{}
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				detail := e.Reason
				if e.Status == history.StatusFailed {
					detail = e.ErrorKind + ": " + e.ErrorMessage
				}
				rows = append(rows, []string{
					e.StartedAt.Local().Format("2006-01-02 15:04:05"),
					e.Date,
					e.Stage,
					string(e.Status),
					formatDuration(e.Duration),
					preview(detail, 60),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Date", "Stage", "Status", "Duration", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Only show runs for this date")
	cmd.Flags().StringVar(&runID, "run", "", "Only show stages from this run id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit entries as JSON")
	return cmd
}
