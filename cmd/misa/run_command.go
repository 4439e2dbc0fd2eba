package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"misa/internal/pipeline"
)

type runOutcomeJSON struct {
	Stage      string `json:"stage"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type runJSON struct {
	RunID    string           `json:"run_id"`
	Date     string           `json:"date"`
	Manifest string           `json:"manifest"`
	Changed  bool             `json:"changed"`
	Error    string           `json:"error,omitempty"`
	Outcomes []runOutcomeJSON `json:"outcomes"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var date string
	var sourceText string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build or resume the manifest for a date",
		Long: `Run every pipeline stage whose output is missing or stale for the given date.
Completed stages are skipped, so rerunning after a failure resumes where the
previous run stopped.

Examples:
  misa run                                  # today's manifest
  misa run --date 2025-03-02                # a specific day
  misa run --source-text readings.txt       # skip the PDF download`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			key, err := ctx.resolveDate(date)
			if err != nil {
				return err
			}

			orch, ledger, err := newOrchestrator(cfg, sourceText, logger)
			if err != nil {
				return err
			}
			defer ledger.Close()

			result, runErr := orch.Run(cmd.Context(), key)
			if jsonOut {
				if err := writeJSON(cmd, runResultJSON(result, runErr)); err != nil {
					return err
				}
				return runErr
			}
			printRunResult(cmd.OutOrStdout(), result)
			return runErr
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Manifest date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&sourceText, "source-text", "", "Use a pre-extracted readings text file instead of downloading the PDF")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run summary as JSON")
	return cmd
}

func runResultJSON(result pipeline.Result, runErr error) runJSON {
	out := runJSON{
		RunID:    result.RunID,
		Date:     result.Date,
		Manifest: result.Path,
		Changed:  result.Ran(),
		Outcomes: make([]runOutcomeJSON, 0, len(result.Outcomes)),
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	for _, o := range result.Outcomes {
		out.Outcomes = append(out.Outcomes, runOutcomeJSON{
			Stage:      o.Stage,
			Status:     string(o.Status),
			Reason:     o.Reason,
			DurationMS: o.Duration.Milliseconds(),
		})
	}
	return out
}

func printRunResult(w io.Writer, result pipeline.Result) {
	if result.RunID == "" {
		return
	}
	fmt.Fprintf(w, "Run %s for %s\n", result.RunID, result.Date)
	rows := make([][]string, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		rows = append(rows, []string{o.Stage, string(o.Status), formatDuration(o.Duration), o.Reason})
	}
	if len(rows) > 0 {
		fmt.Fprintln(w, renderTable(
			[]string{"Stage", "Status", "Duration", "Reason"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
	fmt.Fprintf(w, "Manifest: %s\n", result.Path)
}
