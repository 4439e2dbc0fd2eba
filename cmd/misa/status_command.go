package main

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"misa/internal/config"
	"misa/internal/logging"
	"misa/internal/manifest"
	"misa/internal/stage"
)

type stageStatusJSON struct {
	Stage  string `json:"stage"`
	Ready  bool   `json:"ready"`
	Reason string `json:"reason"`
}

type sectionStatusJSON struct {
	ID    manifest.SectionID `json:"id"`
	Type  string             `json:"type"`
	Title string             `json:"title"`
	Chars int                `json:"chars"`
	Audio string             `json:"audio,omitempty"`
	Voice string             `json:"voice,omitempty"`
}

type statusJSON struct {
	Date     string              `json:"date"`
	Manifest string              `json:"manifest"`
	Exists   bool                `json:"exists"`
	Complete bool                `json:"complete"`
	Stages   []stageStatusJSON   `json:"stages"`
	Sections []sectionStatusJSON `json:"sections,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var date string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which stages are complete for a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			key, err := ctx.resolveDate(date)
			if err != nil {
				return err
			}
			report, err := buildStatus(cfg, key)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			printLines(out, renderSectionHeader("Manifest "+report.Date, colorize))
			if !report.Exists {
				fmt.Fprintln(out, renderStatusLine("Manifest", statusWarn, "not built yet ("+report.Manifest+")", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Manifest", statusInfo, report.Manifest, colorize))
			}
			for _, s := range report.Stages {
				fmt.Fprintln(out, readinessLine(s.Stage, stage.Readiness{Ready: s.Ready, Reason: s.Reason}, colorize))
			}
			if len(report.Sections) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			rows := make([][]string, 0, len(report.Sections))
			for _, s := range report.Sections {
				audio := "-"
				if s.Audio != "" {
					audio = s.Voice
				}
				rows = append(rows, []string{string(s.ID), s.Type, s.Title, strconv.Itoa(s.Chars), audio})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Section", "Type", "Title", "Chars", "Audio"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Manifest date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit status as JSON")
	return cmd
}

// buildStatus evaluates every stage's readiness against the stored manifest
// without running anything.
func buildStatus(cfg *config.Config, date string) (statusJSON, error) {
	store := manifestStore(cfg)
	doc, err := store.Load(date)
	if err != nil {
		return statusJSON{}, err
	}
	stages, err := newStages(cfg, nil, logging.NewNop())
	if err != nil {
		return statusJSON{}, err
	}

	report := statusJSON{
		Date:     date,
		Manifest: store.Path(date),
		Exists:   doc != nil,
		Complete: doc != nil,
		Stages:   make([]stageStatusJSON, 0, len(stages)),
	}
	for _, st := range stages {
		r := st.Ready(doc)
		report.Stages = append(report.Stages, stageStatusJSON{Stage: st.Name(), Ready: r.Ready, Reason: r.Reason})
		if !r.Ready {
			report.Complete = false
		}
	}
	if doc == nil {
		return report, nil
	}
	for _, s := range doc.Sections {
		entry := sectionStatusJSON{
			ID:    s.ID,
			Type:  s.Type,
			Title: s.Title,
			Chars: utf8.RuneCountInString(s.Text),
		}
		if s.Audio != nil {
			entry.Audio = s.Audio.Path
			entry.Voice = s.Audio.VoiceName
		}
		report.Sections = append(report.Sections, entry)
	}
	return report, nil
}
