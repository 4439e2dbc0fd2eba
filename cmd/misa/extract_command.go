package main

import (
	"fmt"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"misa/internal/config"
	"misa/internal/extract"
	"misa/internal/manifest"
)

type extractedSectionJSON struct {
	ID   manifest.SectionID `json:"id"`
	Text string             `json:"text"`
}

type extractJSON struct {
	Sections []extractedSectionJSON `json:"sections"`
	Warnings []string               `json:"warnings,omitempty"`
}

func newExtractCommand(_ *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:         "extract <text-file>",
		Short:       "Slice a readings text file into sections without touching any manifest",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			result, err := extract.Extract(string(data))
			if err != nil {
				return err
			}

			ordered := make([]extractedSectionJSON, 0, len(result.Sections))
			for _, id := range manifest.ReadingIDs {
				if text, ok := result.Sections[id]; ok {
					ordered = append(ordered, extractedSectionJSON{ID: id, Text: text})
				}
			}
			if jsonOut {
				return writeJSON(cmd, extractJSON{Sections: ordered, Warnings: result.Warnings})
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(ordered))
			for _, s := range ordered {
				rows = append(rows, []string{
					string(s.ID),
					strconv.Itoa(utf8.RuneCountInString(s.Text)),
					preview(s.Text, 60),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Section", "Chars", "Begins"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			for _, w := range result.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the extracted sections as JSON")
	return cmd
}
