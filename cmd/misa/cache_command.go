package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"misa/internal/audio"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the audio cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize cached renderings per style profile and voice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			stats, err := audio.Stats(cfg.Paths.AudioDir)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Audio root: %s\n", cfg.Paths.AudioDir)
			fmt.Fprintf(out, "Entries: %d (%s), days with audio: %d\n", stats.Entries, formatBytes(stats.Bytes), stats.Days)
			if len(stats.Groups) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(stats.Groups))
			for _, g := range stats.Groups {
				rows = append(rows, []string{g.StyleProfileID, g.Voice, strconv.Itoa(g.Entries), formatBytes(g.Bytes)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Style", "Voice", "Entries", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit cache statistics as JSON")
	return cmd
}
