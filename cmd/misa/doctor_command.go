package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"misa/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, tools, and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{Probe: probe})

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			printLines(out, renderSectionHeader("misa doctor", colorize))
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			printLines(out, preflightLines(results, colorize))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight checks failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Also call the enrichment API to verify the key")
	return cmd
}
