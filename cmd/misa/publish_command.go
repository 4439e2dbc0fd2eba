package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"misa/internal/audio"
	"misa/internal/logging"
	"misa/internal/publish"
	"misa/internal/services"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var date string
	var force bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload a day's manifest and audio to Google Cloud Storage",
		Long: `Upload the manifest and the per-day audio copies for a date to the bucket
configured under [publish]. Incomplete days are refused unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if !cfg.Publish.Enabled {
				return services.Wrap(services.ErrConfiguration, "publish", "publish day",
					"publishing is disabled; set publish.enabled and publish.bucket", nil)
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			key, err := ctx.resolveDate(date)
			if err != nil {
				return err
			}

			if !force {
				report, err := buildStatus(cfg, key)
				if err != nil {
					return err
				}
				if !report.Complete {
					return services.Wrap(services.ErrValidation, "publish", "publish day",
						fmt.Sprintf("manifest for %s is incomplete; run 'misa run --date %s' first or pass --force", key, key), nil)
				}
			}

			uploader, err := publish.NewGCSUploader(cmd.Context(), cfg.Publish.Bucket, cfg.Publish.CredentialsFile, logger)
			if err != nil {
				return err
			}
			defer uploader.Close()

			publisher := publish.NewPublisher(uploader, manifestStore(cfg), audio.Layout{Root: cfg.Paths.AudioDir},
				cfg.Publish.Prefix, logging.NewComponentLogger(logger, "publish"))
			count, err := publisher.PublishDay(cmd.Context(), key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d objects to gs://%s/%s\n", count, cfg.Publish.Bucket, publisher.ObjectName(key, ""))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Manifest date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&force, "force", false, "Publish even if some stages are incomplete")
	return cmd
}
