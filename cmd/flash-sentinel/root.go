package main

import (
	"github.com/nholik/flash-sentinel/internal/config"
	"github.com/nholik/flash-sentinel/internal/logging"
	"github.com/nholik/flash-sentinel/internal/metrics"
	"github.com/nholik/flash-sentinel/internal/notify"
	"github.com/nholik/flash-sentinel/internal/runner"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flash-sentinel",
		Short: "Collect FlashArray or FlashBlade health and inventory for the monitoring host",
		Long: `flash-sentinel reads an agent document (JSON) on stdin, queries the
FlashArray or FlashBlade REST API and writes the results and inventory
sections to stdout.

Process settings come from FS_* environment variables or a local .env file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runAgent,
	}
	cmd.Flags().String("product", "", "flasharray or flashblade (overrides FS_PRODUCT)")
	cmd.AddCommand(newMockCommand(), newCheckCommand())
	return cmd
}

func runAgent(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New()
		bootLogger.Error().Err(err).Msg("failed to load configuration")
		return &exitError{code: 1, err: err}
	}
	logger := logging.NewWriter(cmd.ErrOrStderr(), cfg.LogLevel)

	if value, _ := cmd.Flags().GetString("product"); value != "" {
		product, err := config.ParseProduct(value)
		if err != nil {
			logger.Error().Err(err).Msg("invalid --product")
			return &exitError{code: 1, err: err}
		}
		cfg.Product = product
	}

	customizations, err := config.LoadCustomizationFile(cfg.HardwareCustomizationsFile)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load hardware customizations")
		return &exitError{code: 1, err: err}
	}

	notifier, err := notify.Build(logger, notify.Settings{
		SlackWebhookURL: cfg.SlackWebhookURL,
		WebhookURL:      cfg.WebhookURL,
		WebhookTemplate: cfg.WebhookTemplate,
		DryRun:          cfg.NotifyDryRun,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to configure notifications")
		return &exitError{code: 1, err: err}
	}

	r := runner.New(logger,
		runner.WithMetrics(metrics.New()),
		runner.WithMetricsFile(cfg.MetricsFile),
		runner.WithNotifier(notifier),
		runner.WithCustomizations(customizations),
		runner.WithRequestTimeout(cfg.RequestTimeout),
		runner.WithProduct(cfg.Product),
	)
	if err := r.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		return &exitError{code: runner.ExitCode(err), err: err}
	}
	return nil
}
