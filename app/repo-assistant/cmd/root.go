package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cchalm/repo-assistant/internal/config"
	"github.com/cchalm/repo-assistant/internal/logging"
	"github.com/cchalm/repo-assistant/internal/telemetry"
)

var (
	cfg      config.Config
	logger   = logging.NewNop()
	provider *telemetry.Provider

	flags struct {
		perPage     int
		fallbackOrg string
		dev         bool
		json        bool
	}
)

var rootCmd = &cobra.Command{
	Use:   "repo-assistant",
	Short: "Ask questions about GitHub repositories in plain language",
	Long: `repo-assistant resolves plain-language requests such as "show 5 issues from vercel/next.js"
into GitHub API calls and prints the results. It can also run as an HTTP API, or as a chat
with Claude using the same tools.`,
	SilenceUsage:       true,
	PersistentPreRunE:  loadRootConfig,
	PersistentPostRunE: shutdown,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("per-page") {
		cfg.DefaultPerPage = flags.perPage
	}
	if cmd.Flags().Changed("fallback-org") {
		cfg.FallbackOrg = flags.fallbackOrg
	}
	if flags.dev {
		cfg.Env = config.EnvDev
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := logging.New(cfg.IsDev())
	if err != nil {
		return err
	}
	logger = l

	provider, err = telemetry.NewProvider(cmd.Context(), telemetry.Config{
		Enabled:      cfg.TelemetryEnabled,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     cfg.IsDev(),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create telemetry provider: %w", err)
	}
	return nil
}

func shutdown(_ *cobra.Command, _ []string) error {
	if provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("failed to shut down telemetry", zap.Error(err))
		}
	}
	// Sync fails harmlessly on terminals
	_ = logger.Sync()
	return nil
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flags.perPage, "per-page", config.DefaultPerPage, "Results per request when the request does not say (1-100)")
	rootCmd.PersistentFlags().StringVar(&flags.fallbackOrg, "fallback-org", "", "Organization to list when a request names no account")
	rootCmd.PersistentFlags().BoolVar(&flags.dev, "dev", false, "Human-readable debug logging")
}
