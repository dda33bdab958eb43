package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/podcast-grabber/internal/app"
	"github.com/oshokin/podcast-grabber/internal/config"
	"github.com/oshokin/podcast-grabber/internal/logger"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "podcast-grabber [flags] {feed_urls}",
		Short: "Bulk-download podcast episodes referenced by RSS/Atom feeds.",
		Long: `Podcast Grabber is a CLI tool for bulk-downloading podcast episode audio files.

Given one or more feed URLs, it parses each feed, derives timestamp-prefixed
filenames from the episodes' publish dates, and downloads the enclosures
concurrently with a bounded worker pool. Already-present files are skipped
unless told otherwise, and failed downloads are retried with a pause.`,
		Args:             cobra.MinimumNArgs(1),
		PersistentPreRun: initConfig,
		SilenceUsage:     true,
		RunE: func(cmd *cobra.Command, feedURLs []string) error {
			if err := bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
				return fmt.Errorf("failed to parse flags: %w", err)
			}

			return app.ExecuteRootCommand(cmd.Context(), appConfig, feedURLs)
		},
	}
)

// shutdownGracePeriod bounds how long Execute waits for the command
// goroutine to wind down after a termination signal.
const shutdownGracePeriod = 10 * time.Second

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)
	defer stop()

	done := make(chan struct{})

	go func() {
		defer close(done)

		err := rootCmd.ExecuteContext(ctx)

		_ = logger.Logger().Sync()

		cobra.CheckErr(err)
	}()

	if !waitWithGrace(ctx, done, shutdownGracePeriod) {
		logger.Errorf(ctx, "Shutdown grace period of %s expired, exiting", shutdownGracePeriod)
		_ = logger.Logger().Sync()
		os.Exit(1)
	}
}

// waitWithGrace blocks until done is closed. Once ctx is canceled, it keeps
// waiting for at most grace and reports whether done closed in time.
func waitWithGrace(ctx context.Context, done <-chan struct{}, grace time.Duration) bool {
	select {
	case <-done:
		return true
	case <-ctx.Done():
	}

	select {
	case <-done:
		return true
	case <-time.After(grace):
		return false
	}
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	rootCmdFlags := rootCmd.Flags()

	rootCmdFlags.StringP(
		"output",
		"o",
		"",
		"directory to save downloaded episodes (the path will be created if it doesn't exist).")

	rootCmdFlags.Int64P(
		"tasks",
		"t",
		0,
		"number of episodes to download simultaneously.")

	rootCmdFlags.BoolP(
		"replace",
		"r",
		false,
		"replace episode files that already exist instead of skipping them.")

	rootCmdFlags.Int64(
		"retries",
		0,
		"number of additional attempts after a failed download.")

	rootCmdFlags.String(
		"timeout",
		"",
		"timeout for a single download attempt, for example: 30s, 2m.")

	rootCmdFlags.String(
		"max-size",
		"",
		"skip episodes whose announced size exceeds this limit, for example: 200MB.")

	rootCmdFlags.Bool(
		"save-feed",
		false,
		"save a copy of each feed document to the output directory.")

	rootCmdFlags.BoolP(
		"dry-run",
		"n",
		false,
		"preview what would be downloaded without writing any episode files.")

	rootCmdFlags.String(
		"log-level",
		"",
		"logging verbosity: debug, info, warn, error.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	logger.SetLevel(appConfig.ParsedLogLevel)
}

func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("output"); flag != nil && flag.Changed {
		cfg.OutputPath, _ = flags.GetString("output")
	}

	if flag := flags.Lookup("tasks"); flag != nil && flag.Changed {
		cfg.TaskCount, _ = flags.GetInt64("tasks")
	}

	if flag := flags.Lookup("replace"); flag != nil && flag.Changed {
		cfg.ReplaceExisting, _ = flags.GetBool("replace")
	}

	if flag := flags.Lookup("retries"); flag != nil && flag.Changed {
		cfg.MaxRetries, _ = flags.GetInt64("retries")
	}

	if flag := flags.Lookup("timeout"); flag != nil && flag.Changed {
		cfg.PerRequestTimeout, _ = flags.GetString("timeout")
	}

	if flag := flags.Lookup("max-size"); flag != nil && flag.Changed {
		cfg.MaxEpisodeSize, _ = flags.GetString("max-size")
	}

	if flag := flags.Lookup("save-feed"); flag != nil && flag.Changed {
		cfg.SaveFeed, _ = flags.GetBool("save-feed")
	}

	if flag := flags.Lookup("dry-run"); flag != nil && flag.Changed {
		cfg.DryRun, _ = flags.GetBool("dry-run")
	}

	if flag := flags.Lookup("log-level"); flag != nil && flag.Changed {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	logger.SetLevel(cfg.ParsedLogLevel)

	return nil
}
