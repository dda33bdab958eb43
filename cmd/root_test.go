package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/podcast-grabber/internal/config"
)

const testBaseConfigContent = `
output_path: "/config/output"
task_count: 4
replace_existing: false
max_retries: 3
per_request_timeout: "2m"
min_retry_pause: "1s"
max_retry_pause: "5s"
max_filename_length: 120
max_episode_size: ""
save_feed: false
log_level: "info"
`

// newTestFlagSet builds a flag set with the same definitions as the root command.
func newTestFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("output", "o", "", "")
	flags.Int64P("tasks", "t", 0, "")
	flags.BoolP("replace", "r", false, "")
	flags.Int64("retries", 0, "")
	flags.String("timeout", "", "")
	flags.String("max-size", "", "")
	flags.Bool("save-feed", false, "")
	flags.BoolP("dry-run", "n", false, "")
	flags.String("log-level", "", "")

	return flags
}

// loadTestConfig writes the base config to a temp file and loads it.
//
//nolint:tparallel // Viper keeps global state, so config loading can't run in parallel.
func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "test-config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(testBaseConfigContent), 0o644))

	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)

	return cfg
}

// TestFlagOverrides tests that command-line flags correctly override configuration file values.
//
//nolint:tparallel // Cannot run in parallel due to Viper global state.
func TestFlagOverrides(t *testing.T) {
	tests := []struct {
		name           string
		flags          map[string]string
		expectedConfig func(*testing.T, *config.Config)
	}{
		{
			name:  "no flags - use config values",
			flags: map[string]string{},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/config/output", cfg.OutputPath)
				assert.Equal(t, int64(4), cfg.TaskCount)
				assert.False(t, cfg.ReplaceExisting)
				assert.Equal(t, int64(3), cfg.MaxRetries)
			},
		},
		{
			name: "output flag only - override output path",
			flags: map[string]string{
				"output": "/flag/output",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/flag/output", cfg.OutputPath)
				assert.Equal(t, int64(4), cfg.TaskCount)
			},
		},
		{
			name: "tasks flag only - override concurrency",
			flags: map[string]string{
				"tasks": "8",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, int64(8), cfg.TaskCount)
				assert.Equal(t, "/config/output", cfg.OutputPath)
			},
		},
		{
			name: "all flags - override everything",
			flags: map[string]string{
				"output":    "/all/flags/output",
				"tasks":     "2",
				"replace":   "true",
				"retries":   "5",
				"timeout":   "45s",
				"max-size":  "200MB",
				"save-feed": "true",
				"dry-run":   "true",
				"log-level": "debug",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/all/flags/output", cfg.OutputPath)
				assert.Equal(t, int64(2), cfg.TaskCount)
				assert.True(t, cfg.ReplaceExisting)
				assert.Equal(t, int64(5), cfg.MaxRetries)
				assert.Equal(t, "45s", cfg.PerRequestTimeout)
				assert.Equal(t, "200MB", cfg.MaxEpisodeSize)
				assert.True(t, cfg.SaveFeed)
				assert.True(t, cfg.DryRun)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, int64(200*1000*1000), cfg.ParsedMaxEpisodeSize)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadTestConfig(t)

			flags := newTestFlagSet()
			for name, value := range tt.flags {
				require.NoError(t, flags.Set(name, value))
			}

			require.NoError(t, bindFlagsToConfig(flags, cfg))
			tt.expectedConfig(t, cfg)
		})
	}
}

// TestFlagOverrides_InvalidValues tests that invalid flag values fail validation.
//
//nolint:tparallel // Cannot run in parallel due to Viper global state.
func TestFlagOverrides_InvalidValues(t *testing.T) {
	tests := []struct {
		name          string
		flags         map[string]string
		expectedError error
	}{
		{
			name:          "zero tasks",
			flags:         map[string]string{"tasks": "0"},
			expectedError: config.ErrInvalidTaskCount,
		},
		{
			name:          "negative retries",
			flags:         map[string]string{"retries": "-1"},
			expectedError: config.ErrInvalidMaxRetries,
		},
		{
			name:          "empty output",
			flags:         map[string]string{"output": "   "},
			expectedError: config.ErrEmptyOutputPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadTestConfig(t)

			flags := newTestFlagSet()
			for name, value := range tt.flags {
				require.NoError(t, flags.Set(name, value))
			}

			assert.ErrorIs(t, bindFlagsToConfig(flags, cfg), tt.expectedError)
		})
	}
}

// TestWaitWithGrace tests that shutdown waits for the command goroutine
// and only gives up once the grace period runs out.
func TestWaitWithGrace(t *testing.T) {
	t.Parallel()

	t.Run("returns when work finishes before cancellation", func(t *testing.T) {
		t.Parallel()

		done := make(chan struct{})
		close(done)

		assert.True(t, waitWithGrace(context.Background(), done, time.Second))
	})

	t.Run("waits for work finishing after cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan struct{})

		go func() {
			time.Sleep(10 * time.Millisecond)
			close(done)
		}()

		assert.True(t, waitWithGrace(ctx, done, time.Second))
	})

	t.Run("gives up when the grace period expires", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.False(t, waitWithGrace(ctx, make(chan struct{}), 10*time.Millisecond))
	})
}
