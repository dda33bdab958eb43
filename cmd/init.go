package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/podcast-grabber/internal/config"
	"github.com/oshokin/podcast-grabber/internal/constants"
	"github.com/oshokin/podcast-grabber/internal/utils"
)

// defaultConfigFile mirrors the configuration file layout for `init`.
type defaultConfigFile struct {
	OutputPath        string `yaml:"output_path"`
	TaskCount         int64  `yaml:"task_count"`
	ReplaceExisting   bool   `yaml:"replace_existing"`
	MaxRetries        int64  `yaml:"max_retries"`
	PerRequestTimeout string `yaml:"per_request_timeout"`
	MinRetryPause     string `yaml:"min_retry_pause"`
	MaxRetryPause     string `yaml:"max_retry_pause"`
	MaxFilenameLength int64  `yaml:"max_filename_length"`
	MaxEpisodeSize    string `yaml:"max_episode_size"`
	SaveFeed          bool   `yaml:"save_feed"`
	LogLevel          string `yaml:"log_level"`
}

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	forceInit bool

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with default settings.",
		Long: `Creates a configuration file pre-filled with default settings
in the current directory (or at the path given by --config).
Existing files are not overwritten unless --force is set.`,
		// The file this command creates does not exist yet,
		// so the root command's configuration loading must not run.
		PersistentPreRun: func(_ *cobra.Command, _ []string) {},
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := configFilenameFromFlag
			if targetPath == "" {
				targetPath = config.DefaultConfigFilename
			}

			exists, err := utils.IsFileExist(targetPath)
			if err != nil {
				return err
			}

			if exists && !forceInit {
				return fmt.Errorf("configuration file '%s' already exists, use --force to overwrite", targetPath)
			}

			content, err := yaml.Marshal(defaultConfigFile{
				OutputPath:        ".",
				TaskCount:         config.DefaultTaskCount,
				MaxRetries:        config.DefaultMaxRetries,
				PerRequestTimeout: config.DefaultPerRequestTimeout,
				MinRetryPause:     config.DefaultMinRetryPause,
				MaxRetryPause:     config.DefaultMaxRetryPause,
				MaxFilenameLength: config.DefaultMaxFilenameLength,
				LogLevel:          config.DefaultLogLevel,
			})
			if err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}

			if err = os.WriteFile(targetPath, content, constants.DefaultFilePermissions); err != nil {
				return fmt.Errorf("failed to write configuration file: %w", err)
			}

			cmd.Printf("Configuration file created at '%s'\n", targetPath)

			return nil
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing configuration file.")

	rootCmd.AddCommand(initCmd)
}
