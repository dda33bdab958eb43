package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/podcast-grabber/internal/logger"
	"github.com/oshokin/podcast-grabber/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// OutputPath is the directory path where downloaded episodes will be saved.
	OutputPath string `mapstructure:"output_path"`
	// TaskCount is the number of episodes to download simultaneously.
	TaskCount int64 `mapstructure:"task_count"`
	// ReplaceExisting indicates whether to replace episode files that already exist.
	ReplaceExisting bool `mapstructure:"replace_existing"`
	// MaxRetries is the number of additional attempts after a failed download.
	// A download makes at most MaxRetries+1 attempts before it is reported as failed.
	MaxRetries int64 `mapstructure:"max_retries"`
	// PerRequestTimeout is the timeout applied to every download attempt (e.g., "2m", "30s").
	PerRequestTimeout string `mapstructure:"per_request_timeout"`
	// MinRetryPause is the minimum pause duration before retrying a failed attempt.
	MinRetryPause string `mapstructure:"min_retry_pause"`
	// MaxRetryPause is the maximum pause duration before retrying a failed attempt.
	MaxRetryPause string `mapstructure:"max_retry_pause"`
	// MaxFilenameLength is the maximum length for the title part of generated filenames.
	MaxFilenameLength int64 `mapstructure:"max_filename_length"`
	// MaxEpisodeSize limits the size of a single episode (e.g., "500MB").
	// Enclosures announcing a larger size are skipped. Empty string disables the limit.
	MaxEpisodeSize string `mapstructure:"max_episode_size"`
	// SaveFeed indicates whether a copy of the feed document is written to the output directory.
	SaveFeed bool `mapstructure:"save_feed"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// DryRun indicates whether to preview downloads without actually downloading files.
	DryRun bool
	// ParsedPerRequestTimeout is the parsed per-attempt timeout.
	ParsedPerRequestTimeout time.Duration
	// ParsedMinRetryPause is the parsed minimum retry pause duration.
	ParsedMinRetryPause time.Duration
	// ParsedMaxRetryPause is the parsed maximum retry pause duration.
	ParsedMaxRetryPause time.Duration
	// ParsedMaxEpisodeSize is the parsed episode size limit in bytes (0 = unlimited).
	ParsedMaxEpisodeSize int64
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".podcast-grabber.yaml"

	// DefaultTaskCount is the default number of concurrent download tasks.
	DefaultTaskCount = 4

	// DefaultMaxRetries is the default number of additional attempts after a failed download.
	DefaultMaxRetries = 3

	// DefaultPerRequestTimeout is the default timeout for a single download attempt.
	DefaultPerRequestTimeout = "2m"

	// DefaultMinRetryPause is the default minimum pause before a retry.
	DefaultMinRetryPause = "1s"

	// DefaultMaxRetryPause is the default maximum pause before a retry.
	DefaultMaxRetryPause = "5s"

	// DefaultMaxFilenameLength is the default maximum length for the title part of filenames.
	DefaultMaxFilenameLength = 120

	// DefaultLogLevel is the default logging verbosity.
	DefaultLogLevel = "info"

	// DefaultMaxLogLength is the default maximum size (in bytes) for dumped HTTP payloads in debug logs.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB
)

// Static error definitions for better error handling.
var (
	// ErrEmptyOutputPath indicates that the output directory is missing.
	ErrEmptyOutputPath = errors.New("output path cannot be empty")
	// ErrInvalidTaskCount indicates that the task count setting is invalid.
	ErrInvalidTaskCount = errors.New("task count must be a positive integer")
	// ErrInvalidMaxRetries indicates that the retry count setting is invalid.
	ErrInvalidMaxRetries = errors.New("max retries cannot be negative")
	// ErrInvalidPerRequestTimeout indicates that the per-request timeout is invalid.
	ErrInvalidPerRequestTimeout = errors.New("per_request_timeout must be positive")
	// ErrInvalidMinRetryPause indicates that the min retry pause duration is invalid.
	ErrInvalidMinRetryPause = errors.New("min_retry_pause cannot be negative")
	// ErrInvalidMaxRetryPause indicates that the max retry pause duration is invalid.
	ErrInvalidMaxRetryPause = errors.New("max_retry_pause cannot be negative")
	// ErrRetryPauseRangeInvalid indicates that max_retry_pause is smaller than min_retry_pause.
	ErrRetryPauseRangeInvalid = errors.New("max_retry_pause cannot be smaller than min_retry_pause")
	// ErrInvalidMaxFilenameLength indicates that the filename length limit is invalid.
	ErrInvalidMaxFilenameLength = errors.New("max_filename_length must be a positive integer")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
)

// setDefaults registers default values so the application runs without a configuration file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("output_path", ".")
	v.SetDefault("task_count", DefaultTaskCount)
	v.SetDefault("replace_existing", false)
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("per_request_timeout", DefaultPerRequestTimeout)
	v.SetDefault("min_retry_pause", DefaultMinRetryPause)
	v.SetDefault("max_retry_pause", DefaultMaxRetryPause)
	v.SetDefault("max_filename_length", DefaultMaxFilenameLength)
	v.SetDefault("max_episode_size", "")
	v.SetDefault("save_feed", false)
	v.SetDefault("log_level", DefaultLogLevel)
}

// LoadConfig loads configuration settings from a YAML file.
// A missing default configuration file is not an error: defaults apply.
// An explicitly provided file that cannot be read is an error.
func LoadConfig(configFilename string) (*Config, error) {
	isExplicit := configFilename != ""
	if !isExplicit {
		configFilename = DefaultConfigFilename
	}

	viper.SetConfigFile(configFilename)
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if isExplicit || !isConfigFileMissing(err) {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// isConfigFileMissing reports whether the error means the config file simply doesn't exist.
func isConfigFileMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}

	return strings.Contains(err.Error(), "no such file or directory")
}

// ValidateConfig checks the configuration for validity and sets derived fields.
func ValidateConfig(cfg *Config) error {
	var err error

	if strings.TrimSpace(cfg.OutputPath) == "" {
		return ErrEmptyOutputPath
	}

	if cfg.TaskCount <= 0 {
		return ErrInvalidTaskCount
	}

	if cfg.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if cfg.MaxFilenameLength <= 0 {
		return ErrInvalidMaxFilenameLength
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	cfg.ParsedPerRequestTimeout, err = time.ParseDuration(cfg.PerRequestTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse per-request timeout: %w", err)
	}

	if cfg.ParsedPerRequestTimeout <= 0 {
		return ErrInvalidPerRequestTimeout
	}

	cfg.ParsedMinRetryPause, err = time.ParseDuration(cfg.MinRetryPause)
	if err != nil {
		return fmt.Errorf("failed to parse min retry pause: %w", err)
	}

	if cfg.ParsedMinRetryPause < 0 {
		return ErrInvalidMinRetryPause
	}

	cfg.ParsedMaxRetryPause, err = time.ParseDuration(cfg.MaxRetryPause)
	if err != nil {
		return fmt.Errorf("failed to parse max retry pause: %w", err)
	}

	if cfg.ParsedMaxRetryPause < 0 {
		return ErrInvalidMaxRetryPause
	}

	if cfg.ParsedMaxRetryPause < cfg.ParsedMinRetryPause {
		return ErrRetryPauseRangeInvalid
	}

	maxEpisodeSize := strings.TrimSpace(cfg.MaxEpisodeSize)
	if maxEpisodeSize != "" && maxEpisodeSize != "0" {
		parsedMaxEpisodeSize, parseErr := humanize.ParseBytes(maxEpisodeSize)
		if parseErr != nil {
			return fmt.Errorf("failed to parse max episode size: %w", parseErr)
		}

		cfg.ParsedMaxEpisodeSize = utils.SafeUint64ToInt64(parsedMaxEpisodeSize)
	}

	return nil
}
