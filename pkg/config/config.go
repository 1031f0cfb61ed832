package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/pyprune/pkg/analyzers/imports"
)

// Sentinel validation errors.
var (
	// ErrInvalidLogLevel indicates logging.level is not one of debug, info, warn, error.
	ErrInvalidLogLevel = errors.New("invalid logging.level")
	// ErrInvalidLogFormat indicates logging.format is neither text nor json.
	ErrInvalidLogFormat = errors.New("invalid logging.format")
	// ErrInvalidMaxFileSize indicates prune.max_file_size cannot be parsed.
	ErrInvalidMaxFileSize = errors.New("invalid prune.max_file_size")
	// ErrInvalidPolicy indicates an unknown star or future import policy.
	ErrInvalidPolicy = errors.New("invalid import policy")
	// ErrNoExtensions indicates prune.extensions is empty.
	ErrNoExtensions = errors.New("prune.extensions must not be empty")
)

// Config holds all configuration for pyprune.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Prune   PruneConfig   `mapstructure:"prune"   yaml:"prune"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// PruneConfig holds detection and rewrite settings.
type PruneConfig struct {
	Extensions    []string `mapstructure:"extensions"     yaml:"extensions"`
	MaxFileSize   string   `mapstructure:"max_file_size"  yaml:"max_file_size"`
	StarImports   string   `mapstructure:"star_imports"   yaml:"star_imports"`
	FutureImports string   `mapstructure:"future_imports" yaml:"future_imports"`
	AtomicWrite   bool     `mapstructure:"atomic_write"   yaml:"atomic_write"`
	DryRun        bool     `mapstructure:"dry_run"        yaml:"dry_run"`
	Aggressive    bool     `mapstructure:"aggressive"     yaml:"aggressive"`
}

// Default returns the configuration used when no file, env var or flag is set.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Prune: PruneConfig{
			Extensions:    DefaultExtensions(),
			MaxFileSize:   DefaultMaxFileSize,
			StarImports:   DefaultStarImports,
			FutureImports: DefaultFutureImports,
			AtomicWrite:   DefaultAtomicWrite,
			DryRun:        DefaultDryRun,
			Aggressive:    DefaultAggressive,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}

	switch c.Logging.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if len(c.Prune.Extensions) == 0 {
		return ErrNoExtensions
	}

	if _, err := c.MaxFileSizeBytes(); err != nil {
		return err
	}

	_, err := c.AuditorOptions()

	return err
}

// LogLevel converts logging.level to a slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Logging.Level) {
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelInfo, "":
		return slog.LevelInfo, nil
	case LevelWarn, "warning":
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
}

// MaxFileSizeBytes parses prune.max_file_size. Zero means unlimited.
func (c *Config) MaxFileSizeBytes() (uint64, error) {
	if c.Prune.MaxFileSize == "" || c.Prune.MaxFileSize == "0" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.Prune.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidMaxFileSize, c.Prune.MaxFileSize, err)
	}

	return size, nil
}

// AuditorOptions builds the import auditor options.
func (c *Config) AuditorOptions() (imports.Options, error) {
	star, err := imports.ParsePolicy(c.Prune.StarImports)
	if err != nil {
		return imports.Options{}, fmt.Errorf("%w: prune.star_imports: %w", ErrInvalidPolicy, err)
	}

	future, err := imports.ParsePolicy(c.Prune.FutureImports)
	if err != nil {
		return imports.Options{}, fmt.Errorf("%w: prune.future_imports: %w", ErrInvalidPolicy, err)
	}

	return imports.Options{
		Aggressive:    c.Prune.Aggressive,
		StarImports:   star,
		FutureImports: future,
	}, nil
}

// YAML renders the configuration in the same shape as the config file.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return out, nil
}
