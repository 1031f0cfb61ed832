// Package config provides layered configuration for pyprune.
package config

// Logging defaults.
const (
	DefaultLogLevel  = LevelInfo
	DefaultLogFormat = FormatText
)

// Prune defaults.
const (
	DefaultAtomicWrite   = true
	DefaultMaxFileSize   = "10MB"
	DefaultStarImports   = "keep"
	DefaultFutureImports = "keep"
	DefaultDryRun        = false
	DefaultAggressive    = false
)

// DefaultExtensions returns the file extensions accepted without a warning.
func DefaultExtensions() []string {
	return []string{".py"}
}

// Log levels.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)
