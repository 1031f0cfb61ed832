// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for pyprune.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strconv"
)

// AppMode identifies the application execution mode.
type AppMode string

// ModeCLI is the CLI command execution mode.
const ModeCLI AppMode = "cli"

const (
	// defaultServiceName is the default OTel service name.
	defaultServiceName = "pyprune"

	// defaultShutdownTimeoutSec is the default shutdown timeout in seconds.
	defaultShutdownTimeoutSec = 5
)

// Standard OTel exporter environment variables.
const (
	envOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOTLPHeaders  = "OTEL_EXPORTER_OTLP_HEADERS"
	envOTLPInsecure = "OTEL_EXPORTER_OTLP_INSECURE"
	envSamplerArg   = "OTEL_TRACES_SAMPLER_ARG"
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; providers become no-op.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// TraceSampleRatio is the fraction of runs whose spans are exported.
	TraceSampleRatio float64

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// LogOutput receives log records. Nil means stderr.
	LogOutput io.Writer

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config with sensible defaults for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		TraceSampleRatio:   1,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ApplyEnv fills the exporter settings from the standard OTEL_EXPORTER_OTLP_*
// variables and the sample ratio from OTEL_TRACES_SAMPLER_ARG.
func (c *Config) ApplyEnv() {
	if endpoint := os.Getenv(envOTLPEndpoint); endpoint != "" {
		c.OTLPEndpoint = endpoint
	}

	if headers := ParseOTLPHeaders(os.Getenv(envOTLPHeaders)); headers != nil {
		c.OTLPHeaders = headers
	}

	if insecure, err := strconv.ParseBool(os.Getenv(envOTLPInsecure)); err == nil {
		c.OTLPInsecure = insecure
	}

	if ratio, err := strconv.ParseFloat(os.Getenv(envSamplerArg), 64); err == nil {
		c.TraceSampleRatio = ratio
	}
}
