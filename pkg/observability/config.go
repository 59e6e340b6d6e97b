package observability

import (
	"fmt"
	"log/slog"
	"strings"
)

// AppMode identifies which host runs the engine.
type AppMode string

// Host modes.
const (
	ModeCLI AppMode = "cli"
	ModeMCP AppMode = "mcp"
)

const (
	defaultServiceName        = "specscope"
	defaultShutdownTimeoutSec = 5
)

// Config holds telemetry and logging settings.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint enables OTLP gRPC export when non-empty.
	OTLPEndpoint string
	OTLPInsecure bool
	OTLPHeaders  map[string]string

	// Prometheus attaches a pull reader and exposes Providers.MetricsHandler.
	Prometheus bool

	// SampleRatio below 1 samples root spans by trace id.
	SampleRatio float64

	LogLevel slog.Level
	LogJSON  bool

	ShutdownTimeoutSec int
}

// DefaultConfig returns a configuration with no exporters.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		SampleRatio:        1,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ParseLevel maps a level name onto an slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", name, err)
	}

	return level, nil
}
