// Package config provides configuration loading and validation for specscope.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/specscope/pkg/engine"
)

// Sentinel validation errors.
var (
	ErrInvalidBatchSize = errors.New("index batch size must be positive")
	ErrInvalidIndexRate = errors.New("index rate must not be negative")
	ErrInvalidCacheSize = errors.New("cache size must be positive")
	ErrInvalidMaxLines  = errors.New("diff max lines must be positive")
	ErrInvalidDistance  = errors.New("distance slack and factor must not be negative")
	ErrInvalidLimit     = errors.New("search limit must be positive")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// EnvPrefix prefixes every environment override, e.g. SPECSCOPE_INDEX_BATCH_SIZE.
const EnvPrefix = "SPECSCOPE"

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// Config holds all configuration for specscope.
type Config struct {
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Index     IndexConfig     `mapstructure:"index"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Diff      DiffConfig      `mapstructure:"diff"`
	Distance  DistanceConfig  `mapstructure:"distance"`
	Search    SearchConfig    `mapstructure:"search"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// DatasetConfig locates the corpus file.
type DatasetConfig struct {
	Path string `mapstructure:"path"`
}

// IndexConfig tunes the background search index build.
type IndexConfig struct {
	BatchSize int `mapstructure:"batch_size"`
	// Rate is batches per second; 0 runs unpaced.
	Rate float64 `mapstructure:"rate"`
}

// CacheConfig sizes the session caches.
type CacheConfig struct {
	PatchEntries     int    `mapstructure:"patch_entries"`
	DocumentEntries  int    `mapstructure:"document_entries"`
	DocumentMaxBytes string `mapstructure:"document_max_bytes"`

	documentMaxBytes uint64
}

// DocumentMaxBytesValue returns the parsed document cache byte limit.
func (c *CacheConfig) DocumentMaxBytesValue() uint64 {
	return c.documentMaxBytes
}

// DiffConfig holds the line diff guard.
type DiffConfig struct {
	MaxLines int `mapstructure:"max_lines"`
}

// DistanceConfig holds the bounded edit distance heuristic.
type DistanceConfig struct {
	Slack  int `mapstructure:"slack"`
	Factor int `mapstructure:"factor"`
}

// SearchConfig holds search result shaping.
type SearchConfig struct {
	DefaultLimit  int `mapstructure:"default_limit"`
	SnippetRadius int `mapstructure:"snippet_radius"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds exporter settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
}

// LoadConfig loads configuration from defaults, an optional YAML file, an
// optional .env file, and environment variables, in increasing precedence.
func LoadConfig(configPath string) (*Config, error) {
	dotEnvErr := godotenv.Load(DotEnvFile)
	if dotEnvErr != nil && !errors.Is(dotEnvErr, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", DotEnvFile, dotEnvErr)
	}

	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("specscope")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/specscope")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("dataset.path", DefaultDatasetPath)

	viperCfg.SetDefault("index.batch_size", DefaultIndexBatchSize)
	viperCfg.SetDefault("index.rate", DefaultIndexRate)

	viperCfg.SetDefault("cache.patch_entries", DefaultPatchEntries)
	viperCfg.SetDefault("cache.document_entries", DefaultDocumentEntries)
	viperCfg.SetDefault("cache.document_max_bytes", DefaultDocumentMaxBytes)

	viperCfg.SetDefault("diff.max_lines", DefaultDiffMaxLines)
	viperCfg.SetDefault("distance.slack", DefaultDistanceSlack)
	viperCfg.SetDefault("distance.factor", DefaultDistanceFactor)

	viperCfg.SetDefault("search.default_limit", DefaultSearchLimit)
	viperCfg.SetDefault("search.snippet_radius", DefaultSnippetRadius)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.metrics_addr", "")
}

// validateConfig validates the configuration and resolves derived values.
func validateConfig(config *Config) error {
	if config.Index.BatchSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, config.Index.BatchSize)
	}

	if config.Index.Rate < 0 {
		return fmt.Errorf("%w: %g", ErrInvalidIndexRate, config.Index.Rate)
	}

	if config.Cache.PatchEntries <= 0 || config.Cache.DocumentEntries <= 0 {
		return fmt.Errorf("%w: patch=%d document=%d",
			ErrInvalidCacheSize, config.Cache.PatchEntries, config.Cache.DocumentEntries)
	}

	maxBytes, err := humanize.ParseBytes(config.Cache.DocumentMaxBytes)
	if err != nil || maxBytes == 0 {
		return fmt.Errorf("%w: document_max_bytes %q", ErrInvalidCacheSize, config.Cache.DocumentMaxBytes)
	}

	config.Cache.documentMaxBytes = maxBytes

	if config.Diff.MaxLines <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxLines, config.Diff.MaxLines)
	}

	if config.Distance.Slack < 0 || config.Distance.Factor < 0 {
		return fmt.Errorf("%w: slack=%d factor=%d", ErrInvalidDistance, config.Distance.Slack, config.Distance.Factor)
	}

	if config.Search.DefaultLimit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, config.Search.DefaultLimit)
	}

	switch strings.ToLower(config.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	switch config.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	return nil
}

// EngineConfig maps the loaded settings onto session tunables.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		BatchSize:            c.Index.BatchSize,
		PatchCacheEntries:    c.Cache.PatchEntries,
		DocumentCacheEntries: c.Cache.DocumentEntries,
		DocumentMaxBytes:     int64(min(c.Cache.documentMaxBytes, 1<<62)),
		DiffMaxLines:         c.Diff.MaxLines,
		DistanceSlack:        c.Distance.Slack,
		DistanceFactor:       c.Distance.Factor,
		SearchLimit:          c.Search.DefaultLimit,
		SnippetRadius:        c.Search.SnippetRadius,
	}
}
