package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/specscope/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "specscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultIndexBatchSize, cfg.Index.BatchSize)
	assert.Zero(t, cfg.Index.Rate)
	assert.Equal(t, config.DefaultPatchEntries, cfg.Cache.PatchEntries)
	assert.Equal(t, config.DefaultDocumentEntries, cfg.Cache.DocumentEntries)
	assert.Equal(t, uint64(64_000_000), cfg.Cache.DocumentMaxBytesValue())
	assert.Equal(t, config.DefaultDiffMaxLines, cfg.Diff.MaxLines)
	assert.Equal(t, config.DefaultDistanceSlack, cfg.Distance.Slack)
	assert.Equal(t, config.DefaultDistanceFactor, cfg.Distance.Factor)
	assert.Equal(t, config.DefaultSearchLimit, cfg.Search.DefaultLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
dataset:
  path: "/data/corpus.json.lz4"
index:
  batch_size: 5
  rate: 2.5
cache:
  document_max_bytes: "2 MiB"
diff:
  max_lines: 1200
logging:
  level: debug
  format: json
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/corpus.json.lz4", cfg.Dataset.Path)
	assert.Equal(t, 5, cfg.Index.BatchSize)
	assert.InDelta(t, 2.5, cfg.Index.Rate, 1e-12)
	assert.Equal(t, uint64(2<<20), cfg.Cache.DocumentMaxBytesValue())
	assert.Equal(t, 1200, cfg.Diff.MaxLines)
	assert.Equal(t, "json", cfg.Logging.Format)

	ec := cfg.EngineConfig()
	assert.Equal(t, 5, ec.BatchSize)
	assert.Equal(t, int64(2<<20), ec.DocumentMaxBytes)
	assert.Equal(t, 1200, ec.DiffMaxLines)
	assert.Equal(t, config.DefaultSnippetRadius, ec.SnippetRadius)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SPECSCOPE_INDEX_BATCH_SIZE", "7")
	t.Setenv("SPECSCOPE_SEARCH_DEFAULT_LIMIT", "3")
	t.Setenv("SPECSCOPE_DATASET_PATH", "/tmp/env.json")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Index.BatchSize)
	assert.Equal(t, 3, cfg.Search.DefaultLimit)
	assert.Equal(t, "/tmp/env.json", cfg.Dataset.Path)
}

func TestLoadConfigFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DotEnvFile),
		[]byte("SPECSCOPE_DIFF_MAX_LINES=99\n"), 0o600))

	t.Chdir(dir)
	t.Setenv("SPECSCOPE_DIFF_MAX_LINES", "")
	require.NoError(t, os.Unsetenv("SPECSCOPE_DIFF_MAX_LINES"))

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 99, cfg.Diff.MaxLines)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"batch size", "index:\n  batch_size: 0\n", config.ErrInvalidBatchSize},
		{"rate", "index:\n  rate: -1\n", config.ErrInvalidIndexRate},
		{"cache entries", "cache:\n  patch_entries: 0\n", config.ErrInvalidCacheSize},
		{"cache bytes", "cache:\n  document_max_bytes: lots\n", config.ErrInvalidCacheSize},
		{"max lines", "diff:\n  max_lines: -5\n", config.ErrInvalidMaxLines},
		{"distance", "distance:\n  slack: -1\n", config.ErrInvalidDistance},
		{"limit", "search:\n  default_limit: 0\n", config.ErrInvalidLimit},
		{"log level", "logging:\n  level: loud\n", config.ErrInvalidLogLevel},
		{"log format", "logging:\n  format: xml\n", config.ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}
