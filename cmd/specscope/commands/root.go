// Package commands implements the specscope CLI subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/specscope/pkg/config"
	"github.com/Sumatoshi-tech/specscope/pkg/engine"
	"github.com/Sumatoshi-tech/specscope/pkg/observability"
	"github.com/Sumatoshi-tech/specscope/pkg/report"
	"github.com/Sumatoshi-tech/specscope/pkg/version"
)

// ErrNoDatasetPath is returned when neither --dataset nor the config names a dataset.
var ErrNoDatasetPath = errors.New("no dataset path: pass --dataset or set dataset.path")

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath  string
	datasetPath string
	verbose     bool
	quiet       bool
}

// NewRootCommand assembles the specscope command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "specscope",
		Short: "Commit corpus forensics",
		Long: `specscope explores a recorded commit corpus: full file snapshots per
commit, their patches, and the manual review of each change.

Commands:
  inspect   Summarize the dataset or one commit
  audit     Check dataset integrity
  search    Find text across commits
  compare   Diff two commits
  buckets   Aggregate review buckets over time
  timeline  Per-commit magnitude series
  link      Encode or decode a view-state fragment
  schema    JSON schema of structured output
  mcp       Serve the engine as MCP tools`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default ./specscope.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flags.datasetPath, "dataset", "d", "", "dataset JSON file (overrides dataset.path)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "only log errors")

	rootCmd.AddCommand(
		newInspectCommand(flags),
		newAuditCommand(flags),
		newSearchCommand(flags),
		newCompareCommand(flags),
		newBucketsCommand(flags),
		newTimelineCommand(flags),
		newLinkCommand(),
		newSchemaCommand(),
		newMCPCommand(flags),
		newVersionCommand(),
	)

	return rootCmd
}

// env is what a subcommand needs once flags and config are resolved.
type env struct {
	cfg       *config.Config
	providers observability.Providers
	session   *engine.Session
}

func (e *env) close() {
	if err := e.providers.Shutdown(context.Background()); err != nil {
		e.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

// loadConfig resolves configuration and applies flag overrides.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	if f.datasetPath != "" {
		cfg.Dataset.Path = f.datasetPath
	}

	switch {
	case f.verbose:
		cfg.Logging.Level = "debug"
	case f.quiet:
		cfg.Logging.Level = "error"
	}

	return cfg, nil
}

// observabilityConfig maps the loaded config onto telemetry settings.
func observabilityConfig(cfg *config.Config, mode observability.AppMode) (observability.Config, error) {
	level, err := observability.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return observability.Config{}, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.Format == "json"
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.Prometheus = mode == observability.ModeMCP && cfg.Telemetry.MetricsAddr != ""

	return obsCfg, nil
}

// open loads config, starts telemetry, and opens an engine session over the
// configured dataset. The caller must close the returned env.
func (f *rootFlags) open(cmd *cobra.Command, mode observability.AppMode) (*env, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}

	return openEnv(cmd, cfg, mode)
}

func openEnv(cmd *cobra.Command, cfg *config.Config, mode observability.AppMode) (*env, error) {
	if cfg.Dataset.Path == "" {
		return nil, ErrNoDatasetPath
	}

	obsCfg, err := observabilityConfig(cfg, mode)
	if err != nil {
		return nil, err
	}

	providers, err := observability.InitWithWriter(obsCfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	e := &env{cfg: cfg, providers: providers}

	recorder, err := observability.NewEngineMetrics(providers.Meter)
	if err != nil {
		e.close()

		return nil, err
	}

	session, err := engine.OpenFile(cfg.Dataset.Path,
		engine.WithConfig(cfg.EngineConfig()),
		engine.WithLogger(providers.Logger),
		engine.WithRecorder(recorder),
	)
	if err != nil {
		e.close()

		return nil, err
	}

	e.session = session

	providers.Logger.Debug("dataset loaded",
		"path", cfg.Dataset.Path, "commits", len(session.Views()), "session", session.ID())

	return e, nil
}

func (e *env) logger() *slog.Logger {
	return e.providers.Logger
}

// writeOutput writes through fn to --output when set, otherwise to the
// command's stdout.
func writeOutput(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(cmd.OutOrStdout())
	}

	//nolint:gosec // output path is chosen by the CLI user.
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	writeErr := fn(file)
	closeErr := file.Close()

	if writeErr != nil {
		return writeErr
	}

	if closeErr != nil {
		return fmt.Errorf("close output: %w", closeErr)
	}

	return nil
}

// formatFlagHelp lists formats for a --format flag description.
func formatFlagHelp(formats ...string) string {
	return "output format: " + strings.Join(formats, ", ")
}

// validateFormat is report.ValidateFormat for commands.
func validateFormat(format string, formats ...string) (string, error) {
	return report.ValidateFormat(format, formats...)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
