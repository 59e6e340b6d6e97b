package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/specscope/pkg/mcp"
	"github.com/Sumatoshi-tech/specscope/pkg/observability"
	"github.com/Sumatoshi-tech/specscope/pkg/sched"
)

const (
	metricsPath            = "/metrics"
	metricsReadTimeout     = 5 * time.Second
	metricsShutdownTimeout = 5 * time.Second
)

func newMCPCommand(flags *rootFlags) *cobra.Command {
	var (
		debug       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the engine as MCP tools",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The corpus is indexed in the background; searches made before indexing
finishes report partial progress. Send SIGHUP to reload the dataset file.

Tools:
  - corpus_search: text search across commits or within one commit
  - corpus_compare: line diff between two commits
  - corpus_buckets: review bucket aggregation over time
  - corpus_timeline: normalized per-commit magnitude
  - corpus_link: view-state fragment encode and decode
  - corpus_commit: one commit's metadata and bucket weights
  - corpus_status: session id, index progress and cache counters`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			cfg.Logging.Format = "json"

			if debug {
				cfg.Logging.Level = "debug"
			}

			if metricsAddr != "" {
				cfg.Telemetry.MetricsAddr = metricsAddr
			}

			e, err := openEnv(cmd, cfg, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer e.close()

			red, err := observability.NewREDMetrics(e.providers.Meter)
			if err != nil {
				return err
			}

			srv, err := mcp.NewServer(mcp.ServerDeps{
				Session:   e.session,
				Scheduler: sched.NewPaced(cfg.Index.Rate),
				Logger:    e.logger(),
				Metrics:   red,
				Tracer:    e.providers.Tracer,
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if e.providers.MetricsHandler != nil {
				stopMetrics, serveErr := serveMetrics(ctx, e, red, cfg.Telemetry.MetricsAddr)
				if serveErr != nil {
					return serveErr
				}
				defer stopMetrics()
			}

			go reloadOnHangup(ctx, e, srv, cfg.Dataset.Path)

			return srv.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging to stderr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")

	return cmd
}

// serveMetrics exposes the Prometheus handler until the returned stop is called.
func serveMetrics(ctx context.Context, e *env, red *observability.REDMetrics, addr string) (func(), error) {
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, observability.InstrumentHTTP(e.providers.Tracer, red, e.providers.MetricsHandler))

	server := &http.Server{Handler: mux, ReadHeaderTimeout: metricsReadTimeout}

	go func() {
		serveErr := server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			e.logger().Error("metrics server stopped", "error", serveErr)
		}
	}()

	e.logger().Info("serving metrics", "addr", listener.Addr().String(), "path", metricsPath)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			e.logger().Warn("metrics server shutdown failed", "error", shutdownErr)
		}
	}, nil
}

func reloadOnHangup(ctx context.Context, e *env, srv *mcp.Server, path string) {
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)

	defer signal.Stop(hangup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hangup:
			if err := srv.Reload(ctx, path); err != nil {
				e.logger().Error("dataset reload failed; keeping current data", "path", path, "error", err)
			}
		}
	}
}
