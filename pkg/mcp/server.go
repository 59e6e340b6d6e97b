// Package mcp implements a Model Context Protocol server exposing the corpus
// engine's queries as MCP tools over stdio transport.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/specscope/pkg/engine"
	"github.com/Sumatoshi-tech/specscope/pkg/observability"
	"github.com/Sumatoshi-tech/specscope/pkg/sched"
	"github.com/Sumatoshi-tech/specscope/pkg/version"
)

const (
	serverName = "specscope"

	toolCount = 6
)

// ErrNoSession is returned by NewServer when ServerDeps.Session is nil.
var ErrNoSession = errors.New("mcp server requires an engine session")

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value optional fields use production defaults.
type ServerDeps struct {
	// Session is the engine the tools query. Required.
	Session *engine.Session

	// Scheduler paces the background index build started by Run. Nil indexes inline.
	Scheduler sched.Scheduler

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with the corpus tool registrations.
type Server struct {
	inner     *mcpsdk.Server
	session   *engine.Session
	scheduler sched.Scheduler
	logger    *slog.Logger
	mu        sync.RWMutex
	tools     []string
	metrics   *observability.REDMetrics
	tracer    trace.Tracer
}

// NewServer creates a new MCP server with all corpus tools registered.
func NewServer(deps ServerDeps) (*Server, error) {
	if deps.Session == nil {
		return nil, ErrNoSession
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	scheduler := deps.Scheduler
	if scheduler == nil {
		scheduler = sched.Inline{}
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.String(),
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{
		inner:     inner,
		session:   deps.Session,
		scheduler: scheduler,
		logger:    logger,
		tools:     make([]string, 0, toolCount),
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
	}

	srv.registerTools()

	return srv, nil
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the background index build and serves the given
// transport. It blocks until the context is canceled or the connection closes.
// Corpus searches issued before the build finishes see partial results.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	indexCtx, stopIndex := context.WithCancel(ctx)
	defer stopIndex()

	go s.buildIndex(indexCtx)

	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// Reload swaps the session's dataset for the one at path and starts a fresh
// index build. The previous build stops at its next step.
func (s *Server) Reload(ctx context.Context, path string) error {
	if err := s.session.ReloadFile(path); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "dataset reloaded", "path", path, "session", s.session.ID())

	go s.buildIndex(ctx)

	return nil
}

func (s *Server) buildIndex(ctx context.Context) {
	err := s.session.BuildIndex(ctx, s.scheduler)

	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "search index ready", "documents", s.session.IndexProgress().Total)
	case errors.Is(err, engine.ErrIndexSuperseded):
		s.logger.InfoContext(ctx, "search index build superseded by reload")
	case errors.Is(err, context.Canceled):
	default:
		s.logger.WarnContext(ctx, "search index build stopped", "error", err)
	}
}

func (s *Server) registerTools() {
	addTool(s, ToolNameSearch, searchToolDescription, s.handleSearch)
	addTool(s, ToolNameCompare, compareToolDescription, s.handleCompare)
	addTool(s, ToolNameBuckets, bucketsToolDescription, s.handleBuckets)
	addTool(s, ToolNameTimeline, timelineToolDescription, s.handleTimeline)
	addTool(s, ToolNameLink, linkToolDescription, s.handleLink)
	addTool(s, ToolNameCommit, commitToolDescription, s.handleCommit)
	addTool(s, ToolNameStatus, statusToolDescription, s.handleStatus)
}

func addTool[Input any](
	s *Server,
	name, description string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, withMetrics(s.metrics, name, withTracing(s.tracer, name, handler)))

	s.trackTool(name)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		finish := metrics.Begin(ctx, mcpSpanPrefix+toolName)

		result, output, err := handler(ctx, req, input)

		finish(err != nil || (result != nil && result.IsError))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}
