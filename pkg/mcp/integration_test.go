package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/specscope/internal/testfixture"
	"github.com/Sumatoshi-tech/specscope/pkg/engine"
	"github.com/Sumatoshi-tech/specscope/pkg/mcp"
	"github.com/Sumatoshi-tech/specscope/pkg/observability"
	"github.com/Sumatoshi-tech/specscope/pkg/report"
	"github.com/Sumatoshi-tech/specscope/pkg/sched"
)

func newSession(t *testing.T) *engine.Session {
	t.Helper()

	session, err := engine.Open(testfixture.Dataset())
	require.NoError(t, err)
	require.NoError(t, session.BuildIndex(context.Background(), sched.Inline{}))

	return session
}

// connect starts srv on an in-memory transport and returns a client session.
func connect(t *testing.T, srv *mcp.Server) (context.Context, *mcpsdk.ClientSession) {
	t.Helper()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return ctx, session
}

func newClient(t *testing.T) (context.Context, *mcpsdk.ClientSession) {
	t.Helper()

	srv, err := mcp.NewServer(mcp.ServerDeps{Session: newSession(t)})
	require.NoError(t, err)

	return connect(t, srv)
}

func call(t *testing.T, name string, args map[string]any) (*mcpsdk.CallToolResult, string) {
	t.Helper()

	ctx, session := newClient(t)

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return result, text.Text
}

func TestNewServer_RequiresSession(t *testing.T) {
	t.Parallel()

	_, err := mcp.NewServer(mcp.ServerDeps{})
	require.ErrorIs(t, err, mcp.ErrNoSession)
}

func TestServer_ListToolNames(t *testing.T) {
	t.Parallel()

	srv, err := mcp.NewServer(mcp.ServerDeps{Session: newSession(t)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		mcp.ToolNameBuckets,
		mcp.ToolNameCommit,
		mcp.ToolNameCompare,
		mcp.ToolNameLink,
		mcp.ToolNameSearch,
		mcp.ToolNameStatus,
		mcp.ToolNameTimeline,
	}, srv.ListToolNames())
}

func TestMCPServer_InMemoryTransport_ToolsList(t *testing.T) {
	t.Parallel()

	ctx, session := newClient(t)

	toolsResult, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	names := make([]string, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}

	assert.ElementsMatch(t, []string{
		"corpus_search", "corpus_compare", "corpus_buckets",
		"corpus_timeline", "corpus_link", "corpus_commit", "corpus_status",
	}, names)
}

func TestMCPServer_Status(t *testing.T) {
	t.Parallel()

	session := newSession(t)

	_, err := session.Document(context.Background(), "beef001", "spec/core.md")
	require.NoError(t, err)

	srv, err := mcp.NewServer(mcp.ServerDeps{Session: session})
	require.NoError(t, err)

	ctx, client := connect(t, srv)

	result, err := client.CallTool(ctx, &mcpsdk.CallToolParams{Name: mcp.ToolNameStatus, Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, result.IsError)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	var status mcp.StatusResult
	require.NoError(t, json.Unmarshal([]byte(text.Text), &status))

	assert.Equal(t, session.ID(), status.Session)
	assert.Equal(t, 3, status.Commits)
	assert.Equal(t, 2, status.Reviewed)
	assert.True(t, status.Index.Done)
	assert.Equal(t, 3, status.Index.Total)

	docs := status.Caches[engine.CacheDocuments]
	assert.Equal(t, 1, docs.Entries)
	assert.Equal(t, []string{"beef001:spec/core.md"}, docs.Recent)
}

func TestMCPServer_Search(t *testing.T) {
	t.Parallel()

	result, text := call(t, mcp.ToolNameSearch, map[string]any{"query": "zeppelin"})
	require.False(t, result.IsError, text)

	var res engine.SearchResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))

	assert.True(t, res.Progress.Done)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, 2, res.Hits[0].CommitIdx)
	assert.Equal(t, "spec/glossary.md", res.Hits[0].FilePath)
}

func TestMCPServer_Search_SingleCommit(t *testing.T) {
	t.Parallel()

	result, text := call(t, mcp.ToolNameSearch, map[string]any{
		"query":  "engine",
		"scope":  "commit",
		"commit": "c0ffee0",
	})
	require.False(t, result.IsError, text)

	var res engine.SearchResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))

	require.NotEmpty(t, res.Hits)

	for _, hit := range res.Hits {
		assert.Equal(t, 0, hit.CommitIdx)
	}
}

func TestMCPServer_Search_EmptyQuery(t *testing.T) {
	t.Parallel()

	result, text := call(t, mcp.ToolNameSearch, map[string]any{"query": ""})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "query")
}

func TestMCPServer_Compare(t *testing.T) {
	t.Parallel()

	result, text := call(t, mcp.ToolNameCompare, map[string]any{
		"from":        "c0ffee0",
		"to":          "beef001",
		"file":        "spec/core.md",
		"include_ops": true,
	})
	require.False(t, result.IsError, text)

	var cmp engine.Comparison
	require.NoError(t, json.Unmarshal([]byte(text), &cmp))

	assert.Equal(t, engine.ModeDiff, cmp.Mode)
	assert.Equal(t, 1, cmp.Stats.Added)
	assert.Equal(t, 1, cmp.Stats.Deleted)
	assert.NotEmpty(t, cmp.Ops)
}

func TestMCPServer_Compare_UnknownCommit(t *testing.T) {
	t.Parallel()

	result, text := call(t, mcp.ToolNameCompare, map[string]any{"from": "c0ffee0", "to": "deadbeef"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "unknown commit")
}

func TestMCPServer_Buckets(t *testing.T) {
	t.Parallel()

	result, text := call(t, mcp.ToolNameBuckets, map[string]any{"metric": "groups", "mode": "soft"})
	require.False(t, result.IsError, text)

	var res report.Buckets
	require.NoError(t, json.Unmarshal([]byte(text), &res))

	require.Len(t, res.Buckets, 11)

	total := 0.0
	for _, series := range res.Buckets {
		assert.Len(t, series.Values, len(res.Keys))

		total += series.Total
	}

	// One unreviewed commit plus three review groups.
	assert.InDelta(t, 4.0, total, 1e-9)
}

func TestMCPServer_Buckets_InvalidBucket(t *testing.T) {
	t.Parallel()

	result, _ := call(t, mcp.ToolNameBuckets, map[string]any{"bucket": 11})
	assert.True(t, result.IsError)
}

func TestMCPServer_Timeline(t *testing.T) {
	t.Parallel()

	result, text := call(t, mcp.ToolNameTimeline, map[string]any{"metric": "lines", "position": 1.0})
	require.False(t, result.IsError, text)

	var res report.Timeline
	require.NoError(t, json.Unmarshal([]byte(text), &res))

	require.Len(t, res.Entries, 3)
	assert.Equal(t, 2, res.Selected)
	assert.Equal(t, "f00d002", res.Entries[2].Short)

	maxValue := 0.0
	for _, e := range res.Entries {
		maxValue = max(maxValue, e.Value)
	}

	assert.InDelta(t, 1.0, maxValue, 1e-9)
	assert.Equal(t, 3, res.Summary.Commits)
	assert.InDelta(t, 3.0, res.Summary.Peak, 1e-9)
}

func TestMCPServer_Link_RoundTrip(t *testing.T) {
	t.Parallel()

	result, text := call(t, mcp.ToolNameLink, map[string]any{
		"commit": "beef001",
		"tab":    "search",
		"query":  "cache",
		"bucket": 4,
	})
	require.False(t, result.IsError, text)

	var encoded mcp.LinkResult
	require.NoError(t, json.Unmarshal([]byte(text), &encoded))
	assert.Contains(t, encoded.Fragment, "c=beef001")

	result, text = call(t, mcp.ToolNameLink, map[string]any{"fragment": "#" + encoded.Fragment})
	require.False(t, result.IsError, text)

	var decoded mcp.LinkResult
	require.NoError(t, json.Unmarshal([]byte(text), &decoded))

	assert.Equal(t, encoded.State, decoded.State)
}

func TestMCPServer_Link_InvalidTab(t *testing.T) {
	t.Parallel()

	result, _ := call(t, mcp.ToolNameLink, map[string]any{"tab": "settings"})
	assert.True(t, result.IsError)
}

func TestMCPServer_Commit(t *testing.T) {
	t.Parallel()

	result, text := call(t, mcp.ToolNameCommit, map[string]any{"ref": "f00d", "metric": "groups"})
	require.False(t, result.IsError, text)

	var res mcp.CommitResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))

	assert.Equal(t, 2, res.Idx)
	assert.Equal(t, "f00d002", res.Short)
	assert.True(t, res.Reviewed)
	require.Len(t, res.Files, 2)
	assert.InDelta(t, 2.0, res.Weights.Sum(), 1e-9)
}

func TestMCPServer_WithObservability(t *testing.T) {
	t.Parallel()

	red, err := observability.NewREDMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	srv, err := mcp.NewServer(mcp.ServerDeps{
		Session: newSession(t),
		Metrics: red,
		Tracer:  tracenoop.NewTracerProvider().Tracer("test"),
	})
	require.NoError(t, err)

	ctx, session := connect(t, srv)

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      mcp.ToolNameSearch,
		Arguments: map[string]any{"query": "cache"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestServer_Reload(t *testing.T) {
	t.Parallel()

	session := newSession(t)

	srv, err := mcp.NewServer(mcp.ServerDeps{Session: session})
	require.NoError(t, err)

	ds := testfixture.Dataset()
	ds.Commits = ds.Commits[:2]

	data, err := json.Marshal(ds)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "smaller.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	before := session.ID()

	require.NoError(t, srv.Reload(context.Background(), path))
	assert.Len(t, session.Views(), 2)
	assert.NotEqual(t, before, session.ID())

	require.Eventually(t, func() bool {
		return session.IndexProgress().Done
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, session.IndexProgress().Total)
}

func TestServer_ReloadKeepsDataOnError(t *testing.T) {
	t.Parallel()

	session := newSession(t)

	srv, err := mcp.NewServer(mcp.ServerDeps{Session: session})
	require.NoError(t, err)

	err = srv.Reload(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Len(t, session.Views(), 3)
}
