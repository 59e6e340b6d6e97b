package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/specscope/pkg/observability"
)

func newManualMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for i := range rm.ScopeMetrics {
		for j := range rm.ScopeMetrics[i].Metrics {
			if rm.ScopeMetrics[i].Metrics[j].Name == name {
				return &rm.ScopeMetrics[i].Metrics[j]
			}
		}
	}

	return nil
}

// sumByAttr totals an int64 counter's data points keyed by one attribute.
func sumByAttr(t *testing.T, m *metricdata.Metrics, key string) map[string]int64 {
	t.Helper()

	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64] for %s", m.Name)

	out := map[string]int64{}

	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(key))
		out[v.AsString()] += dp.Value
	}

	return out
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "specscope", cfg.ServiceName)
	assert.Equal(t, observability.ModeCLI, cfg.Mode)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5, cfg.ShutdownTimeoutSec)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.False(t, cfg.Prometheus)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := observability.ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = observability.ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = observability.ParseLevel("shout")
	require.Error(t, err)
}

func TestInit_NoopWhenNoExporters(t *testing.T) {
	t.Parallel()

	providers, err := observability.InitWithWriter(observability.DefaultConfig(), &bytes.Buffer{})
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)
	assert.Nil(t, providers.MetricsHandler)

	_, span := providers.Tracer.Start(context.Background(), "noop")
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_PrometheusServesEngineMetrics(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Prometheus = true
	cfg.Mode = observability.ModeMCP

	providers, err := observability.InitWithWriter(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })
	require.NotNil(t, providers.MetricsHandler)

	em, err := observability.NewEngineMetrics(providers.Meter)
	require.NoError(t, err)

	em.Compared(context.Background(), "diff")

	rec := httptest.NewRecorder()
	providers.MetricsHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "specscope_compare_total")
}

func TestInit_JSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true
	cfg.Environment = "test"

	providers, err := observability.InitWithWriter(cfg, &buf)
	require.NoError(t, err)

	providers.Logger.Info("hello", "k", "v")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "specscope", record["service"])
	assert.Equal(t, "cli", record["mode"])
	assert.Equal(t, "test", record["env"])
	assert.Equal(t, "v", record["k"])
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", nil},
		{"single", "key=value", map[string]string{"key": "value"}},
		{"multiple", " k1 = v1 , k2=v2", map[string]string{"k1": "v1", "k2": "v2"}},
		{"no_equals", "invalid", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, observability.ParseOTLPHeaders(tt.input))
		})
	}
}

func TestTracingHandler_InjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewTracingHandler(inner, "svc", "", observability.ModeMCP))

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.WithGroup("session").InfoContext(ctx, "loaded", "commits", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "svc", record["service"])
	assert.Equal(t, "mcp", record["mode"])
	assert.NotContains(t, record, "env")

	group, ok := record["session"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 3.0, group["commits"], 0)
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", group["trace_id"])
	assert.Equal(t, "0102030405060708", group["span_id"])
}

func TestTracingHandler_NoSpan(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewTextHandler(&buf, nil)
	slog.New(observability.NewTracingHandler(inner, "svc", "prod", observability.ModeCLI)).
		With("session", "abc").Info("ready")

	line := buf.String()
	assert.Contains(t, line, "service=svc")
	assert.Contains(t, line, "env=prod")
	assert.Contains(t, line, "session=abc")
	assert.False(t, strings.Contains(line, "trace_id"))
}

func TestREDMetrics(t *testing.T) {
	t.Parallel()

	reader, mp := newManualMeter(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	search := red.Begin(ctx, "corpus_search")
	compare := red.Begin(ctx, "corpus_compare")

	mid := collect(t, reader)
	assert.Equal(t, map[string]int64{"corpus_search": 1, "corpus_compare": 1},
		sumByAttr(t, findMetric(mid, "specscope.inflight.requests"), "op"))

	search(false)
	compare(true)

	rm := collect(t, reader)

	assert.Equal(t, map[string]int64{"corpus_search": 1, "corpus_compare": 1},
		sumByAttr(t, findMetric(rm, "specscope.requests.total"), "op"))
	assert.Equal(t, map[string]int64{"corpus_compare": 1},
		sumByAttr(t, findMetric(rm, "specscope.errors.total"), "op"))
	assert.NotNil(t, findMetric(rm, "specscope.request.duration.seconds"))
	assert.Equal(t, map[string]int64{"corpus_search": 0, "corpus_compare": 0},
		sumByAttr(t, findMetric(rm, "specscope.inflight.requests"), "op"))
}

func TestEngineMetrics(t *testing.T) {
	t.Parallel()

	reader, mp := newManualMeter(t)

	em, err := observability.NewEngineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	em.CacheAccess(ctx, "patches", true)
	em.CacheAccess(ctx, "patches", false)
	em.CacheAccess(ctx, "documents", true)
	em.DocumentIndexed(ctx, true)
	em.DocumentIndexed(ctx, true)
	em.DocumentIndexed(ctx, false)
	em.Compared(ctx, "distance")

	rm := collect(t, reader)

	assert.Equal(t, map[string]int64{"patches": 1, "documents": 1},
		sumByAttr(t, findMetric(rm, "specscope.cache.hits"), "cache"))
	assert.Equal(t, map[string]int64{"patches": 1},
		sumByAttr(t, findMetric(rm, "specscope.cache.misses"), "cache"))
	assert.Equal(t, map[string]int64{"indexed": 2, "skipped": 1},
		sumByAttr(t, findMetric(rm, "specscope.index.documents"), "status"))
	assert.Equal(t, map[string]int64{"distance": 1},
		sumByAttr(t, findMetric(rm, "specscope.compare.total"), "mode"))
}

func TestEngineMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var em *observability.EngineMetrics

	assert.NotPanics(t, func() {
		em.CacheAccess(context.Background(), "patches", true)
		em.DocumentIndexed(context.Background(), false)
		em.Compared(context.Background(), "diff")
	})
}

func TestInstrumentHTTP(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	reader, mp := newManualMeter(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	var sawSpan bool

	failing := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		sawSpan = trace.SpanContextFromContext(r.Context()).IsValid()

		rw.WriteHeader(http.StatusServiceUnavailable)
	})

	rec := httptest.NewRecorder()
	observability.InstrumentHTTP(tp.Tracer("test"), red, failing).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.True(t, sawSpan)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	bodyOnly := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte("ok"))
	})

	observability.InstrumentHTTP(tp.Tracer("test"), nil, bodyOnly).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /metrics", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "GET /healthz", spans[1].Name)
	assert.Equal(t, codes.Unset, spans[1].Status.Code)

	rm := collect(t, reader)
	assert.Equal(t, map[string]int64{"GET /metrics": 1},
		sumByAttr(t, findMetric(rm, "specscope.requests.total"), "op"))
	assert.Equal(t, map[string]int64{"GET /metrics": 1},
		sumByAttr(t, findMetric(rm, "specscope.errors.total"), "op"))
}
