package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "specscope.requests.total"
	metricRequestDuration  = "specscope.request.duration.seconds"
	metricErrorsTotal      = "specscope.errors.total"
	metricInflightRequests = "specscope.inflight.requests"

	attrOp     = "op"
	attrStatus = "status"

	// StatusOK and StatusError are the values of the status attribute.
	StatusOK    = "ok"
	StatusError = "error"
)

// durationBucketBoundaries spans sub-millisecond lookups up to full-corpus
// compares.
var durationBucketBoundaries = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// REDMetrics holds rate, error, and duration instruments for tool calls.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Operations handled"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Operation latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Operations that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Operations in progress"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// Begin counts op as in flight and returns the func that finishes it,
// recording its latency and whether it failed. The finish func must be
// called exactly once.
func (rm *REDMetrics) Begin(ctx context.Context, op string) func(failed bool) {
	opAttr := metric.WithAttributes(attribute.String(attrOp, op))
	start := time.Now()

	rm.inflightRequests.Add(ctx, 1, opAttr)

	return func(failed bool) {
		rm.inflightRequests.Add(ctx, -1, opAttr)

		status := StatusOK
		if failed {
			status = StatusError

			rm.errorsTotal.Add(ctx, 1, opAttr)
		}

		attrs := metric.WithAttributes(attribute.String(attrOp, op), attribute.String(attrStatus, status))

		rm.requestsTotal.Add(ctx, 1, attrs)
		rm.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
