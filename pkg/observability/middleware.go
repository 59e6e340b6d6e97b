package observability

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// responseRecorder remembers the first status a handler sent. A handler
// that writes a body without a header has implicitly sent 200.
type responseRecorder struct {
	http.ResponseWriter

	status int
}

func (rr *responseRecorder) WriteHeader(code int) {
	if rr.status == 0 {
		rr.status = code
	}

	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(buf []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}

	n, err := rr.ResponseWriter.Write(buf)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}

	return n, nil
}

func (rr *responseRecorder) code() int {
	if rr.status == 0 {
		return http.StatusOK
	}

	return rr.status
}

// InstrumentHTTP serves next under a server span named "METHOD /path" that
// continues any W3C trace in the request headers, and counts the request in
// red under the same name. 5xx responses mark both the span and the request
// as failed. red may be nil.
func InstrumentHTTP(tracer trace.Tracer, red *REDMetrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		op := req.Method + " " + req.URL.Path

		ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

		ctx, span := tracer.Start(ctx, op,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(req.Method),
				semconv.HTTPRoute(req.URL.Path),
			),
		)
		defer span.End()

		finish := func(bool) {}
		if red != nil {
			finish = red.Begin(ctx, op)
		}

		rec := &responseRecorder{ResponseWriter: rw}
		next.ServeHTTP(rec, req.WithContext(ctx))

		status := rec.code()
		failed := status >= http.StatusInternalServerError

		span.SetAttributes(semconv.HTTPResponseStatusCode(status))

		if failed {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		finish(failed)
	})
}
