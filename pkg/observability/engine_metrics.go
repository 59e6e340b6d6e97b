package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCacheHits      = "specscope.cache.hits"
	metricCacheMisses    = "specscope.cache.misses"
	metricIndexDocuments = "specscope.index.documents"
	metricCompareTotal   = "specscope.compare.total"

	attrCache = "cache"

	statusIndexed = "indexed"
	statusSkipped = "skipped"
)

// EngineMetrics counts session activity. It satisfies engine.Recorder.
// A nil *EngineMetrics records nothing.
type EngineMetrics struct {
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
	indexDocs   metric.Int64Counter
	compares    metric.Int64Counter
}

// NewEngineMetrics creates the engine instruments on mt.
func NewEngineMetrics(mt metric.Meter) (*EngineMetrics, error) {
	hits, err := mt.Int64Counter(metricCacheHits,
		metric.WithDescription("Session cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHits, err)
	}

	misses, err := mt.Int64Counter(metricCacheMisses,
		metric.WithDescription("Session cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheMisses, err)
	}

	docs, err := mt.Int64Counter(metricIndexDocuments,
		metric.WithDescription("Commits processed by the search index"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricIndexDocuments, err)
	}

	compares, err := mt.Int64Counter(metricCompareTotal,
		metric.WithDescription("Snapshot comparisons by outcome"),
		metric.WithUnit("{compare}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCompareTotal, err)
	}

	return &EngineMetrics{
		cacheHits:   hits,
		cacheMisses: misses,
		indexDocs:   docs,
		compares:    compares,
	}, nil
}

// CacheAccess counts one lookup in the named cache.
func (em *EngineMetrics) CacheAccess(ctx context.Context, cache string, hit bool) {
	if em == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrCache, cache))

	if hit {
		em.cacheHits.Add(ctx, 1, attrs)
	} else {
		em.cacheMisses.Add(ctx, 1, attrs)
	}
}

// DocumentIndexed counts one processed index document.
func (em *EngineMetrics) DocumentIndexed(ctx context.Context, indexed bool) {
	if em == nil {
		return
	}

	status := statusIndexed
	if !indexed {
		status = statusSkipped
	}

	em.indexDocs.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// Compared counts one comparison by the mode it ended in.
func (em *EngineMetrics) Compared(ctx context.Context, mode string) {
	if em == nil {
		return
	}

	em.compares.Add(ctx, 1, metric.WithAttributes(attribute.String(attrMode, mode)))
}
