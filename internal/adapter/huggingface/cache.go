package huggingface

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/disaster-map-service/internal/domain"
	"github.com/couchcryptid/disaster-map-service/internal/observability"
)

// CachedClassifier wraps a Classifier with an in-memory LRU cache keyed by
// input text.
type CachedClassifier struct {
	inner   domain.Classifier
	kind    domain.ModelKind
	cache   *lru.Cache[string, []domain.Classification]
	metrics *observability.Metrics
}

// NewCachedClassifier creates a cache decorator holding at most maxEntries
// responses. maxEntries must be positive.
func NewCachedClassifier(inner domain.Classifier, kind domain.ModelKind, maxEntries int, metrics *observability.Metrics) (*CachedClassifier, error) {
	cache, err := lru.New[string, []domain.Classification](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("%s classification cache: %w", kind, err)
	}
	return &CachedClassifier{
		inner:   inner,
		kind:    kind,
		cache:   cache,
		metrics: metrics,
	}, nil
}

// Classify returns the cached response for text when present. Cached slices
// are copied in and out so callers cannot mutate them.
func (c *CachedClassifier) Classify(ctx context.Context, text string) ([]domain.Classification, error) {
	if result, ok := c.cache.Get(text); ok {
		c.metrics.ClassifyCache.WithLabelValues(string(c.kind), "hit").Inc()
		return append([]domain.Classification(nil), result...), nil
	}
	c.metrics.ClassifyCache.WithLabelValues(string(c.kind), "miss").Inc()

	result, err := c.inner.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	// Failures are never cached so a transient outage can be retried.
	if len(result) > 0 {
		c.cache.Add(text, append([]domain.Classification(nil), result...))
	}
	return result, nil
}
