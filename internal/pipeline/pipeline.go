package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"github.com/couchcryptid/disaster-map-service/internal/domain"
	"github.com/couchcryptid/disaster-map-service/internal/observability"
)

// Config holds the pipeline settings injected at construction.
type Config struct {
	// DisasterLabels are the disaster-model labels that mark an item as a disaster.
	DisasterLabels []string
	// MaxConcurrency caps the number of items classified at once. Zero means
	// every item starts immediately.
	MaxConcurrency int
}

// Batch is the complete output of one Enrich call.
type Batch struct {
	// Items has one entry per input item, in input order.
	Items []domain.EnrichedItem
	// Err is set when the batch as a whole could not settle normally: the
	// parent context was cancelled or a classification task panicked.
	Err error
}

// AllFailed reports whether a non-empty batch produced no predictions at all.
func (b Batch) AllFailed() bool {
	return len(b.Items) > 0 && b.EnrichedCount() == 0
}

// EnrichedCount returns the number of items that carry a prediction.
func (b Batch) EnrichedCount() int {
	n := 0
	for _, item := range b.Items {
		if item.Enriched() {
			n++
		}
	}
	return n
}

// Enricher attaches disaster predictions and sentiment to text items.
type Enricher struct {
	disaster  domain.Classifier
	sentiment domain.Classifier
	cfg       Config
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates an Enricher backed by the given disaster and sentiment classifiers.
func New(disaster, sentiment domain.Classifier, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Enricher {
	return &Enricher{
		disaster:  disaster,
		sentiment: sentiment,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// Enrich classifies every item concurrently and returns the whole batch once
// all calls have settled. A failing call only affects its own item's result.
// Enrich never returns fewer items than it was given.
func (e *Enricher) Enrich(ctx context.Context, items []domain.TextItem) Batch {
	start := time.Now()
	e.metrics.PipelineRunning.Set(1)
	defer e.metrics.PipelineRunning.Set(0)

	out := make([]domain.EnrichedItem, len(items))
	for i, item := range items {
		out[i] = domain.Pending(item)
	}

	p := pool.New().WithContext(ctx)
	if e.cfg.MaxConcurrency > 0 {
		p = p.WithMaxGoroutines(e.cfg.MaxConcurrency)
	}

	var pc panics.Catcher
	pc.Try(func() {
		for i, item := range items {
			p.Go(func(ctx context.Context) error {
				out[i] = e.enrichItem(ctx, item)
				return nil
			})
		}
		_ = p.Wait()
	})

	batch := Batch{Items: out}
	if r := pc.Recovered(); r != nil {
		batch.Err = fmt.Errorf("enrichment task panicked: %w", r.AsError())
	} else if err := ctx.Err(); err != nil {
		batch.Err = fmt.Errorf("enrichment interrupted: %w", err)
	}
	if batch.Err != nil {
		settleRemaining(batch.Items, batch.Err)
	}

	e.record(batch, time.Since(start))
	return batch
}

// settleRemaining marks every still-pending result as failed with err.
func settleRemaining(items []domain.EnrichedItem, err error) {
	for i := range items {
		if items[i].Prediction.State == domain.ResultPending {
			items[i].Prediction = domain.Failed[domain.Prediction](err)
		}
		if items[i].Sentiment.State == domain.ResultPending {
			items[i].Sentiment = domain.Failed[domain.Sentiment](err)
		}
	}
}

func (e *Enricher) record(batch Batch, elapsed time.Duration) {
	enriched := batch.EnrichedCount()
	unenriched := len(batch.Items) - enriched

	e.metrics.ItemsEnriched.WithLabelValues("enriched").Add(float64(enriched))
	e.metrics.ItemsEnriched.WithLabelValues("unenriched").Add(float64(unenriched))
	e.metrics.BatchDuration.Observe(elapsed.Seconds())

	outcome := "complete"
	switch {
	case batch.Err != nil || batch.AllFailed():
		outcome = "failed"
	case unenriched > 0:
		outcome = "partial"
	}
	e.metrics.BatchesRun.WithLabelValues(outcome).Inc()

	attrs := []any{
		"items", len(batch.Items),
		"enriched", enriched,
		"outcome", outcome,
		"duration", elapsed,
	}
	if batch.Err != nil {
		e.logger.Error("enrichment batch failed", append(attrs, "error", batch.Err)...)
		return
	}
	e.logger.Info("enrichment batch complete", attrs...)
}

// IsInterrupted reports whether a batch error came from context cancellation
// rather than a failure inside the pipeline.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
