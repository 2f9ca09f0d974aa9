package pipeline

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc"

	"github.com/couchcryptid/disaster-map-service/internal/domain"
)

// enrichItem runs both classification calls for one item and waits for both.
// Neither call cancels the other. A failed disaster call leaves the item with
// no prediction and no sentiment; a failed sentiment call keeps the prediction.
func (e *Enricher) enrichItem(ctx context.Context, item domain.TextItem) domain.EnrichedItem {
	var (
		prediction domain.Result[domain.Prediction]
		sentiment  domain.Result[domain.Sentiment]
		wg         conc.WaitGroup
	)

	wg.Go(func() {
		prediction = classify(ctx, e, e.disaster, domain.ModelDisaster, item, func(cs []domain.Classification) (domain.Prediction, error) {
			return domain.NewPrediction(cs, e.cfg.DisasterLabels)
		})
	})
	wg.Go(func() {
		sentiment = classify(ctx, e, e.sentiment, domain.ModelSentiment, item, domain.NewSentiment)
	})
	wg.Wait()

	if prediction.State == domain.ResultFailed && sentiment.State == domain.ResultSucceeded {
		sentiment = domain.Result[domain.Sentiment]{State: domain.ResultFailed, Reason: prediction.Reason}
	}

	return domain.MergeEnrichment(item, prediction, sentiment)
}

// classify makes one call and derives its result, recording any failure
// against the item instead of returning it.
func classify[T any](
	ctx context.Context,
	e *Enricher,
	c domain.Classifier,
	kind domain.ModelKind,
	item domain.TextItem,
	derive func([]domain.Classification) (T, error),
) domain.Result[T] {
	cs, err := c.Classify(ctx, item.Text)
	var v T
	if err == nil {
		v, err = derive(cs)
	}
	if err != nil {
		err = fmt.Errorf("%s classify: %w", kind, err)
		e.logger.Warn("classification failed, item left unenriched",
			"item_id", item.ID,
			"model", string(kind),
			"error", err,
		)
		return domain.Failed[T](err)
	}
	return domain.Succeeded(v)
}
