package domain

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyClassification is returned when a model responds with no labels.
var ErrEmptyClassification = errors.New("empty classification response")

// ModelKind identifies which of the two remote models a call targets.
type ModelKind string

const (
	ModelDisaster  ModelKind = "disaster"
	ModelSentiment ModelKind = "sentiment"
)

// Classifier scores a piece of text with a remote model.
type Classifier interface {
	// Classify returns the model's ranked label/score pairs for text.
	Classify(ctx context.Context, text string) ([]Classification, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string) ([]Classification, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string) ([]Classification, error) {
	return f(ctx, text)
}

// TopClassification returns the highest-scoring entry. Ties keep the earlier
// entry, which preserves the provider's ranking.
func TopClassification(cs []Classification) (Classification, error) {
	if len(cs) == 0 {
		return Classification{}, ErrEmptyClassification
	}
	top := cs[0]
	for _, c := range cs[1:] {
		if c.Score > top.Score {
			top = c
		}
	}
	return top, nil
}

// NewPrediction derives a Prediction from the disaster model's output.
// IsDisaster is set when the winning label is one of disasterLabels.
func NewPrediction(cs []Classification, disasterLabels []string) (Prediction, error) {
	top, err := TopClassification(cs)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{
		Label:      top.Label,
		Score:      top.Score,
		IsDisaster: matchesLabel(top.Label, disasterLabels),
	}, nil
}

// NewSentiment derives a Sentiment from the sentiment model's output.
func NewSentiment(cs []Classification) (Sentiment, error) {
	top, err := TopClassification(cs)
	if err != nil {
		return Sentiment{}, err
	}
	return Sentiment{Label: top.Label, Score: top.Score}, nil
}

// Percent renders a 0–1 fraction as a rounded whole percentage, clamped to
// 0–100.
func Percent(fraction float64) int {
	switch {
	case fraction <= 0:
		return 0
	case fraction >= 1:
		return 100
	}
	return int(fraction*100 + 0.5)
}

func matchesLabel(label string, labels []string) bool {
	label = strings.TrimSpace(label)
	for _, l := range labels {
		if strings.EqualFold(label, strings.TrimSpace(l)) {
			return true
		}
	}
	return false
}
