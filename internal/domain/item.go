package domain

import (
	"encoding/json"
	"time"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// TextItem is a unit of input text with a geographic anchor.
type TextItem struct {
	ID   int    `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
	Geo  Geo    `json:"location" yaml:"location"`
}

// Classification is one label/score pair returned by a remote model.
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"` // 0.0–1.0 model confidence
}

// Prediction is the disaster model's verdict for a text item.
type Prediction struct {
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	IsDisaster bool    `json:"is_disaster"`
}

// Sentiment is the sentiment model's verdict for a text item.
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ResultState tags the outcome of one classification call.
type ResultState string

const (
	ResultPending   ResultState = "pending"
	ResultSucceeded ResultState = "succeeded"
	ResultFailed    ResultState = "failed"
)

// Result is a tagged outcome: Value is only meaningful when State is
// ResultSucceeded, Reason only when State is ResultFailed.
type Result[T any] struct {
	State  ResultState
	Value  T
	Reason string
}

// Succeeded wraps a computed value.
func Succeeded[T any](v T) Result[T] {
	return Result[T]{State: ResultSucceeded, Value: v}
}

// Failed records a failed computation with a human-readable reason.
func Failed[T any](err error) Result[T] {
	r := Result[T]{State: ResultFailed}
	if err != nil {
		r.Reason = err.Error()
	}
	return r
}

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool {
	return r.State == ResultSucceeded
}

// Get returns a pointer to the value, or nil when the result holds none.
func (r Result[T]) Get() *T {
	if !r.OK() {
		return nil
	}
	v := r.Value
	return &v
}

// MarshalJSON renders a succeeded result as its value and anything else as null.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if !r.OK() {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// EnrichedItem merges a TextItem with its two classification outcomes.
type EnrichedItem struct {
	TextItem
	Prediction Result[Prediction] `json:"prediction"`
	Sentiment  Result[Sentiment]  `json:"sentiment"`
	EnrichedAt time.Time          `json:"enriched_at"`
}

// Enriched reports whether the item carries a prediction, which is what makes
// it renderable as a map marker.
func (e EnrichedItem) Enriched() bool {
	return e.Prediction.OK()
}

// Pending returns the item with both results in the pending state.
func Pending(item TextItem) EnrichedItem {
	return EnrichedItem{
		TextItem:   item,
		Prediction: Result[Prediction]{State: ResultPending},
		Sentiment:  Result[Sentiment]{State: ResultPending},
	}
}

// MergeEnrichment combines an item with its classification outcomes and
// stamps the enrichment time.
func MergeEnrichment(item TextItem, prediction Result[Prediction], sentiment Result[Sentiment]) EnrichedItem {
	return EnrichedItem{
		TextItem:   item,
		Prediction: prediction,
		Sentiment:  sentiment,
		EnrichedAt: Now().UTC(),
	}
}
