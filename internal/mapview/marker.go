package mapview

import (
	"fmt"
	"strconv"

	"github.com/mattn/go-runewidth"

	"github.com/couchcryptid/disaster-map-service/internal/domain"
)

// MarkerKind distinguishes ground-truth markers from model predictions. The
// value doubles as the marker's CSS class.
type MarkerKind string

const (
	KindDisaster   MarkerKind = "disaster"
	KindPrediction MarkerKind = "prediction"
)

// sentimentUnavailable is shown when the sentiment call failed.
const sentimentUnavailable = "N/A"

// Marker is one point annotation on the map.
type Marker struct {
	ID         string           `json:"id"`
	Kind       MarkerKind       `json:"kind"`
	Class      string           `json:"class"`
	Lat        float64          `json:"lat"`
	Lng        float64          `json:"lng"`
	Title      string           `json:"title"`
	Disaster   *DisasterPopup   `json:"disaster,omitempty"`
	Prediction *PredictionPopup `json:"prediction,omitempty"`
}

// DisasterPopup is the detail shown for a ground-truth disaster.
type DisasterPopup struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Status      string  `json:"status"`
	Address     string  `json:"address,omitempty"`
	AffectedKm2 float64 `json:"affected_area_km2,omitempty"`
}

// PredictionPopup is the detail shown for an enriched text item.
type PredictionPopup struct {
	Text              string `json:"text"`
	Label             string `json:"label"`
	IsDisaster        bool   `json:"is_disaster"`
	ConfidencePercent int    `json:"confidence_percent"`
	Confidence        string `json:"confidence"`
	Sentiment         string `json:"sentiment"`
}

func disasterMarkerID(id string) string { return "disaster-" + id }

func predictionMarkerID(id int) string { return "prediction-" + strconv.Itoa(id) }

func disasterMarker(d domain.DisasterRecord, titleWidth int) Marker {
	return Marker{
		ID:    disasterMarkerID(d.ID),
		Kind:  KindDisaster,
		Class: string(KindDisaster),
		Lat:   d.Location.Lat,
		Lng:   d.Location.Lng,
		Title: truncate(d.Type, titleWidth),
		Disaster: &DisasterPopup{
			Type:        d.Type,
			Description: d.Description,
			Severity:    fmt.Sprintf("%d/5", d.Severity),
			Status:      d.Status,
			Address:     d.Location.Address,
			AffectedKm2: d.AffectedArea,
		},
	}
}

// predictionMarker renders an enriched item. ok is false when the item has no
// prediction and must not appear on the map.
func predictionMarker(item domain.EnrichedItem, titleWidth int) (Marker, bool) {
	p := item.Prediction.Get()
	if p == nil {
		return Marker{}, false
	}

	sentiment := sentimentUnavailable
	if s := item.Sentiment.Get(); s != nil && s.Label != "" {
		sentiment = s.Label
	}
	pct := domain.Percent(p.Score)

	return Marker{
		ID:    predictionMarkerID(item.ID),
		Kind:  KindPrediction,
		Class: string(KindPrediction),
		Lat:   item.Geo.Lat,
		Lng:   item.Geo.Lng,
		Title: truncate(item.Text, titleWidth),
		Prediction: &PredictionPopup{
			Text:              item.Text,
			Label:             p.Label,
			IsDisaster:        p.IsDisaster,
			ConfidencePercent: pct,
			Confidence:        fmt.Sprintf("%d%% confidence", pct),
			Sentiment:         sentiment,
		},
	}, true
}

// truncate shortens s to at most width terminal cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
