// Package mapview holds the presentation state of the disaster map: which
// markers exist, whether predictions have arrived, and what is selected.
package mapview

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/couchcryptid/disaster-map-service/internal/domain"
	"github.com/couchcryptid/disaster-map-service/internal/notify"
	"github.com/couchcryptid/disaster-map-service/internal/observability"
	"github.com/couchcryptid/disaster-map-service/internal/pipeline"
)

// FailureMessage is the notification raised when a batch could not be analyzed.
const FailureMessage = "Failed to analyze some disaster predictions"

// DefaultTitleWidth is the marker title width, in terminal cells, used when
// Options leaves it unset.
const DefaultTitleWidth = 48

// ErrMarkerNotFound is returned when selecting a marker that is not rendered.
var ErrMarkerNotFound = errors.New("marker not found")

// State is the lifecycle stage of a view.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
)

// Enricher runs the prediction pipeline over a batch of items.
type Enricher interface {
	Enrich(ctx context.Context, items []domain.TextItem) pipeline.Batch
}

// Publisher receives every completed batch.
type Publisher interface {
	Publish(ctx context.Context, items []domain.EnrichedItem) error
}

// MapSettings are the static map parameters handed to the client.
type MapSettings struct {
	Center      domain.Geo `json:"center"`
	Zoom        int        `json:"zoom"`
	TileURL     string     `json:"tile_url"`
	Attribution string     `json:"attribution"`
}

// Options configures a View.
type Options struct {
	Map        MapSettings
	TitleWidth int
	// Publisher is optional.
	Publisher Publisher
}

// Counts summarizes what the view currently shows.
type Counts struct {
	Disasters   int `json:"disasters"`
	Predictions int `json:"predictions"`
	Analyzed    int `json:"analyzed"`
	Unanalyzed  int `json:"unanalyzed"`
}

// Snapshot is a point-in-time copy of the view.
type Snapshot struct {
	State    State       `json:"state"`
	Map      MapSettings `json:"map"`
	Markers  []Marker    `json:"markers"`
	Selected *Marker     `json:"selected"`
	Counts   Counts      `json:"counts"`
}

// View owns one mounted map: its ground-truth markers, the single pipeline run
// that produces prediction markers, and the current selection.
type View struct {
	enricher  Enricher
	notifier  notify.Notifier
	items     []domain.TextItem
	disasters []domain.DisasterRecord
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu       sync.RWMutex
	state    State
	enriched []domain.EnrichedItem
	selected string
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates an unmounted view over the given text items and disasters.
func New(
	enricher Enricher,
	notifier notify.Notifier,
	items []domain.TextItem,
	disasters []domain.DisasterRecord,
	opts Options,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *View {
	if opts.TitleWidth == 0 {
		opts.TitleWidth = DefaultTitleWidth
	}
	return &View{
		enricher:  enricher,
		notifier:  notifier,
		items:     items,
		disasters: disasters,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
		state:     StateIdle,
	}
}

// Mount moves the view to Loading and starts the pipeline in the background.
// Mounting an already mounted view does nothing.
func (v *View) Mount(ctx context.Context) {
	v.mu.Lock()
	if v.state != StateIdle {
		v.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	v.state = StateLoading
	v.cancel = cancel
	v.done = done
	v.mu.Unlock()

	v.logger.Info("map view mounted", "items", len(v.items), "disasters", len(v.disasters))
	go v.run(ctx, done)
}

func (v *View) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	batch := v.enricher.Enrich(ctx, v.items)
	if ctx.Err() != nil {
		if pipeline.IsInterrupted(batch.Err) {
			v.logger.Info("map view torn down before predictions settled", "reason", batch.Err)
		} else {
			v.logger.Info("map view torn down, settled batch discarded", "items", len(batch.Items))
		}
		return
	}

	v.mu.Lock()
	v.enriched = batch.Items
	v.state = StateReady
	v.mu.Unlock()
	v.metrics.ViewReady.Set(1)

	if batch.Err != nil || batch.AllFailed() {
		v.notifier.Notify(notify.LevelError, FailureMessage)
	}

	if v.opts.Publisher != nil {
		if err := v.opts.Publisher.Publish(ctx, batch.Items); err != nil {
			v.metrics.PublishErrors.Inc()
			v.logger.Warn("publish enrichment batch failed", "error", err)
		}
	}
}

// Unmount cancels the pipeline, waits for it to return, and resets the view.
func (v *View) Unmount() {
	v.mu.Lock()
	cancel, done := v.cancel, v.done
	v.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done

	v.mu.Lock()
	v.state = StateIdle
	v.enriched = nil
	v.selected = ""
	v.cancel = nil
	v.done = nil
	v.mu.Unlock()
	v.metrics.ViewReady.Set(0)
	v.logger.Info("map view unmounted")
}

// Wait blocks until the current mount's pipeline has returned or ctx ends.
func (v *View) Wait(ctx context.Context) error {
	v.mu.RLock()
	done := v.done
	v.mu.RUnlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current lifecycle stage.
func (v *View) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// CheckReadiness reports an error until the view has settled its batch.
func (v *View) CheckReadiness(_ context.Context) error {
	if s := v.State(); s != StateReady {
		return errors.New("map view is " + string(s))
	}
	return nil
}

// Items returns a copy of the enriched items, or nil before the view is Ready.
func (v *View) Items() []domain.EnrichedItem {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]domain.EnrichedItem(nil), v.enriched...)
}

// Snapshot returns the markers, selection, and counts as of now.
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	markers := v.markersLocked()
	snap := Snapshot{
		State:   v.state,
		Map:     v.opts.Map,
		Markers: markers,
		Counts: Counts{
			Disasters:   len(v.disasters),
			Predictions: len(markers) - len(v.disasters),
		},
	}
	if v.state == StateReady {
		snap.Counts.Analyzed = snap.Counts.Predictions
		snap.Counts.Unanalyzed = len(v.enriched) - snap.Counts.Predictions
	}
	if m, ok := findMarker(markers, v.selected); ok {
		snap.Selected = &m
	}
	return snap
}

// Select makes the marker with the given ID the single selected marker.
func (v *View) Select(markerID string) (Marker, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	m, ok := findMarker(v.markersLocked(), markerID)
	if !ok {
		return Marker{}, ErrMarkerNotFound
	}
	v.selected = markerID
	return m, nil
}

// Dismiss clears the selection.
func (v *View) Dismiss() {
	v.mu.Lock()
	v.selected = ""
	v.mu.Unlock()
}

// markersLocked builds the rendered markers. Ground-truth markers are always
// present; prediction markers only once the view is Ready.
func (v *View) markersLocked() []Marker {
	markers := make([]Marker, 0, len(v.disasters)+len(v.enriched))
	for _, d := range v.disasters {
		markers = append(markers, disasterMarker(d, v.opts.TitleWidth))
	}
	if v.state != StateReady {
		return markers
	}
	for _, item := range v.enriched {
		if m, ok := predictionMarker(item, v.opts.TitleWidth); ok {
			markers = append(markers, m)
		}
	}
	return markers
}

func findMarker(markers []Marker, id string) (Marker, bool) {
	if id == "" {
		return Marker{}, false
	}
	for _, m := range markers {
		if m.ID == id {
			return m, true
		}
	}
	return Marker{}, false
}
