package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/disaster-map-service/internal/adapter/http"
	"github.com/couchcryptid/disaster-map-service/internal/dataset"
	"github.com/couchcryptid/disaster-map-service/internal/domain"
	"github.com/couchcryptid/disaster-map-service/internal/mapview"
	"github.com/couchcryptid/disaster-map-service/internal/notify"
	"github.com/couchcryptid/disaster-map-service/internal/observability"
	"github.com/couchcryptid/disaster-map-service/internal/pipeline"
	"github.com/couchcryptid/disaster-map-service/internal/reports"
)

type enrichFunc func(ctx context.Context, items []domain.TextItem) pipeline.Batch

func (f enrichFunc) Enrich(ctx context.Context, items []domain.TextItem) pipeline.Batch {
	return f(ctx, items)
}

// floodOnly predicts a disaster for item 1 and fails every other item.
func floodOnly(_ context.Context, items []domain.TextItem) pipeline.Batch {
	out := make([]domain.EnrichedItem, len(items))
	for i, item := range items {
		if item.ID == 1 {
			out[i] = domain.MergeEnrichment(item,
				domain.Succeeded(domain.Prediction{Label: "disaster", Score: 0.92, IsDisaster: true}),
				domain.Succeeded(domain.Sentiment{Label: "NEG", Score: 0.8}),
			)
			continue
		}
		out[i] = domain.MergeEnrichment(item,
			domain.Failed[domain.Prediction](context.DeadlineExceeded),
			domain.Failed[domain.Sentiment](context.DeadlineExceeded),
		)
	}
	return pipeline.Batch{Items: out}
}

type testEnv struct {
	srv   *httpadapter.Server
	view  *mapview.View
	feed  *notify.Feed
	ds    *dataset.Dataset
	clock *clockwork.FakeClock
}

func newTestEnv(t *testing.T, mount bool) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC))
	ds, err := dataset.Default()
	require.NoError(t, err)

	feed := notify.NewFeed(0, clock, metrics)
	view := mapview.New(enrichFunc(floodOnly), feed, ds.TextItems, ds.Disasters, mapview.Options{
		Map: mapview.MapSettings{
			Center:      domain.Geo{Lat: 34.0522, Lng: -118.2437},
			Zoom:        10,
			TileURL:     "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: "&copy; OpenStreetMap contributors",
		},
	}, logger, metrics)
	t.Cleanup(view.Unmount)

	if mount {
		view.Mount(context.Background())
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, view.Wait(ctx))
	}

	srv := httpadapter.NewServer(":0", httpadapter.Deps{
		View:          view,
		Dataset:       ds,
		Reports:       reports.NewService(feed, 0, clock, logger, metrics),
		Notifications: feed,
	}, logger)

	return &testEnv{srv: srv, view: view, feed: feed, ds: ds, clock: clock}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthzReturns200(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzFollowsViewState(t *testing.T) {
	env := newTestEnv(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodGet, "/readyz", "").Code)

	env = newTestEnv(t, true)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/readyz", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestIndexRendersMapSettings(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "leaflet")
	assert.Contains(t, body, "Map Legend")
	assert.Contains(t, body, `"zoom":10`)
}

func TestMapSnapshot(t *testing.T) {
	t.Run("loading shows disasters only", func(t *testing.T) {
		env := newTestEnv(t, false)
		snap := decode[mapview.Snapshot](t, env.do(http.MethodGet, "/api/map", ""))
		assert.Equal(t, mapview.StateIdle, snap.State)
		assert.Len(t, snap.Markers, len(env.ds.Disasters))
	})

	t.Run("ready adds enriched predictions", func(t *testing.T) {
		env := newTestEnv(t, true)
		snap := decode[mapview.Snapshot](t, env.do(http.MethodGet, "/api/map", ""))
		assert.Equal(t, mapview.StateReady, snap.State)
		assert.Equal(t, 1, snap.Counts.Predictions)
		assert.Len(t, snap.Markers, len(env.ds.Disasters)+1)
		assert.InDelta(t, 34.0522, snap.Map.Center.Lat, 1e-9)
	})
}

func TestSelectMarker(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(http.MethodPut, "/api/map/selection", `{"marker_id":"prediction-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	marker := decode[mapview.Marker](t, rec)
	require.NotNil(t, marker.Prediction)
	assert.Equal(t, "92% confidence", marker.Prediction.Confidence)
	assert.Equal(t, "NEG", marker.Prediction.Sentiment)

	snap := decode[mapview.Snapshot](t, env.do(http.MethodGet, "/api/map", ""))
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "prediction-1", snap.Selected.ID)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/map/selection", "").Code)
	snap = decode[mapview.Snapshot](t, env.do(http.MethodGet, "/api/map", ""))
	assert.Nil(t, snap.Selected)
}

func TestSelectMarkerErrors(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"unknown marker", `{"marker_id":"prediction-2"}`, http.StatusNotFound},
		{"missing id", `{}`, http.StatusBadRequest},
		{"malformed body", `{"marker_id":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, env.do(http.MethodPut, "/api/map/selection", tt.body).Code)
		})
	}
}

func TestDisastersAndContacts(t *testing.T) {
	env := newTestEnv(t, false)

	disasters := decode[[]domain.DisasterRecord](t, env.do(http.MethodGet, "/api/disasters", ""))
	require.Len(t, disasters, len(env.ds.Disasters))
	for i, d := range env.ds.Disasters {
		assert.Equal(t, d.ID, disasters[i].ID)
		assert.Equal(t, d.Type, disasters[i].Type)
	}

	contacts := decode[[]domain.EmergencyContact](t, env.do(http.MethodGet, "/api/emergency-contacts", ""))
	require.NotEmpty(t, contacts)
	assert.Equal(t, domain.EmergencyContact{Service: "Emergency", Number: "112"}, contacts[0])
}

func TestReliefCenters(t *testing.T) {
	env := newTestEnv(t, false)

	type center struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		OccupancyPercent int    `json:"occupancy_percent"`
	}
	type response struct {
		Active  int      `json:"active"`
		Centers []center `json:"centers"`
	}

	all := decode[response](t, env.do(http.MethodGet, "/api/relief-centers", ""))
	assert.Len(t, all.Centers, len(env.ds.ReliefCenters))
	assert.Equal(t, 1, all.Active)

	full := decode[response](t, env.do(http.MethodGet, "/api/relief-centers?status=full", ""))
	require.Len(t, full.Centers, 1)
	assert.Equal(t, "2", full.Centers[0].ID)
	assert.Equal(t, 100, full.Centers[0].OccupancyPercent)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/relief-centers?status=open", "").Code)
}

func TestSubmitReport(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodPost, "/api/reports",
		`{"type":"medical","description":"Injured hiker","location":"Griffith Park"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	report := decode[domain.EmergencyReport](t, rec)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, reports.DefaultPriority, report.Priority)
	assert.Equal(t, domain.ReportPending, report.Status)
	assert.Equal(t, env.clock.Now().UTC(), report.SubmittedAt)

	listed := decode[[]domain.EmergencyReport](t, env.do(http.MethodGet, "/api/reports", ""))
	require.Len(t, listed, 1)
	assert.Equal(t, report.ID, listed[0].ID)

	notes := decode[[]notify.Notification](t, env.do(http.MethodGet, "/api/notifications", ""))
	require.Len(t, notes, 1)
	assert.Equal(t, reports.SubmittedMessage, notes[0].Message)
}

func TestSubmitReportRejected(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodPost, "/api/reports", `{"type":"alien","description":"","location":"here"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	type response struct {
		Error  string               `json:"error"`
		Fields []reports.FieldError `json:"fields"`
	}
	body := decode[response](t, rec)
	assert.Equal(t, reports.ErrInvalidReport.Error(), body.Error)
	assert.ElementsMatch(t, []reports.FieldError{
		{Field: "type", Rule: "oneof"},
		{Field: "description", Rule: "required"},
	}, body.Fields)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/reports", `not json`).Code)
	assert.Empty(t, decode[[]domain.EmergencyReport](t, env.do(http.MethodGet, "/api/reports", "")))
}

func TestDismissNotification(t *testing.T) {
	env := newTestEnv(t, false)
	n := env.feed.Notify(notify.LevelError, mapview.FailureMessage)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/notifications/"+n.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/notifications/"+n.ID, "").Code)
	assert.Empty(t, decode[[]notify.Notification](t, env.do(http.MethodGet, "/api/notifications", "")))
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t, true)

	type summary struct {
		TotalDisasters     int `json:"total_disasters"`
		ReliefCenters      int `json:"relief_centers"`
		AnalyzedItems      int `json:"analyzed_items"`
		PredictedDisasters int `json:"predicted_disasters"`
	}
	s := decode[summary](t, env.do(http.MethodGet, "/api/analytics", ""))
	assert.Equal(t, len(env.ds.Disasters), s.TotalDisasters)
	assert.Equal(t, len(env.ds.ReliefCenters), s.ReliefCenters)
	assert.Equal(t, 1, s.AnalyzedItems)
	assert.Equal(t, 1, s.PredictedDisasters)
}
