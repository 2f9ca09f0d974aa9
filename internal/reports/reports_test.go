package reports

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-map-service/internal/domain"
	"github.com/couchcryptid/disaster-map-service/internal/notify"
	"github.com/couchcryptid/disaster-map-service/internal/observability"
)

var fixedTime = time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *notify.Feed, *clockwork.FakeClock, *observability.Metrics) {
	return newTestServiceWithCapacity(0)
}

func newTestServiceWithCapacity(capacity int) (*Service, *notify.Feed, *clockwork.FakeClock, *observability.Metrics) {
	clock := clockwork.NewFakeClockAt(fixedTime)
	metrics := observability.NewMetricsForTesting()
	feed := notify.NewFeed(10, clock, metrics)
	svc := NewService(feed, capacity, clock, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
	return svc, feed, clock, metrics
}

func validInput() Input {
	return Input{
		Type:        "medical",
		Description: "Elderly resident needs insulin, roads blocked",
		Location:    "1201 S Figueroa St, Los Angeles",
		Priority:    "high",
	}
}

func TestSubmit_Valid(t *testing.T) {
	svc, feed, _, metrics := newTestService()

	report, err := svc.Submit(context.Background(), validInput())
	require.NoError(t, err)

	_, err = uuid.Parse(report.ID)
	require.NoError(t, err)
	assert.Equal(t, "medical", report.Type)
	assert.Equal(t, "high", report.Priority)
	assert.Equal(t, domain.ReportPending, report.Status)
	assert.Equal(t, fixedTime, report.SubmittedAt)

	notes := feed.List()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.LevelSuccess, notes[0].Level)
	assert.Equal(t, SubmittedMessage, notes[0].Message)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ReportsSubmitted.WithLabelValues("accepted")), 0)
}

func TestSubmit_DefaultsAndNormalizes(t *testing.T) {
	svc, _, _, _ := newTestService()

	in := validInput()
	in.Priority = ""
	in.Type = "  FIRE "
	in.Description = "  smoke visible  "

	report, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, DefaultPriority, report.Priority)
	assert.Equal(t, "fire", report.Type)
	assert.Equal(t, "smoke visible", report.Description)
}

func TestSubmit_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		field  string
		rule   string
	}{
		{"missing type", func(in *Input) { in.Type = "" }, "type", "required"},
		{"unknown type", func(in *Input) { in.Type = "alien" }, "type", "oneof"},
		{"blank description", func(in *Input) { in.Description = "   " }, "description", "required"},
		{"missing location", func(in *Input) { in.Location = "" }, "location", "required"},
		{"unknown priority", func(in *Input) { in.Priority = "urgent" }, "priority", "oneof"},
		{"description too long", func(in *Input) { in.Description = strings.Repeat("x", 2001) }, "description", "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, feed, _, metrics := newTestService()
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Submit(context.Background(), in)
			require.ErrorIs(t, err, ErrInvalidReport)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, FieldError{Field: tt.field, Rule: tt.rule})

			assert.Empty(t, svc.List(), "rejected reports are not stored")
			assert.Empty(t, feed.List(), "rejected reports are not acknowledged")
			assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ReportsSubmitted.WithLabelValues("rejected")), 0)
		})
	}
}

func TestSubmit_MultipleFieldErrors(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Submit(context.Background(), Input{})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 3, "type, description and location; priority defaults")
	assert.Contains(t, err.Error(), "type (required)")
}

func TestList_NewestFirst(t *testing.T) {
	svc, _, clock, _ := newTestService()

	first, err := svc.Submit(context.Background(), validInput())
	require.NoError(t, err)
	clock.Advance(time.Minute)

	in := validInput()
	in.Type = "rescue"
	second, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []domain.EmergencyReport{second, first}, svc.List())
}

func TestSubmit_DropsOldestWhenFull(t *testing.T) {
	svc, _, _, _ := newTestServiceWithCapacity(2)

	var ids []string
	for _, typ := range []string{"medical", "fire", "rescue"} {
		in := validInput()
		in.Type = typ
		r, err := svc.Submit(context.Background(), in)
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
}

func TestNewService_DefaultCapacity(t *testing.T) {
	svc, _, _, _ := newTestService()
	assert.Equal(t, DefaultCapacity, svc.capacity)
}

