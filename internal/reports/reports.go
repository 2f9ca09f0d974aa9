// Package reports accepts and stores user-submitted emergency reports.
package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-map-service/internal/domain"
	"github.com/couchcryptid/disaster-map-service/internal/notify"
	"github.com/couchcryptid/disaster-map-service/internal/observability"
)

// SubmittedMessage is the acknowledgement shown after a successful submission.
const SubmittedMessage = "Emergency request submitted successfully"

// DefaultPriority applies when a submission leaves priority empty.
const DefaultPriority = "medium"

// DefaultCapacity is the number of reports kept when none is configured.
const DefaultCapacity = 1000

// ErrInvalidReport is wrapped by every validation failure.
var ErrInvalidReport = errors.New("invalid emergency report")

var validate = validator.New()

// Input is the emergency form as submitted by a user.
type Input struct {
	Type        string `json:"type" validate:"required,oneof=medical fire rescue supplies other"`
	Description string `json:"description" validate:"required,max=2000"`
	Location    string `json:"location" validate:"required,max=500"`
	Priority    string `json:"priority" validate:"required,oneof=low medium high critical"`
}

// FieldError describes one rejected field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError lists every rejected field of a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " (" + f.Rule + ")"
	}
	return fmt.Sprintf("%s: %s", ErrInvalidReport, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidReport }

// Service stores reports in memory. When full, the oldest report is dropped.
type Service struct {
	notifier notify.Notifier
	capacity int
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu      sync.RWMutex
	reports []domain.EmergencyReport // oldest first
}

// NewService creates an empty report store holding at most capacity reports.
func NewService(notifier notify.Notifier, capacity int, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		notifier: notifier,
		capacity: capacity,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Submit validates in, stores it as a pending report, and acknowledges it
// through the notifier.
func (s *Service) Submit(_ context.Context, in Input) (domain.EmergencyReport, error) {
	in = normalize(in)
	if err := validate.Struct(in); err != nil {
		s.metrics.ReportsSubmitted.WithLabelValues("rejected").Inc()
		return domain.EmergencyReport{}, toValidationError(err)
	}

	report := domain.EmergencyReport{
		ID:          uuid.NewString(),
		Type:        in.Type,
		Description: in.Description,
		Location:    in.Location,
		Priority:    in.Priority,
		Status:      domain.ReportPending,
		SubmittedAt: s.clock.Now().UTC(),
	}

	s.mu.Lock()
	s.reports = append(s.reports, report)
	if over := len(s.reports) - s.capacity; over > 0 {
		s.reports = append(s.reports[:0:0], s.reports[over:]...)
		s.logger.Warn("report store full, oldest reports dropped", "dropped", over, "capacity", s.capacity)
	}
	s.mu.Unlock()

	s.metrics.ReportsSubmitted.WithLabelValues("accepted").Inc()
	s.logger.Info("emergency report submitted", "id", report.ID, "type", report.Type, "priority", report.Priority)
	s.notifier.Notify(notify.LevelSuccess, SubmittedMessage)
	return report, nil
}

// List returns every report, newest first.
func (s *Service) List() []domain.EmergencyReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.EmergencyReport, len(s.reports))
	for i, r := range s.reports {
		out[len(s.reports)-1-i] = r
	}
	return out
}

func normalize(in Input) Input {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Priority = strings.ToLower(strings.TrimSpace(in.Priority))
	if in.Priority == "" {
		in.Priority = DefaultPriority
	}
	return in
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	ve := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{
			Field: strings.ToLower(fe.Field()),
			Rule:  fe.Tag(),
		})
	}
	return ve
}
