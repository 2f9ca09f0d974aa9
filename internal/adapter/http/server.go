package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/disaster-map-service/internal/dataset"
	"github.com/couchcryptid/disaster-map-service/internal/domain"
	"github.com/couchcryptid/disaster-map-service/internal/mapview"
	"github.com/couchcryptid/disaster-map-service/internal/notify"
	"github.com/couchcryptid/disaster-map-service/internal/reports"
)

// MaxRequestSize bounds request bodies.
const MaxRequestSize = 1 << 20

// MapView is the map state served to clients.
type MapView interface {
	Snapshot() mapview.Snapshot
	Select(markerID string) (mapview.Marker, error)
	Dismiss()
	Items() []domain.EnrichedItem
	CheckReadiness(ctx context.Context) error
}

// Notifications is the dismissible notification feed.
type Notifications interface {
	List() []notify.Notification
	Dismiss(id string) error
}

// Reports accepts and lists emergency reports.
type Reports interface {
	Submit(ctx context.Context, in reports.Input) (domain.EmergencyReport, error)
	List() []domain.EmergencyReport
}

// Deps are the services the HTTP surface exposes.
type Deps struct {
	View          MapView
	Dataset       *dataset.Dataset
	Reports       Reports
	Notifications Notifications
}

// Server exposes the dashboard page, JSON API, and health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the dashboard and API routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		deps:   deps,
		logger: logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		s.logRequests,
		chimiddleware.Recoverer,
		chimiddleware.CleanPath,
		chimiddleware.RequestSize(MaxRequestSize),
		cors.Handler(cors.Options{
			AllowOriginFunc: func(_ *http.Request, _ string) bool { return true },
			AllowedMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders:  []string{"Content-Type"},
		}),
	)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(s.deps.View))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/map", s.handleMap)
		r.Put("/map/selection", s.handleSelect)
		r.Delete("/map/selection", s.handleDismissSelection)

		r.Get("/disasters", s.handleDisasters)
		r.Get("/relief-centers", s.handleReliefCenters)
		r.Get("/emergency-contacts", s.handleContacts)
		r.Get("/analytics", s.handleAnalytics)

		r.Get("/reports", s.handleListReports)
		r.Post("/reports", s.handleSubmitReport)

		r.Get("/notifications", s.handleNotifications)
		r.Delete("/notifications/{id}", s.handleDismissNotification)
	})

	return r
}

// logRequests emits one structured log line per served request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.logger.Debug("http request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
