package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/disaster-map-service/internal/analytics"
	"github.com/couchcryptid/disaster-map-service/internal/domain"
	"github.com/couchcryptid/disaster-map-service/internal/mapview"
	"github.com/couchcryptid/disaster-map-service/internal/notify"
	"github.com/couchcryptid/disaster-map-service/internal/reports"
)

type errorResponse struct {
	Error  string               `json:"error"`
	Fields []reports.FieldError `json:"fields,omitempty"`
}

type selectRequest struct {
	MarkerID string `json:"marker_id"`
}

type reliefCenterView struct {
	domain.ReliefCenter
	OccupancyPercent int `json:"occupancy_percent"`
}

type reliefCentersResponse struct {
	Active  int                `json:"active"`
	Centers []reliefCenterView `json:"centers"`
}

var centerStatuses = map[string]bool{
	"":                       true,
	domain.CenterOperational: true,
	domain.CenterFull:        true,
	domain.CenterClosed:      true,
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.View.Snapshot())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MarkerID == "" {
		writeError(w, http.StatusBadRequest, "marker_id is required")
		return
	}

	marker, err := s.deps.View.Select(req.MarkerID)
	if errors.Is(err, mapview.ErrMarkerNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, marker)
}

func (s *Server) handleDismissSelection(w http.ResponseWriter, _ *http.Request) {
	s.deps.View.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDisasters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Dataset.Disasters)
}

func (s *Server) handleReliefCenters(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if !centerStatuses[status] {
		writeError(w, http.StatusBadRequest, "unknown status "+status)
		return
	}

	centers := s.deps.Dataset.CentersByStatus(status)
	resp := reliefCentersResponse{
		Active:  len(s.deps.Dataset.CentersByStatus(domain.CenterOperational)),
		Centers: make([]reliefCenterView, len(centers)),
	}
	for i, c := range centers {
		resp.Centers[i] = reliefCenterView{ReliefCenter: c, OccupancyPercent: c.OccupancyPercent()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContacts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Dataset.Contacts)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, analytics.Summarize(analytics.Input{
		Disasters:   s.deps.Dataset.Disasters,
		Centers:     s.deps.Dataset.ReliefCenters,
		Reports:     s.deps.Reports.List(),
		Predictions: s.deps.View.Items(),
	}))
}

func (s *Server) handleListReports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Reports.List())
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	var in reports.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := s.deps.Reports.Submit(r.Context(), in)
	if err != nil {
		var ve *reports.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: reports.ErrInvalidReport.Error(), Fields: ve.Fields})
		case errors.Is(err, reports.ErrInvalidReport):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.internalError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Notifications.List())
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Notifications.Dismiss(chi.URLParam(r, "id"))
	if errors.Is(err, notify.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // response already committed
}
