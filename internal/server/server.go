// Package server exposes the review console over HTTP: edit sessions,
// override saves and resets, potential updates, region mounts and manual
// refresh.
package server

import (
	"encoding/json"
	"net/http"

	stderrors "review-console/internal/common/errors"
	"review-console/internal/common/logger"
	"review-console/internal/common/observability"
	"review-console/internal/presentation"
	"review-console/internal/reconcile"
	"review-console/internal/review"
	"review-console/internal/rubric"
	"review-console/internal/scoring"
)

// Server wires the override controller, the presentation host and the
// reconciliation service into the console API.
type Server struct {
	controller *review.Controller
	backend    scoring.Backend
	host       *presentation.RedisHost
	reconciler reconcile.Recalculator
	obs        *observability.Observability
	logger     logger.Logger
}

func New(controller *review.Controller, backend scoring.Backend, host *presentation.RedisHost, reconciler reconcile.Recalculator, obs *observability.Observability, log logger.Logger) *Server {
	return &Server{
		controller: controller,
		backend:    backend,
		host:       host,
		reconciler: reconciler,
		obs:        obs,
		logger:     log.WithFields(map[string]interface{}{"component": "console-api"}),
	}
}

// Handler returns the route table wrapped in the request-ID and logging
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /candidates/{id}/assessment", s.handleGetAssessment)
	mux.HandleFunc("GET /candidates/{id}/overrides", s.handleListOverrides)

	mux.HandleFunc("POST /candidates/{id}/criteria/{criterion}/edit", s.handleBeginEdit)
	mux.HandleFunc("GET /candidates/{id}/criteria/{criterion}/edit", s.handleGetSession)
	mux.HandleFunc("PUT /candidates/{id}/criteria/{criterion}/edit", s.handleSetDraft)
	mux.HandleFunc("DELETE /candidates/{id}/criteria/{criterion}/edit", s.handleCancel)
	mux.HandleFunc("POST /candidates/{id}/criteria/{criterion}/save", s.handleSave)
	mux.HandleFunc("POST /candidates/{id}/criteria/{criterion}/reset", s.handleReset)
	mux.HandleFunc("PUT /candidates/{id}/potential", s.handlePotential)

	mux.HandleFunc("POST /candidates/{id}/regions/{region}/mount", s.handleMount)
	mux.HandleFunc("POST /candidates/{id}/regions/{region}/unmount", s.handleUnmount)
	mux.HandleFunc("GET /candidates/{id}/regions/{region}", s.handleReadRegion)
	mux.HandleFunc("POST /candidates/{id}/refresh", s.handleRefresh)

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	return s.withMiddleware(mux)
}

type draftBody struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type potentialBody struct {
	Value float64 `json:"value"`
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	assessment, err := s.backend.GetAssessment(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := s.backend.ListOverrides(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"overrides": overrides})
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	criterion, err := s.criterion(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.controller.BeginEdit(r.Context(), r.PathValue("id"), criterion)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	criterion, err := s.criterion(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	session := s.controller.Session(r.PathValue("id"), criterion)
	if session == nil {
		s.writeError(w, r, stderrors.NewNoOpenSessionError(r.PathValue("id"), string(criterion)))
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSetDraft(w http.ResponseWriter, r *http.Request) {
	criterion, err := s.criterion(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body draftBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, stderrors.NewBackendValidationError("invalid JSON body", err.Error()))
		return
	}

	if err := s.controller.SetDraft(r.PathValue("id"), criterion, body.Score, body.Reason); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	criterion, err := s.criterion(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.controller.Cancel(r.PathValue("id"), criterion); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	criterion, err := s.criterion(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body draftBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, stderrors.NewBackendValidationError("invalid JSON body", err.Error()))
		return
	}

	if err := s.controller.Save(r.Context(), r.PathValue("id"), criterion, body.Score, body.Reason); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// handleReset requires confirm=true: removing an override is destructive and
// never happens on a bare click.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	criterion, err := s.criterion(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("confirm") != "true" {
		s.writeError(w, r, stderrors.NewBackendValidationError("reset requires explicit confirmation", "pass confirm=true"))
		return
	}

	if err := s.controller.Reset(r.Context(), r.PathValue("id"), criterion); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handlePotential(w http.ResponseWriter, r *http.Request) {
	var body potentialBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, stderrors.NewBackendValidationError("invalid JSON body", err.Error()))
		return
	}

	if err := s.controller.UpdatePotential(r.Context(), r.PathValue("id"), body.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// handleMount attaches a region and immediately reconciles so it renders
// real values instead of staying blank until the next write.
func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	region, err := s.region(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	candidateID := r.PathValue("id")
	if err := s.host.Mount(r.Context(), candidateID, region); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.reconciler.Recalculate(r.Context(), candidateID); err != nil {
		s.logger.Warn("initial render after mount failed", map[string]interface{}{
			"candidateId": candidateID,
			"region":      string(region),
			"error":       err.Error(),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "mounted"})
}

func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	region, err := s.region(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.host.Unmount(r.Context(), r.PathValue("id"), region); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "unmounted"})
}

func (s *Server) handleReadRegion(w http.ResponseWriter, r *http.Request) {
	region, err := s.region(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.host.Read(r.Context(), r.PathValue("id"), region)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if data == nil {
		s.writeJSON(w, http.StatusNoContent, nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleRefresh is the reviewer's manual escape hatch after a soft
// reconciliation warning.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.reconciler.Recalculate(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) criterion(r *http.Request) (rubric.Criterion, error) {
	criterion, err := rubric.Parse(r.PathValue("criterion"))
	if err != nil {
		return "", stderrors.NewUnknownCriterionError(r.PathValue("criterion"))
	}
	return criterion, nil
}

func (s *Server) region(r *http.Request) (presentation.RegionType, error) {
	region := presentation.RegionType(r.PathValue("region"))
	if !region.Valid() {
		return "", stderrors.NewBackendValidationError("unknown region type", r.PathValue("region"))
	}
	return region, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("response encoding failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := stderrors.HTTPStatus(err)
	body := map[string]interface{}{"code": "INTERNAL", "message": err.Error()}
	if stdErr, ok := stderrors.AsStandard(err); ok {
		body["code"] = string(stdErr.Code)
		body["message"] = stdErr.Message
		body["retryable"] = stdErr.Retryable
		if stdErr.Details != "" {
			body["details"] = stdErr.Details
		}
	}

	s.logger.Debug("request failed", map[string]interface{}{
		"path":   r.URL.Path,
		"status": status,
		"error":  err.Error(),
	})
	s.writeJSON(w, status, body)
}
