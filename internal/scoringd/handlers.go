package scoringd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	stderrors "review-console/internal/common/errors"
	"review-console/internal/common/logger"
	"review-console/internal/common/metrics"
	"review-console/internal/rubric"
)

// Server is the scoring API the console talks to. Writes are validated in
// three layers: JSON Schema for shape, rubric ranges locally, candidate
// existence in the store.
type Server struct {
	store   *Store
	auditor Auditor
	notif   Notifier
	schemas *requestSchemas
	logger  logger.Logger
}

func NewServer(store *Store, auditor Auditor, notif Notifier, log logger.Logger) (*Server, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &Server{
		store:   store,
		auditor: auditor,
		notif:   notif,
		schemas: schemas,
		logger:  log.WithFields(map[string]interface{}{"component": "scoring-api"}),
	}, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /candidates/{id}/assessment", s.handleGetAssessment)
	mux.HandleFunc("PUT /candidates/{id}/overrides/{criterion}", s.handlePutOverride)
	mux.HandleFunc("DELETE /candidates/{id}/overrides/{criterion}", s.handleDeleteOverride)
	mux.HandleFunc("PUT /candidates/{id}/potential", s.handlePutPotential)
	mux.HandleFunc("GET /candidates/{id}/overrides", s.handleListOverrides)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

// Wire shapes. Responses use the canonical field names; the console's client
// also tolerates the legacy aliases still emitted by older deployments.
type overrideJSON struct {
	Criterion     string    `json:"criterion"`
	OriginalScore float64   `json:"originalScore"`
	OverrideScore float64   `json:"overrideScore"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"createdAt"`
}

type criterionJSON struct {
	Criterion   string        `json:"criterion"`
	SystemValue float64       `json:"systemValue"`
	Override    *overrideJSON `json:"override,omitempty"`
}

type assessmentJSON struct {
	CandidateID     string          `json:"candidateId"`
	Criteria        []criterionJSON `json:"criteria"`
	Potential       float64         `json:"potential"`
	RuleBasedTotal  float64         `json:"ruleBasedTotal"`
	AIEnhancedTotal float64         `json:"aiEnhancedTotal"`
}

type overrideBody struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type potentialBody struct {
	Value float64 `json:"value"`
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("id")

	assessment, err := s.store.GetAssessment(r.Context(), candidateID)
	if err != nil {
		s.writeError(w, "get_assessment", err)
		return
	}

	out := assessmentJSON{
		CandidateID:     assessment.CandidateID,
		Potential:       assessment.Potential,
		RuleBasedTotal:  assessment.RuleBasedTotal,
		AIEnhancedTotal: assessment.AIEnhancedTotal,
	}
	for _, c := range rubric.All() {
		score := assessment.Criteria[c]
		row := criterionJSON{Criterion: string(c), SystemValue: score.SystemValue}
		if o := score.Override; o != nil {
			row.Override = &overrideJSON{
				Criterion:     string(c),
				OriginalScore: o.OriginalScore,
				OverrideScore: o.OverrideScore,
				Reason:        o.Reason,
				CreatedAt:     o.CreatedAt,
			}
		}
		out.Criteria = append(out.Criteria, row)
	}

	s.writeJSON(w, "get_assessment", http.StatusOK, out)
}

func (s *Server) handlePutOverride(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("id")

	criterion, err := rubric.Parse(r.PathValue("criterion"))
	if err != nil {
		s.writeUnknownCriterion(w, "put_override", r.PathValue("criterion"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, "put_override", stderrors.NewBackendValidationError("unreadable request body", err.Error()))
		return
	}
	if err := validate(s.schemas.override, body); err != nil {
		s.writeError(w, "put_override", stderrors.NewBackendValidationError(err.Error(), ""))
		return
	}

	var req overrideBody
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, "put_override", stderrors.NewBackendValidationError("invalid JSON", err.Error()))
		return
	}
	if req.Score < 0 || req.Score > criterion.Max() {
		s.writeError(w, "put_override", stderrors.NewBackendValidationError(
			fmt.Sprintf("score must be between 0 and %g", criterion.Max()), ""))
		return
	}

	systemValue, err := s.store.UpsertOverride(r.Context(), candidateID, criterion, req.Score, req.Reason)
	if err != nil {
		s.writeError(w, "put_override", err)
		return
	}

	event := AuditEvent{
		CandidateID: candidateID,
		Criterion:   string(criterion),
		Action:      ActionOverrideSaved,
		SystemValue: systemValue,
		NewValue:    req.Score,
		Reason:      req.Reason,
	}
	s.recordEvent(r.Context(), event)

	s.writeJSON(w, "put_override", http.StatusOK, map[string]float64{"systemValueSnapshot": systemValue})
}

func (s *Server) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("id")

	criterion, err := rubric.Parse(r.PathValue("criterion"))
	if err != nil {
		s.writeUnknownCriterion(w, "delete_override", r.PathValue("criterion"))
		return
	}

	systemValue, err := s.store.DeleteOverride(r.Context(), candidateID, criterion)
	if err != nil {
		s.writeError(w, "delete_override", err)
		return
	}

	s.recordEvent(r.Context(), AuditEvent{
		CandidateID: candidateID,
		Criterion:   string(criterion),
		Action:      ActionOverrideReset,
		SystemValue: systemValue,
		NewValue:    systemValue,
	})

	s.writeJSON(w, "delete_override", http.StatusOK, map[string]float64{"systemValue": systemValue})
}

func (s *Server) handlePutPotential(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, "put_potential", stderrors.NewBackendValidationError("unreadable request body", err.Error()))
		return
	}
	if err := validate(s.schemas.potential, body); err != nil {
		s.writeError(w, "put_potential", stderrors.NewBackendValidationError(err.Error(), ""))
		return
	}

	var req potentialBody
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, "put_potential", stderrors.NewBackendValidationError("invalid JSON", err.Error()))
		return
	}
	if req.Value < 0 || req.Value > rubric.PotentialMax {
		s.writeError(w, "put_potential", stderrors.NewBackendValidationError(
			fmt.Sprintf("potential must be between 0 and %g", rubric.PotentialMax), ""))
		return
	}

	if err := s.store.UpsertPotential(r.Context(), candidateID, req.Value); err != nil {
		s.writeError(w, "put_potential", err)
		return
	}

	s.writeJSON(w, "put_potential", http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("id")

	overrides, err := s.store.ListOverrides(r.Context(), candidateID)
	if err != nil {
		s.writeError(w, "list_overrides", err)
		return
	}

	out := make(map[string]overrideJSON, len(overrides))
	for c, o := range overrides {
		out[string(c)] = overrideJSON{
			Criterion:     string(c),
			OriginalScore: o.OriginalScore,
			OverrideScore: o.OverrideScore,
			Reason:        o.Reason,
			CreatedAt:     o.CreatedAt,
		}
	}

	s.writeJSON(w, "list_overrides", http.StatusOK, map[string]interface{}{"overrides": out})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.db.Ping(r.Context()); err != nil {
		s.writeJSON(w, "healthz", http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	s.writeJSON(w, "healthz", http.StatusOK, map[string]string{"status": "ok"})
}

// recordEvent writes the audit trail and fires notifications. Both are best
// effort: the override is already durable, so a failure here is logged and
// never turns a committed write into an error response.
func (s *Server) recordEvent(ctx context.Context, event AuditEvent) {
	if err := s.auditor.Record(ctx, event); err != nil {
		s.logger.Warn("audit write failed", map[string]interface{}{
			"candidateId": event.CandidateID,
			"criterion":   event.Criterion,
			"error":       err.Error(),
		})
	}
	if err := s.notif.OverrideCommitted(ctx, event); err != nil {
		s.logger.Warn("notification failed", map[string]interface{}{
			"candidateId": event.CandidateID,
			"criterion":   event.Criterion,
			"error":       err.Error(),
		})
	}
}

// writeUnknownCriterion responds not-found: an unknown criterion in the path
// names a resource that does not exist, unlike a range violation in the body.
func (s *Server) writeUnknownCriterion(w http.ResponseWriter, route, name string) {
	s.writeJSON(w, route, http.StatusNotFound, map[string]string{
		"code":    string(stderrors.ErrCodeUnknownCriterion),
		"message": fmt.Sprintf("unknown criterion %q", name),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, route string, status int, payload interface{}) {
	metrics.ScoringRequests.WithLabelValues(route, fmt.Sprintf("%d", status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("response encoding failed", map[string]interface{}{"route": route, "error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, route string, err error) {
	status := stderrors.HTTPStatus(err)
	body := map[string]string{"code": "INTERNAL", "message": err.Error()}
	if stdErr, ok := stderrors.AsStandard(err); ok {
		body["code"] = string(stdErr.Code)
		body["message"] = stdErr.Message
		if stdErr.Details != "" {
			body["details"] = stdErr.Details
		}
	}
	s.writeJSON(w, route, status, body)
}
