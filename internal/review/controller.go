package review

import (
	"context"
	"strings"
	"sync"
	"time"

	stderrors "review-console/internal/common/errors"
	"review-console/internal/common/logger"
	"review-console/internal/common/metrics"
	"review-console/internal/reconcile"
	"review-console/internal/rubric"
	"review-console/internal/scoring"
)

// Controller owns the override workflow. One edit session may be open per
// (candidate, criterion) slot, and each slot has at most one backend call in
// flight.
type Controller struct {
	backend    scoring.Backend
	reconciler reconcile.Recalculator
	logger     logger.Logger

	mu       sync.Mutex
	sessions map[string]*EditSession
}

func NewController(backend scoring.Backend, reconciler reconcile.Recalculator, log logger.Logger) *Controller {
	return &Controller{
		backend:    backend,
		reconciler: reconciler,
		logger:     log.WithFields(map[string]interface{}{"component": "override-controller"}),
		sessions:   make(map[string]*EditSession),
	}
}

// BeginEdit opens an edit session for one criterion, pre-filled from the
// current assessment. A second editor on the same slot is rejected.
func (c *Controller) BeginEdit(ctx context.Context, candidateID string, criterion rubric.Criterion) (*EditSession, error) {
	if !criterion.Valid() {
		return nil, stderrors.NewUnknownCriterionError(string(criterion))
	}

	assessment, err := c.backend.GetAssessment(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := sessionKey(candidateID, string(criterion))
	if _, open := c.sessions[key]; open {
		return nil, stderrors.NewSessionConflictError(candidateID, string(criterion))
	}

	score, reason := prefill(assessment, criterion)
	session := &EditSession{
		CandidateID: candidateID,
		Criterion:   string(criterion),
		State:       StateEditing,
		DraftScore:  score,
		DraftReason: reason,
		SystemValue: assessment.Criteria[criterion].SystemValue,
		OpenedAt:    time.Now().UTC(),
	}
	c.sessions[key] = session
	metrics.EditSessionsActive.Inc()

	c.logger.Debug("edit session opened", map[string]interface{}{
		"candidateId": candidateID,
		"criterion":   string(criterion),
	})
	return copySession(session), nil
}

// SetDraft updates the reviewer's input on an open session. Input is frozen
// while a submit is in flight.
func (c *Controller) SetDraft(candidateID string, criterion rubric.Criterion, score float64, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[sessionKey(candidateID, string(criterion))]
	if !ok {
		return stderrors.NewNoOpenSessionError(candidateID, string(criterion))
	}
	if !session.editable() {
		return stderrors.NewSessionConflictError(candidateID, string(criterion))
	}
	session.DraftScore = score
	session.DraftReason = reason
	return nil
}

// Cancel discards the session and its draft. The displayed value is whatever
// the last reconciliation rendered, so nothing else changes.
func (c *Controller) Cancel(candidateID string, criterion rubric.Criterion) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := sessionKey(candidateID, string(criterion))
	session, ok := c.sessions[key]
	if !ok {
		return stderrors.NewNoOpenSessionError(candidateID, string(criterion))
	}
	if !session.editable() {
		return stderrors.NewSessionConflictError(candidateID, string(criterion))
	}
	delete(c.sessions, key)
	metrics.EditSessionsActive.Dec()
	return nil
}

// Session returns a snapshot of the open session, or nil when the slot is
// displaying.
func (c *Controller) Session(candidateID string, criterion rubric.Criterion) *EditSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	if session, ok := c.sessions[sessionKey(candidateID, string(criterion))]; ok {
		return copySession(session)
	}
	return nil
}

// Save validates the draft locally, submits it, and closes the session on
// success. On any failure the session returns to editing with the draft
// intact and the backend's message passes through verbatim.
func (c *Controller) Save(ctx context.Context, candidateID string, criterion rubric.Criterion, score float64, reason string) error {
	c.mu.Lock()
	key := sessionKey(candidateID, string(criterion))
	session, ok := c.sessions[key]
	if !ok {
		c.mu.Unlock()
		return stderrors.NewNoOpenSessionError(candidateID, string(criterion))
	}
	if !session.editable() {
		c.mu.Unlock()
		return stderrors.NewSessionConflictError(candidateID, string(criterion))
	}

	// Keep the latest input either way; a validation failure must not lose
	// what the reviewer typed.
	session.DraftScore = score
	session.DraftReason = reason

	if err := validateOverride(criterion, score, reason); err != nil {
		c.mu.Unlock()
		metrics.OverrideSaves.WithLabelValues(string(criterion), "invalid").Inc()
		return err
	}

	session.State = StateSubmitting
	c.mu.Unlock()

	_, err := c.backend.PutOverride(ctx, candidateID, criterion, score, reason)

	c.mu.Lock()
	if err != nil {
		session.State = StateEditing
		c.mu.Unlock()
		metrics.OverrideSaves.WithLabelValues(string(criterion), "rejected").Inc()
		return err
	}
	delete(c.sessions, key)
	metrics.EditSessionsActive.Dec()
	c.mu.Unlock()

	metrics.OverrideSaves.WithLabelValues(string(criterion), "success").Inc()
	c.logger.Info("override saved", map[string]interface{}{
		"candidateId": candidateID,
		"criterion":   string(criterion),
		"score":       score,
	})

	c.reconcileAfter(ctx, candidateID)
	return nil
}

// Reset removes the override so the criterion falls back to its system value.
// Idempotent: resetting a criterion without an override still succeeds and
// confirms the machine score. Rejected while an edit session is open on the
// slot.
func (c *Controller) Reset(ctx context.Context, candidateID string, criterion rubric.Criterion) error {
	if !criterion.Valid() {
		return stderrors.NewUnknownCriterionError(string(criterion))
	}

	c.mu.Lock()
	if _, open := c.sessions[sessionKey(candidateID, string(criterion))]; open {
		c.mu.Unlock()
		return stderrors.NewSessionConflictError(candidateID, string(criterion))
	}
	c.mu.Unlock()

	systemValue, err := c.backend.DeleteOverride(ctx, candidateID, criterion)
	if err != nil {
		metrics.OverrideResets.WithLabelValues(string(criterion), "failed").Inc()
		return err
	}

	metrics.OverrideResets.WithLabelValues(string(criterion), "success").Inc()
	c.logger.Info("override reset", map[string]interface{}{
		"candidateId": candidateID,
		"criterion":   string(criterion),
		"systemValue": systemValue,
	})

	c.reconcileAfter(ctx, candidateID)
	return nil
}

// UpdatePotential upserts the administrative potential score. It shares the
// per-slot submission guard with criterion overrides through a synthetic
// slot, so at most one potential write is in flight per candidate.
func (c *Controller) UpdatePotential(ctx context.Context, candidateID string, value float64) error {
	if value < 0 || value > rubric.PotentialMax {
		return stderrors.NewScoreOutOfRangeError(potentialKey, value, rubric.PotentialMax)
	}

	key := sessionKey(candidateID, potentialKey)
	c.mu.Lock()
	if _, open := c.sessions[key]; open {
		c.mu.Unlock()
		return stderrors.NewSessionConflictError(candidateID, potentialKey)
	}
	c.sessions[key] = &EditSession{
		CandidateID: candidateID,
		Criterion:   potentialKey,
		State:       StateSubmitting,
		DraftScore:  value,
		OpenedAt:    time.Now().UTC(),
	}
	c.mu.Unlock()

	err := c.backend.PutPotential(ctx, candidateID, value)

	c.mu.Lock()
	delete(c.sessions, key)
	c.mu.Unlock()

	if err != nil {
		return err
	}

	c.logger.Info("potential updated", map[string]interface{}{
		"candidateId": candidateID,
		"value":       value,
	})
	c.reconcileAfter(ctx, candidateID)
	return nil
}

// reconcileAfter refreshes mounted regions after a committed write. The write
// already succeeded, so a reconciliation failure is logged as a warning and
// not surfaced as a write failure.
func (c *Controller) reconcileAfter(ctx context.Context, candidateID string) {
	if err := c.reconciler.Recalculate(ctx, candidateID); err != nil {
		c.logger.Warn("post-write reconciliation failed, regions may be stale", map[string]interface{}{
			"candidateId": candidateID,
			"error":       err.Error(),
		})
	}
}

// validateOverride runs the local checks that never need the network.
func validateOverride(criterion rubric.Criterion, score float64, reason string) error {
	if !criterion.Valid() {
		return stderrors.NewUnknownCriterionError(string(criterion))
	}
	if score < 0 || score > criterion.Max() {
		return stderrors.NewScoreOutOfRangeError(string(criterion), score, criterion.Max())
	}
	if strings.TrimSpace(reason) == "" {
		return stderrors.NewReasonRequiredError(string(criterion))
	}
	return nil
}

func copySession(s *EditSession) *EditSession {
	dup := *s
	return &dup
}
