package reconcile

import (
	"context"

	stderrors "review-console/internal/common/errors"
	"review-console/internal/common/logger"
	"review-console/internal/common/metrics"
	"review-console/internal/presentation"
	"review-console/internal/scoring"
)

// Recalculator triggers a full refresh of a candidate's mounted regions.
type Recalculator interface {
	Recalculate(ctx context.Context, candidateID string) error
}

// Service re-fetches the authoritative assessment and pushes rendered values
// into every mounted region. It never recomputes totals locally.
type Service struct {
	backend scoring.Backend
	host    presentation.Host
	logger  logger.Logger
}

func NewService(backend scoring.Backend, host presentation.Host, log logger.Logger) *Service {
	return &Service{
		backend: backend,
		host:    host,
		logger:  log.WithFields(map[string]interface{}{"component": "reconcile"}),
	}
}

// Recalculate refreshes all mounted regions for one candidate from a single
// backend fetch. If the fetch fails no region is touched, so every region
// keeps showing the previous consistent model. Unmounted regions are skipped.
func (s *Service) Recalculate(ctx context.Context, candidateID string) error {
	assessment, err := s.backend.GetAssessment(ctx, candidateID)
	if err != nil {
		metrics.ReconcileRuns.WithLabelValues("fetch_failed").Inc()
		s.logger.WithError(err).Error("reconciliation fetch failed", map[string]interface{}{
			"candidateId": candidateID,
		})
		return stderrors.NewReconciliationFailedError(candidateID, err)
	}

	updated := 0
	var writeErr error
	for _, region := range presentation.KnownRegions() {
		mounted, err := s.host.IsMounted(ctx, candidateID, region)
		if err != nil {
			writeErr = err
			continue
		}
		if !mounted {
			continue
		}
		if err := s.host.Write(ctx, candidateID, region, Render(assessment, region)); err != nil {
			// The region keeps its previous rendering; stale but internally
			// consistent.
			writeErr = err
			s.logger.Warn("region write failed", map[string]interface{}{
				"candidateId": candidateID,
				"region":      string(region),
				"error":       err.Error(),
			})
			continue
		}
		updated++
	}

	metrics.ReconcileRegionsUpdated.Add(float64(updated))
	if writeErr != nil {
		metrics.ReconcileRuns.WithLabelValues("partial").Inc()
		return stderrors.NewReconciliationFailedError(candidateID, writeErr)
	}

	metrics.ReconcileRuns.WithLabelValues("success").Inc()
	s.logger.Debug("reconciliation complete", map[string]interface{}{
		"candidateId":    candidateID,
		"regionsUpdated": updated,
	})
	return nil
}
