package rubric

import (
	"time"

	"review-console/internal/common/logger"
)

// Override is a reviewer-supplied replacement for a criterion's system score.
// At most one exists per (candidate, criterion); saving again replaces it.
type Override struct {
	Criterion     Criterion `json:"criterion"`
	OriginalScore float64   `json:"originalScore"`
	OverrideScore float64   `json:"overrideScore"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CriterionScore pairs a system-computed value with an optional override.
type CriterionScore struct {
	Criterion   Criterion `json:"criterion"`
	SystemValue float64   `json:"systemValue"`
	Override    *Override `json:"override,omitempty"`
}

// EffectiveValue is the score counted toward totals: the override when
// present, the system value otherwise, clamped to the criterion's range.
func (s CriterionScore) EffectiveValue() float64 {
	v := s.SystemValue
	if s.Override != nil {
		v = s.Override.OverrideScore
	}
	return clamp(v, 0, s.Criterion.Max())
}

// IsOverridden reports whether a manual override is active.
func (s CriterionScore) IsOverridden() bool {
	return s.Override != nil
}

// Assessment is the authoritative rubric state for one candidate, built only
// from a backend payload and never mutated locally.
type Assessment struct {
	CandidateID     string                       `json:"candidateId"`
	Criteria        map[Criterion]CriterionScore `json:"criteria"`
	Potential       float64                      `json:"potential"`
	RuleBasedTotal  float64                      `json:"ruleBasedTotal"`
	AIEnhancedTotal float64                      `json:"aiEnhancedTotal"`
}

// NewAssessment builds an Assessment, defaulting missing criteria to a zero
// system value. Rubric completeness is the backend's responsibility, so a gap
// logs a warning instead of failing.
func NewAssessment(candidateID string, scores map[Criterion]CriterionScore, potential, ruleTotal, aiTotal float64, log logger.Logger) *Assessment {
	criteria := make(map[Criterion]CriterionScore, len(criterionOrder))
	for _, c := range All() {
		if s, ok := scores[c]; ok {
			s.Criterion = c
			criteria[c] = s
			continue
		}
		if log != nil {
			log.Warn("criterion missing from backend payload, defaulting to zero", map[string]interface{}{
				"candidateId": candidateID,
				"criterion":   c.String(),
			})
		}
		criteria[c] = CriterionScore{Criterion: c}
	}

	return &Assessment{
		CandidateID:     candidateID,
		Criteria:        criteria,
		Potential:       clamp(potential, 0, PotentialMax),
		RuleBasedTotal:  ruleTotal,
		AIEnhancedTotal: aiTotal,
	}
}

// EffectiveValue returns the counted score for one criterion.
func (a *Assessment) EffectiveValue(c Criterion) float64 {
	return a.Criteria[c].EffectiveValue()
}

// IsOverridden reports whether the criterion carries an active override.
func (a *Assessment) IsOverridden(c Criterion) bool {
	return a.Criteria[c].IsOverridden()
}

// OverrideReason returns the stored justification, empty when no override.
func (a *Assessment) OverrideReason(c Criterion) string {
	if o := a.Criteria[c].Override; o != nil {
		return o.Reason
	}
	return ""
}

// SumEffective recomputes Σ effective + potential. The console displays the
// backend-supplied RuleBasedTotal; this exists for the backend itself and for
// invariant checks.
func (a *Assessment) SumEffective() float64 {
	total := a.Potential
	for _, c := range All() {
		total += a.EffectiveValue(c)
	}
	return clamp(total, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
