package scoring

import (
	"time"

	"review-console/internal/common/logger"
	"review-console/internal/rubric"
)

// The backend's payloads grew alternate field names over time (for example
// "score" next to "systemValue"). They are accepted here and nowhere else;
// everything past this file works with rubric types only.

type overridePayload struct {
	OriginalScore float64   `json:"originalScore"`
	OverrideScore *float64  `json:"overrideScore,omitempty"`
	ManualScore   *float64  `json:"manualScore,omitempty"` // legacy alias
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (p *overridePayload) value() float64 {
	if p.OverrideScore != nil {
		return *p.OverrideScore
	}
	if p.ManualScore != nil {
		return *p.ManualScore
	}
	return p.OriginalScore
}

type criterionPayload struct {
	Criterion   string           `json:"criterion"`
	Name        string           `json:"name,omitempty"` // legacy alias
	SystemValue *float64         `json:"systemValue,omitempty"`
	Score       *float64         `json:"score,omitempty"` // legacy alias
	Override    *overridePayload `json:"override,omitempty"`
}

func (p *criterionPayload) key() string {
	if p.Criterion != "" {
		return p.Criterion
	}
	return p.Name
}

func (p *criterionPayload) systemValue() float64 {
	if p.SystemValue != nil {
		return *p.SystemValue
	}
	if p.Score != nil {
		return *p.Score
	}
	return 0
}

type assessmentPayload struct {
	CandidateID     string             `json:"candidateId"`
	Criteria        []criterionPayload `json:"criteria"`
	Potential       *float64           `json:"potential,omitempty"`
	PotentialScore  *float64           `json:"potentialScore,omitempty"` // legacy alias
	RuleBasedTotal  float64            `json:"ruleBasedTotal"`
	AIEnhancedTotal float64            `json:"aiEnhancedTotal"`
}

func (p *assessmentPayload) potential() float64 {
	if p.Potential != nil {
		return *p.Potential
	}
	if p.PotentialScore != nil {
		return *p.PotentialScore
	}
	return 0
}

// normalize converts a wire payload into the strict assessment model.
// Unknown criteria are dropped with a warning; missing ones default to zero
// inside NewAssessment.
func (p *assessmentPayload) normalize(candidateID string, log logger.Logger) *rubric.Assessment {
	scores := make(map[rubric.Criterion]rubric.CriterionScore, len(p.Criteria))
	for i := range p.Criteria {
		cp := &p.Criteria[i]
		criterion, err := rubric.Parse(cp.key())
		if err != nil {
			log.Warn("dropping unknown criterion from backend payload", map[string]interface{}{
				"candidateId": candidateID,
				"criterion":   cp.key(),
			})
			continue
		}

		score := rubric.CriterionScore{
			Criterion:   criterion,
			SystemValue: cp.systemValue(),
		}
		if cp.Override != nil {
			score.Override = &rubric.Override{
				Criterion:     criterion,
				OriginalScore: cp.Override.OriginalScore,
				OverrideScore: cp.Override.value(),
				Reason:        cp.Override.Reason,
				CreatedAt:     cp.Override.CreatedAt,
			}
		}
		scores[criterion] = score
	}

	return rubric.NewAssessment(candidateID, scores, p.potential(), p.RuleBasedTotal, p.AIEnhancedTotal, log)
}

type overrideRequest struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type potentialRequest struct {
	Value float64 `json:"value"`
}

type snapshotResponse struct {
	SystemValueSnapshot *float64 `json:"systemValueSnapshot,omitempty"`
	SystemValue         *float64 `json:"systemValue,omitempty"` // legacy alias
}

func (r *snapshotResponse) value() float64 {
	if r.SystemValueSnapshot != nil {
		return *r.SystemValueSnapshot
	}
	if r.SystemValue != nil {
		return *r.SystemValue
	}
	return 0
}

type listOverridesResponse struct {
	Overrides map[string]overridePayload `json:"overrides"`
}

// errorResponse mirrors the scoring API's error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
