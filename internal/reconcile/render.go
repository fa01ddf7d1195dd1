// Package reconcile pushes a freshly fetched assessment into every mounted
// presentation region for one candidate.
package reconcile

import (
	"review-console/internal/presentation"
	"review-console/internal/rubric"
)

// CriterionRow is one rendered rubric line: numbers, bar and badge.
type CriterionRow struct {
	Criterion      rubric.Criterion      `json:"criterion"`
	SystemValue    float64               `json:"systemValue"`
	EffectiveValue float64               `json:"effectiveValue"`
	Max            float64               `json:"max"`
	Classification rubric.Classification `json:"classification"`
	Overridden     bool                  `json:"overridden"`
	OverrideReason string                `json:"overrideReason,omitempty"`
}

// ListRowView is the candidate's summary row.
type ListRowView struct {
	CandidateID     string                `json:"candidateId"`
	RuleBasedTotal  float64               `json:"ruleBasedTotal"`
	AIEnhancedTotal float64               `json:"aiEnhancedTotal"`
	Classification  rubric.Classification `json:"classification"`
	HasOverrides    bool                  `json:"hasOverrides"`
}

// DetailHeaderView shows both totals at the top of the detail view.
type DetailHeaderView struct {
	CandidateID     string                `json:"candidateId"`
	RuleBasedTotal  float64               `json:"ruleBasedTotal"`
	RuleBasedTier   rubric.Classification `json:"ruleBasedTier"`
	AIEnhancedTotal float64               `json:"aiEnhancedTotal"`
	AIEnhancedTier  rubric.Classification `json:"aiEnhancedTier"`
	OverriddenCount int                   `json:"overriddenCount"`
}

// BreakdownView lists every criterion row plus the potential control.
type BreakdownView struct {
	CandidateID   string                `json:"candidateId"`
	Rows          []CriterionRow        `json:"rows"`
	Potential     float64               `json:"potential"`
	PotentialMax  float64               `json:"potentialMax"`
	PotentialTier rubric.Classification `json:"potentialTier"`
}

// TotalsPanelView compares the two aggregate totals.
type TotalsPanelView struct {
	CandidateID     string  `json:"candidateId"`
	RuleBasedTotal  float64 `json:"ruleBasedTotal"`
	AIEnhancedTotal float64 `json:"aiEnhancedTotal"`
	Delta           float64 `json:"delta"`
}

// Render derives the display values for one region from an assessment. Pure:
// the same assessment always renders identically.
func Render(a *rubric.Assessment, region presentation.RegionType) interface{} {
	switch region {
	case presentation.RegionListRow:
		return ListRowView{
			CandidateID:     a.CandidateID,
			RuleBasedTotal:  a.RuleBasedTotal,
			AIEnhancedTotal: a.AIEnhancedTotal,
			Classification:  rubric.Classify(a.RuleBasedTotal, 100),
			HasOverrides:    overriddenCount(a) > 0,
		}
	case presentation.RegionDetailHeader:
		return DetailHeaderView{
			CandidateID:     a.CandidateID,
			RuleBasedTotal:  a.RuleBasedTotal,
			RuleBasedTier:   rubric.Classify(a.RuleBasedTotal, 100),
			AIEnhancedTotal: a.AIEnhancedTotal,
			AIEnhancedTier:  rubric.Classify(a.AIEnhancedTotal, 100),
			OverriddenCount: overriddenCount(a),
		}
	case presentation.RegionCriterionBreakdown:
		rows := make([]CriterionRow, 0, len(rubric.All()))
		for _, c := range rubric.All() {
			score := a.Criteria[c]
			effective := score.EffectiveValue()
			rows = append(rows, CriterionRow{
				Criterion:      c,
				SystemValue:    score.SystemValue,
				EffectiveValue: effective,
				Max:            c.Max(),
				Classification: rubric.Classify(effective, c.Max()),
				Overridden:     score.IsOverridden(),
				OverrideReason: a.OverrideReason(c),
			})
		}
		return BreakdownView{
			CandidateID:   a.CandidateID,
			Rows:          rows,
			Potential:     a.Potential,
			PotentialMax:  rubric.PotentialMax,
			PotentialTier: rubric.Classify(a.Potential, rubric.PotentialMax),
		}
	case presentation.RegionTotalsPanel:
		return TotalsPanelView{
			CandidateID:     a.CandidateID,
			RuleBasedTotal:  a.RuleBasedTotal,
			AIEnhancedTotal: a.AIEnhancedTotal,
			Delta:           a.AIEnhancedTotal - a.RuleBasedTotal,
		}
	}
	return nil
}

func overriddenCount(a *rubric.Assessment) int {
	n := 0
	for _, c := range rubric.All() {
		if a.IsOverridden(c) {
			n++
		}
	}
	return n
}
