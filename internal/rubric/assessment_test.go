package rubric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-console/internal/common/logger"
)

func fullScores() map[Criterion]CriterionScore {
	return map[Criterion]CriterionScore{
		Education:       {SystemValue: 28},
		Experience:      {SystemValue: 15},
		Training:        {SystemValue: 8},
		Eligibility:     {SystemValue: 10},
		Accomplishments: {SystemValue: 4},
	}
}

func TestWeights_SumToOneHundred(t *testing.T) {
	total := PotentialMax
	for _, c := range All() {
		total += c.Max()
	}
	assert.Equal(t, 100.0, total)
}

func TestParse(t *testing.T) {
	c, err := Parse("education")
	require.NoError(t, err)
	assert.Equal(t, Education, c)
	assert.Equal(t, 40.0, c.Max())

	_, err = Parse("charisma")
	assert.Error(t, err)
}

func TestEffectiveValue_OverrideWins(t *testing.T) {
	score := CriterionScore{
		Criterion:   Education,
		SystemValue: 28,
		Override: &Override{
			Criterion:     Education,
			OriginalScore: 28,
			OverrideScore: 35,
			Reason:        "verified transcript",
			CreatedAt:     time.Now(),
		},
	}
	assert.Equal(t, 35.0, score.EffectiveValue())
	assert.True(t, score.IsOverridden())

	score.Override = nil
	assert.Equal(t, 28.0, score.EffectiveValue())
	assert.False(t, score.IsOverridden())
}

func TestEffectiveValue_ClampedToCriterionRange(t *testing.T) {
	score := CriterionScore{
		Criterion:   Training,
		SystemValue: 8,
		Override:    &Override{Criterion: Training, OverrideScore: 999},
	}
	assert.Equal(t, Training.Max(), score.EffectiveValue())

	score.Override.OverrideScore = -5
	assert.Equal(t, 0.0, score.EffectiveValue())
}

func TestNewAssessment_DefaultsMissingCriteria(t *testing.T) {
	scores := fullScores()
	delete(scores, Accomplishments)

	a := NewAssessment("cand-1", scores, 0, 61, 64, logger.NewTestLogger(t))

	require.Len(t, a.Criteria, 5)
	assert.Equal(t, 0.0, a.EffectiveValue(Accomplishments))
	assert.False(t, a.IsOverridden(Accomplishments))
}

func TestSumEffective(t *testing.T) {
	a := NewAssessment("cand-1", fullScores(), 12, 0, 0, logger.NewNoOpLogger())

	// 28+15+8+10+4 = 65 effective, plus potential 12.
	assert.Equal(t, 77.0, a.SumEffective())

	// Overriding education raises the sum by the delta.
	edu := a.Criteria[Education]
	edu.Override = &Override{Criterion: Education, OriginalScore: 28, OverrideScore: 35, Reason: "verified transcript"}
	a.Criteria[Education] = edu
	assert.Equal(t, 84.0, a.SumEffective())
}

func TestSumEffective_PotentialScenario(t *testing.T) {
	// Criteria summing to 70, potential 12 -> 82.
	scores := map[Criterion]CriterionScore{
		Education:       {SystemValue: 35},
		Experience:      {SystemValue: 15},
		Training:        {SystemValue: 8},
		Eligibility:     {SystemValue: 8},
		Accomplishments: {SystemValue: 4},
	}
	a := NewAssessment("cand-2", scores, 12, 0, 0, logger.NewNoOpLogger())
	assert.Equal(t, 82.0, a.SumEffective())
}

func TestOverrideReason(t *testing.T) {
	a := NewAssessment("cand-1", fullScores(), 0, 65, 0, logger.NewNoOpLogger())
	assert.Equal(t, "", a.OverrideReason(Education))

	edu := a.Criteria[Education]
	edu.Override = &Override{Criterion: Education, OverrideScore: 30, Reason: "portfolio review"}
	a.Criteria[Education] = edu
	assert.Equal(t, "portfolio review", a.OverrideReason(Education))
}

func TestNewAssessment_ClampsPotential(t *testing.T) {
	a := NewAssessment("cand-1", fullScores(), 99, 0, 0, logger.NewNoOpLogger())
	assert.Equal(t, PotentialMax, a.Potential)
}
