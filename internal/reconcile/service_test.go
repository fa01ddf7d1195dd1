package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "review-console/internal/common/errors"
	"review-console/internal/common/logger"
	"review-console/internal/presentation"
	"review-console/internal/rubric"
	"review-console/internal/scoring"
)

type fakeBackend struct {
	assessment *rubric.Assessment
	err        error
	fetches    int
}

func (f *fakeBackend) GetAssessment(ctx context.Context, candidateID string) (*rubric.Assessment, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.assessment, nil
}

func (f *fakeBackend) PutOverride(ctx context.Context, candidateID string, criterion rubric.Criterion, score float64, reason string) (scoring.SystemSnapshot, error) {
	return scoring.SystemSnapshot{}, nil
}

func (f *fakeBackend) DeleteOverride(ctx context.Context, candidateID string, criterion rubric.Criterion) (float64, error) {
	return 0, nil
}

func (f *fakeBackend) PutPotential(ctx context.Context, candidateID string, value float64) error {
	return nil
}

func (f *fakeBackend) ListOverrides(ctx context.Context, candidateID string) (map[rubric.Criterion]rubric.Override, error) {
	return nil, nil
}

type memHost struct {
	mounted  map[presentation.RegionType]bool
	written  map[presentation.RegionType]interface{}
	writeErr map[presentation.RegionType]error
}

func newMemHost(regions ...presentation.RegionType) *memHost {
	h := &memHost{
		mounted:  make(map[presentation.RegionType]bool),
		written:  make(map[presentation.RegionType]interface{}),
		writeErr: make(map[presentation.RegionType]error),
	}
	for _, r := range regions {
		h.mounted[r] = true
	}
	return h
}

func (h *memHost) IsMounted(ctx context.Context, candidateID string, region presentation.RegionType) (bool, error) {
	return h.mounted[region], nil
}

func (h *memHost) Write(ctx context.Context, candidateID string, region presentation.RegionType, rendered interface{}) error {
	if err := h.writeErr[region]; err != nil {
		return err
	}
	h.written[region] = rendered
	return nil
}

func testAssessment() *rubric.Assessment {
	return rubric.NewAssessment("cand-1", map[rubric.Criterion]rubric.CriterionScore{
		rubric.Education: {
			Criterion:   rubric.Education,
			SystemValue: 28,
			Override: &rubric.Override{
				Criterion:     rubric.Education,
				OriginalScore: 28,
				OverrideScore: 35,
				Reason:        "verified transcript",
			},
		},
		rubric.Experience:      {Criterion: rubric.Experience, SystemValue: 15},
		rubric.Training:        {Criterion: rubric.Training, SystemValue: 8},
		rubric.Eligibility:     {Criterion: rubric.Eligibility, SystemValue: 10},
		rubric.Accomplishments: {Criterion: rubric.Accomplishments, SystemValue: 4},
	}, 5, 77, 81.5, logger.NewNoOpLogger())
}

func TestRecalculate_WritesOnlyMountedRegions(t *testing.T) {
	backend := &fakeBackend{assessment: testAssessment()}
	host := newMemHost(presentation.RegionListRow, presentation.RegionTotalsPanel)
	svc := NewService(backend, host, logger.NewTestLogger(t))

	require.NoError(t, svc.Recalculate(context.Background(), "cand-1"))

	assert.Equal(t, 1, backend.fetches)
	assert.Contains(t, host.written, presentation.RegionListRow)
	assert.Contains(t, host.written, presentation.RegionTotalsPanel)
	assert.NotContains(t, host.written, presentation.RegionDetailHeader)
	assert.NotContains(t, host.written, presentation.RegionCriterionBreakdown)
}

func TestRecalculate_FetchFailureTouchesNothing(t *testing.T) {
	backend := &fakeBackend{err: stderrors.NewBackendUnreachableError(errors.New("connection refused"))}
	host := newMemHost(presentation.KnownRegions()...)
	svc := NewService(backend, host, logger.NewTestLogger(t))

	err := svc.Recalculate(context.Background(), "cand-1")
	require.Error(t, err)
	assert.True(t, stderrors.IsReconciliation(err))
	assert.Empty(t, host.written)
}

func TestRecalculate_WriteFailureLeavesRegionStale(t *testing.T) {
	backend := &fakeBackend{assessment: testAssessment()}
	host := newMemHost(presentation.KnownRegions()...)
	host.writeErr[presentation.RegionDetailHeader] = errors.New("connection reset")
	svc := NewService(backend, host, logger.NewTestLogger(t))

	err := svc.Recalculate(context.Background(), "cand-1")
	require.Error(t, err)
	assert.True(t, stderrors.IsReconciliation(err))

	// The other regions were still refreshed from the same fetch.
	assert.Contains(t, host.written, presentation.RegionListRow)
	assert.Contains(t, host.written, presentation.RegionTotalsPanel)
	assert.NotContains(t, host.written, presentation.RegionDetailHeader)
}

func TestRecalculate_ListAndDetailAgree(t *testing.T) {
	backend := &fakeBackend{assessment: testAssessment()}
	host := newMemHost(presentation.RegionListRow, presentation.RegionDetailHeader)
	svc := NewService(backend, host, logger.NewTestLogger(t))

	require.NoError(t, svc.Recalculate(context.Background(), "cand-1"))

	row := host.written[presentation.RegionListRow].(ListRowView)
	header := host.written[presentation.RegionDetailHeader].(DetailHeaderView)
	assert.Equal(t, row.RuleBasedTotal, header.RuleBasedTotal)
	assert.Equal(t, row.AIEnhancedTotal, header.AIEnhancedTotal)
	assert.Equal(t, row.Classification, header.RuleBasedTier)
}

func TestRender_Pure(t *testing.T) {
	a := testAssessment()
	for _, region := range presentation.KnownRegions() {
		assert.Equal(t, Render(a, region), Render(a, region), string(region))
	}
	assert.Nil(t, Render(a, presentation.RegionType("sidebar")))
}

func TestRender_Breakdown(t *testing.T) {
	view := Render(testAssessment(), presentation.RegionCriterionBreakdown).(BreakdownView)

	require.Len(t, view.Rows, 5)
	byName := make(map[rubric.Criterion]CriterionRow, len(view.Rows))
	for _, row := range view.Rows {
		byName[row.Criterion] = row
	}

	edu := byName[rubric.Education]
	assert.Equal(t, 28.0, edu.SystemValue)
	assert.Equal(t, 35.0, edu.EffectiveValue)
	assert.True(t, edu.Overridden)
	assert.Equal(t, "verified transcript", edu.OverrideReason)
	// 35/40 = 87.5% lands in the excellent band.
	assert.Equal(t, rubric.TierExcellent, edu.Classification.Tier)
	assert.InDelta(t, 87.5, edu.Classification.FillPercent, 0.001)

	exp := byName[rubric.Experience]
	assert.False(t, exp.Overridden)
	assert.Equal(t, rubric.TierGood, exp.Classification.Tier)

	assert.Equal(t, 5.0, view.Potential)
	assert.Equal(t, rubric.PotentialMax, view.PotentialMax)
}

func TestRender_ListRowFlagsOverrides(t *testing.T) {
	withOverride := Render(testAssessment(), presentation.RegionListRow).(ListRowView)
	assert.True(t, withOverride.HasOverrides)

	clean := testAssessment()
	score := clean.Criteria[rubric.Education]
	score.Override = nil
	clean.Criteria[rubric.Education] = score
	assert.False(t, Render(clean, presentation.RegionListRow).(ListRowView).HasOverrides)
}

func TestRender_TotalsPanelDelta(t *testing.T) {
	view := Render(testAssessment(), presentation.RegionTotalsPanel).(TotalsPanelView)
	assert.Equal(t, 77.0, view.RuleBasedTotal)
	assert.Equal(t, 81.5, view.AIEnhancedTotal)
	assert.InDelta(t, 4.5, view.Delta, 0.001)
}
