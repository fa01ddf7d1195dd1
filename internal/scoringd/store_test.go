package scoringd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-console/internal/common/database"
	stderrors "review-console/internal/common/errors"
	"review-console/internal/common/logger"
	"review-console/internal/rubric"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(&database.PostgresClient{DB: db}, logger.NewTestLogger(t)), mock
}

func expectAssessmentQueries(mock sqlmock.Sqlmock, semanticTotal float64) {
	mock.ExpectQuery(selectSemanticTotalQuery).WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"semantic_total"}).AddRow(semanticTotal))
	mock.ExpectQuery(selectScoresQuery).WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"criterion", "system_value", "override_score", "reason", "created_at"}).
			AddRow("education", 28.0, 35.0, "verified transcript", time.Now()).
			AddRow("experience", 15.0, nil, nil, nil).
			AddRow("training", 8.0, nil, nil, nil).
			AddRow("eligibility", 10.0, nil, nil, nil).
			AddRow("accomplishments", 4.0, nil, nil, nil))
	mock.ExpectQuery(selectPotentialQuery).WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(5.0))
}

func TestStoreGetAssessment(t *testing.T) {
	store, mock := newTestStore(t)
	expectAssessmentQueries(mock, 80)

	a, err := store.GetAssessment(context.Background(), "cand-1")
	require.NoError(t, err)

	assert.Equal(t, 35.0, a.EffectiveValue(rubric.Education))
	assert.True(t, a.IsOverridden(rubric.Education))
	assert.Equal(t, "verified transcript", a.OverrideReason(rubric.Education))
	assert.Equal(t, 5.0, a.Potential)
	// 35+15+8+10+4 effective + 5 potential.
	assert.Equal(t, 77.0, a.RuleBasedTotal)
	// Blended toward the semantic total of 80 at mid-range weight.
	assert.InDelta(t, 78.05, a.AIEnhancedTotal, 0.001)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetAssessment_UnknownCandidate(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(selectSemanticTotalQuery).WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"semantic_total"}))

	_, err := store.GetAssessment(context.Background(), "cand-1")
	require.Error(t, err)
	stdErr, ok := stderrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeCandidateNotFound, stdErr.Code)
}

func TestStoreGetAssessment_MissingCriterionDefaultsToZero(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(selectSemanticTotalQuery).WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"semantic_total"}).AddRow(50.0))
	mock.ExpectQuery(selectScoresQuery).WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"criterion", "system_value", "override_score", "reason", "created_at"}).
			AddRow("education", 28.0, nil, nil, nil))
	mock.ExpectQuery(selectPotentialQuery).WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	a, err := store.GetAssessment(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.EffectiveValue(rubric.Experience))
	assert.Equal(t, 0.0, a.Potential)
	assert.Equal(t, 28.0, a.RuleBasedTotal)
}

func TestStoreUpsertOverride(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(selectSystemValueQuery).WithArgs("cand-1", "education").
		WillReturnRows(sqlmock.NewRows([]string{"system_value"}).AddRow(28.0))
	mock.ExpectExec(upsertOverrideQuery).
		WithArgs("cand-1", "education", 28.0, 35.0, "verified transcript", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	systemValue, err := store.UpsertOverride(context.Background(), "cand-1", rubric.Education, 35, "verified transcript")
	require.NoError(t, err)
	assert.Equal(t, 28.0, systemValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpsertOverride_UnknownCandidate(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(selectSystemValueQuery).WithArgs("nobody", "education").
		WillReturnRows(sqlmock.NewRows([]string{"system_value"}))

	_, err := store.UpsertOverride(context.Background(), "nobody", rubric.Education, 35, "x")
	require.Error(t, err)
	stdErr, _ := stderrors.AsStandard(err)
	assert.Equal(t, stderrors.ErrCodeCandidateNotFound, stdErr.Code)
}

func TestStoreDeleteOverride_IdempotentWithoutRow(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(selectSystemValueQuery).WithArgs("cand-1", "training").
		WillReturnRows(sqlmock.NewRows([]string{"system_value"}).AddRow(8.0))
	mock.ExpectExec(deleteOverrideQuery).WithArgs("cand-1", "training").
		WillReturnResult(sqlmock.NewResult(0, 0))

	systemValue, err := store.DeleteOverride(context.Background(), "cand-1", rubric.Training)
	require.NoError(t, err)
	assert.Equal(t, 8.0, systemValue)
}

func TestStoreUpsertPotential(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(selectSemanticTotalQuery).WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"semantic_total"}).AddRow(50.0))
	mock.ExpectExec(upsertPotentialQuery).WithArgs("cand-1", 12.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpsertPotential(context.Background(), "cand-1", 12))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListOverrides_DropsUnknownCriterion(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(selectOverridesQuery).WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"criterion", "original_score", "override_score", "reason", "created_at"}).
			AddRow("education", 28.0, 35.0, "verified transcript", time.Now()).
			AddRow("charisma", 1.0, 2.0, "bogus", time.Now()))

	overrides, err := store.ListOverrides(context.Background(), "cand-1")
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, 35.0, overrides[rubric.Education].OverrideScore)
}

func TestStoreQueryFailure(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(selectSemanticTotalQuery).WithArgs("cand-1").
		WillReturnError(errors.New("connection reset"))

	_, err := store.GetAssessment(context.Background(), "cand-1")
	require.Error(t, err)
	stdErr, _ := stderrors.AsStandard(err)
	assert.Equal(t, stderrors.ErrCodeStoreQueryFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

// aiEnhancedTotal de-weights the semantic signal at the extremes.
func TestAIEnhancedTotalBlend(t *testing.T) {
	assert.InDelta(t, 78.05, aiEnhancedTotal(77, 80), 0.001)
	assert.InDelta(t, 10.75, aiEnhancedTotal(10, 15), 0.001)  // low total, damped
	assert.InDelta(t, 95.75, aiEnhancedTotal(95, 100), 0.001) // high total, damped
	assert.Equal(t, 100.0, aiEnhancedTotal(100, 200))
}
