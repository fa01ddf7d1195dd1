// Package scoringd is the reference scoring backend: it persists system
// scores, overrides and potential scores in Postgres and serves the wire API
// the console consumes.
package scoringd

import (
	"context"
	"database/sql"
	"time"

	"review-console/internal/common/database"
	stderrors "review-console/internal/common/errors"
	"review-console/internal/common/logger"
	"review-console/internal/rubric"
)

// Store persists candidate scores. Schema:
//
//	candidates(candidate_id PK, semantic_total)
//	candidate_scores(candidate_id, criterion, system_value, PK(candidate_id, criterion))
//	score_overrides(candidate_id, criterion, original_score, override_score, reason, created_at, PK(candidate_id, criterion))
//	potential_scores(candidate_id PK, value)
type Store struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewStore(db *database.PostgresClient, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "score-store"}),
	}
}

const (
	selectSemanticTotalQuery = `SELECT semantic_total FROM candidates WHERE candidate_id = $1`

	selectScoresQuery = `
		SELECT cs.criterion, cs.system_value,
		       so.override_score, so.reason, so.created_at
		FROM candidate_scores cs
		LEFT JOIN score_overrides so
		       ON so.candidate_id = cs.candidate_id AND so.criterion = cs.criterion
		WHERE cs.candidate_id = $1`

	selectSystemValueQuery = `
		SELECT system_value FROM candidate_scores
		WHERE candidate_id = $1 AND criterion = $2`

	upsertOverrideQuery = `
		INSERT INTO score_overrides (candidate_id, criterion, original_score, override_score, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (candidate_id, criterion)
		DO UPDATE SET override_score = EXCLUDED.override_score,
		              reason = EXCLUDED.reason,
		              created_at = EXCLUDED.created_at`

	deleteOverrideQuery = `
		DELETE FROM score_overrides WHERE candidate_id = $1 AND criterion = $2`

	selectPotentialQuery = `SELECT value FROM potential_scores WHERE candidate_id = $1`

	upsertPotentialQuery = `
		INSERT INTO potential_scores (candidate_id, value)
		VALUES ($1, $2)
		ON CONFLICT (candidate_id) DO UPDATE SET value = EXCLUDED.value`

	selectOverridesQuery = `
		SELECT criterion, original_score, override_score, reason, created_at
		FROM score_overrides WHERE candidate_id = $1`
)

// GetAssessment loads the authoritative model. The rule-based total is
// recomputed here on every read so it always reflects the latest write; the
// AI-enhanced total blends the stored semantic analysis into it.
func (s *Store) GetAssessment(ctx context.Context, candidateID string) (*rubric.Assessment, error) {
	var semanticTotal float64
	err := s.db.QueryRow(ctx, selectSemanticTotalQuery, candidateID).Scan(&semanticTotal)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewCandidateNotFoundError(candidateID)
	}
	if err != nil {
		return nil, stderrors.NewStoreQueryFailedError(err)
	}

	rows, err := s.db.Query(ctx, selectScoresQuery, candidateID)
	if err != nil {
		return nil, stderrors.NewStoreQueryFailedError(err)
	}
	defer rows.Close()

	scores := make(map[rubric.Criterion]rubric.CriterionScore)
	for rows.Next() {
		var (
			name          string
			systemValue   float64
			overrideScore sql.NullFloat64
			reason        sql.NullString
			createdAt     sql.NullTime
		)
		if err := rows.Scan(&name, &systemValue, &overrideScore, &reason, &createdAt); err != nil {
			return nil, stderrors.NewStoreQueryFailedError(err)
		}

		criterion, err := rubric.Parse(name)
		if err != nil {
			s.logger.Warn("dropping unknown criterion row", map[string]interface{}{
				"candidateId": candidateID,
				"criterion":   name,
			})
			continue
		}

		score := rubric.CriterionScore{Criterion: criterion, SystemValue: systemValue}
		if overrideScore.Valid {
			score.Override = &rubric.Override{
				Criterion:     criterion,
				OriginalScore: systemValue,
				OverrideScore: overrideScore.Float64,
				Reason:        reason.String,
				CreatedAt:     createdAt.Time,
			}
		}
		scores[criterion] = score
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewStoreQueryFailedError(err)
	}

	potential, err := s.getPotential(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	assessment := rubric.NewAssessment(candidateID, scores, potential, 0, 0, s.logger)
	assessment.RuleBasedTotal = assessment.SumEffective()
	assessment.AIEnhancedTotal = aiEnhancedTotal(assessment.RuleBasedTotal, semanticTotal)
	return assessment, nil
}

// UpsertOverride stores an override and returns the system value it shadows.
func (s *Store) UpsertOverride(ctx context.Context, candidateID string, criterion rubric.Criterion, score float64, reason string) (float64, error) {
	systemValue, err := s.systemValue(ctx, candidateID, criterion)
	if err != nil {
		return 0, err
	}

	_, err = s.db.Exec(ctx, upsertOverrideQuery,
		candidateID, string(criterion), systemValue, score, reason, time.Now().UTC())
	if err != nil {
		return 0, stderrors.NewStoreInsertFailedError(err)
	}
	return systemValue, nil
}

// DeleteOverride removes an override if one exists and returns the system
// value either way.
func (s *Store) DeleteOverride(ctx context.Context, candidateID string, criterion rubric.Criterion) (float64, error) {
	systemValue, err := s.systemValue(ctx, candidateID, criterion)
	if err != nil {
		return 0, err
	}

	if _, err := s.db.Exec(ctx, deleteOverrideQuery, candidateID, string(criterion)); err != nil {
		return 0, stderrors.NewStoreInsertFailedError(err)
	}
	return systemValue, nil
}

// UpsertPotential stores the administrative potential score.
func (s *Store) UpsertPotential(ctx context.Context, candidateID string, value float64) error {
	var semanticTotal float64
	err := s.db.QueryRow(ctx, selectSemanticTotalQuery, candidateID).Scan(&semanticTotal)
	if err == sql.ErrNoRows {
		return stderrors.NewCandidateNotFoundError(candidateID)
	}
	if err != nil {
		return stderrors.NewStoreQueryFailedError(err)
	}

	if _, err := s.db.Exec(ctx, upsertPotentialQuery, candidateID, value); err != nil {
		return stderrors.NewStoreInsertFailedError(err)
	}
	return nil
}

// ListOverrides returns the active overrides for one candidate.
func (s *Store) ListOverrides(ctx context.Context, candidateID string) (map[rubric.Criterion]rubric.Override, error) {
	rows, err := s.db.Query(ctx, selectOverridesQuery, candidateID)
	if err != nil {
		return nil, stderrors.NewStoreQueryFailedError(err)
	}
	defer rows.Close()

	overrides := make(map[rubric.Criterion]rubric.Override)
	for rows.Next() {
		var (
			name      string
			original  float64
			score     float64
			reason    string
			createdAt time.Time
		)
		if err := rows.Scan(&name, &original, &score, &reason, &createdAt); err != nil {
			return nil, stderrors.NewStoreQueryFailedError(err)
		}
		criterion, err := rubric.Parse(name)
		if err != nil {
			continue
		}
		overrides[criterion] = rubric.Override{
			Criterion:     criterion,
			OriginalScore: original,
			OverrideScore: score,
			Reason:        reason,
			CreatedAt:     createdAt,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewStoreQueryFailedError(err)
	}
	return overrides, nil
}

func (s *Store) systemValue(ctx context.Context, candidateID string, criterion rubric.Criterion) (float64, error) {
	var systemValue float64
	err := s.db.QueryRow(ctx, selectSystemValueQuery, candidateID, string(criterion)).Scan(&systemValue)
	if err == sql.ErrNoRows {
		return 0, stderrors.NewCandidateNotFoundError(candidateID)
	}
	if err != nil {
		return 0, stderrors.NewStoreQueryFailedError(err)
	}
	return systemValue, nil
}

func (s *Store) getPotential(ctx context.Context, candidateID string) (float64, error) {
	var value float64
	err := s.db.QueryRow(ctx, selectPotentialQuery, candidateID).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, stderrors.NewStoreQueryFailedError(err)
	}
	return value, nil
}

// aiEnhancedTotal blends the semantic-analysis total into the rule-based one.
// The blend is deliberately non-linear: the semantic signal counts for more
// on mid-range totals than at the extremes.
func aiEnhancedTotal(ruleTotal, semanticTotal float64) float64 {
	weight := 0.35
	if ruleTotal < 20 || ruleTotal > 90 {
		weight = 0.15
	}
	blended := ruleTotal + (semanticTotal-ruleTotal)*weight
	if blended < 0 {
		return 0
	}
	if blended > 100 {
		return 100
	}
	return blended
}
