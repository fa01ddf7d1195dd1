// Package scoring talks to the scoring backend: it fetches authoritative
// assessments and writes overrides and potential scores. Wire payloads are
// normalized into rubric types once, at this boundary.
package scoring

import (
	"context"

	"review-console/internal/rubric"
)

// SystemSnapshot is the backend's record of the system-computed value at the
// moment an override was stored.
type SystemSnapshot struct {
	SystemValue float64 `json:"systemValue"`
}

// Backend is the scoring service contract the console depends on.
type Backend interface {
	// GetAssessment returns the authoritative model, reflecting every prior
	// write.
	GetAssessment(ctx context.Context, candidateID string) (*rubric.Assessment, error)

	// PutOverride upserts a manual score with its justification.
	PutOverride(ctx context.Context, candidateID string, criterion rubric.Criterion, score float64, reason string) (SystemSnapshot, error)

	// DeleteOverride removes an override. Idempotent: deleting a non-existent
	// override confirms the current system value.
	DeleteOverride(ctx context.Context, candidateID string, criterion rubric.Criterion) (float64, error)

	// PutPotential upserts the administrative potential score. No delete path.
	PutPotential(ctx context.Context, candidateID string, value float64) error

	// ListOverrides returns the active overrides without opening a session.
	ListOverrides(ctx context.Context, candidateID string) (map[rubric.Criterion]rubric.Override, error)
}
