// Package review implements the override workflow: per-criterion edit
// sessions, local validation, backend submission and the follow-up
// reconciliation of mounted regions.
package review

import (
	"time"

	"review-console/internal/rubric"
)

// SessionState tracks where an edit session is in its lifecycle. A criterion
// with no open session is displaying.
type SessionState string

const (
	// StateEditing means the reviewer holds the input and can change the
	// draft freely.
	StateEditing SessionState = "editing"
	// StateSubmitting means a backend call is in flight; the input is frozen
	// until the call resolves.
	StateSubmitting SessionState = "submitting"
)

// potentialKey is the synthetic criterion slot the potential editor uses so
// it shares the one-session-per-slot rule with the rubric criteria.
const potentialKey = "potential"

// EditSession is one open editor for a (candidate, criterion) slot.
type EditSession struct {
	CandidateID string       `json:"candidateId"`
	Criterion   string       `json:"criterion"`
	State       SessionState `json:"state"`

	// DraftScore and DraftReason hold the reviewer's current input. They
	// survive a failed submit so nothing is retyped.
	DraftScore  float64 `json:"draftScore"`
	DraftReason string  `json:"draftReason"`

	// SystemValue is the machine score at the moment the session opened,
	// shown next to the input for comparison.
	SystemValue float64   `json:"systemValue"`
	OpenedAt    time.Time `json:"openedAt"`
}

func sessionKey(candidateID, criterion string) string {
	return candidateID + "/" + criterion
}

// editable reports whether the session accepts input changes.
func (s *EditSession) editable() bool {
	return s.State == StateEditing
}

// prefill seeds the draft from the current assessment: the active override
// when one exists, the system value otherwise.
func prefill(a *rubric.Assessment, c rubric.Criterion) (score float64, reason string) {
	if o := a.Criteria[c].Override; o != nil {
		return o.OverrideScore, o.Reason
	}
	return a.Criteria[c].SystemValue, ""
}
