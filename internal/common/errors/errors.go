// Package errors provides the standardized error taxonomy for the review
// console: local validation failures, backend rejections, transport failures
// and reconciliation failures.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Client-detectable validation failures. Rejected before any network call.
	ErrCodeScoreOutOfRange  ErrorCode = "SCORE_OUT_OF_RANGE"
	ErrCodeReasonRequired   ErrorCode = "REASON_REQUIRED"
	ErrCodeUnknownCriterion ErrorCode = "UNKNOWN_CRITERION"
	ErrCodeSessionConflict  ErrorCode = "SESSION_CONFLICT"
	ErrCodeNoOpenSession    ErrorCode = "NO_OPEN_SESSION"

	// Backend rejections. The write was refused; the edit stays open and the
	// backend message is surfaced verbatim.
	ErrCodeBackendValidation ErrorCode = "BACKEND_VALIDATION_FAILED"
	ErrCodeCandidateNotFound ErrorCode = "CANDIDATE_NOT_FOUND"
	ErrCodeBackendRejected   ErrorCode = "BACKEND_REJECTED"

	// Transport failures. Retryable; no state is assumed changed.
	ErrCodeBackendUnreachable ErrorCode = "BACKEND_UNREACHABLE"
	ErrCodeBackendTimeout     ErrorCode = "BACKEND_TIMEOUT"

	// The write succeeded but the authoritative re-fetch failed. Soft warning.
	ErrCodeReconciliationFailed ErrorCode = "RECONCILIATION_FAILED"

	// Backend-side storage and integration failures (scoringd).
	ErrCodeStoreQueryFailed  ErrorCode = "STORE_QUERY_FAILED"
	ErrCodeStoreInsertFailed ErrorCode = "STORE_INSERT_FAILED"
	ErrCodeAuditWriteFailed  ErrorCode = "AUDIT_WRITE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Field     string                 `json:"field,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// Constructors
// ==========================

// NewScoreOutOfRangeError creates a non-retryable local validation error.
func NewScoreOutOfRangeError(criterion string, value, max float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoreOutOfRange,
		Message:   fmt.Sprintf("score must be between 0 and %g", max),
		Details:   fmt.Sprintf("criterion: %s, value: %g", criterion, value),
		Field:     "score",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReasonRequiredError creates a non-retryable local validation error.
func NewReasonRequiredError(criterion string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReasonRequired,
		Message:   "an override requires a justification",
		Details:   fmt.Sprintf("criterion: %s", criterion),
		Field:     "reason",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownCriterionError creates a non-retryable validation error.
func NewUnknownCriterionError(criterion string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownCriterion,
		Message:   "unknown rubric criterion",
		Details:   fmt.Sprintf("criterion: %s", criterion),
		Field:     "criterion",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionConflictError signals that an edit session is already open for
// the (candidate, criterion) key.
func NewSessionConflictError(candidateID, criterion string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionConflict,
		Message:   "an edit session is already open for this criterion",
		Details:   fmt.Sprintf("candidateId: %s, criterion: %s", candidateID, criterion),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoOpenSessionError signals an operation on a session that does not exist.
func NewNoOpenSessionError(candidateID, criterion string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoOpenSession,
		Message:   "no edit session is open for this criterion",
		Details:   fmt.Sprintf("candidateId: %s, criterion: %s", candidateID, criterion),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendValidationError wraps a 4xx rejection; message is the backend's,
// surfaced verbatim.
func NewBackendValidationError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendValidation,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateNotFoundError creates a non-retryable not-found rejection.
func NewCandidateNotFoundError(candidateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateNotFound,
		Message:   "candidate not found",
		Details:   fmt.Sprintf("candidateId: %s", candidateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendRejectedError wraps any other non-2xx backend response.
func NewBackendRejectedError(status int, message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendRejected,
		Message:   message,
		Details:   fmt.Sprintf("status: %d", status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendUnreachableError creates a retryable transport error.
func NewBackendUnreachableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendUnreachable,
		Message:   "scoring backend unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendTimeoutError creates a retryable transport timeout error.
func NewBackendTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendTimeout,
		Message:   "scoring backend call timed out",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReconciliationFailedError marks a durable write whose refresh failed.
// Retryable because a manual refresh recovers it; never rolled back.
func NewReconciliationFailedError(candidateID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReconciliationFailed,
		Message:   "saved, but refreshing the displayed scores failed",
		Details:   fmt.Sprintf("candidateId: %s, error: %s", candidateID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreQueryFailedError creates a retryable storage read error.
func NewStoreQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreQueryFailed,
		Message:   "score store query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreInsertFailedError creates a retryable storage write error.
func NewStoreInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreInsertFailed,
		Message:   "score store write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditWriteFailedError creates a retryable audit indexing error.
func NewAuditWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditWriteFailed,
		Message:   "override audit event indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// Predicates
// ==========================

// AsStandard extracts a *StandardError if err carries one.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsValidation reports whether err is a client-detectable validation failure.
func IsValidation(err error) bool {
	stdErr, ok := AsStandard(err)
	if !ok {
		return false
	}
	switch stdErr.Code {
	case ErrCodeScoreOutOfRange, ErrCodeReasonRequired, ErrCodeUnknownCriterion,
		ErrCodeSessionConflict, ErrCodeNoOpenSession:
		return true
	}
	return false
}

// IsBackendRejection reports whether the backend refused the write.
func IsBackendRejection(err error) bool {
	stdErr, ok := AsStandard(err)
	if !ok {
		return false
	}
	switch stdErr.Code {
	case ErrCodeBackendValidation, ErrCodeCandidateNotFound, ErrCodeBackendRejected:
		return true
	}
	return false
}

// IsTransport reports whether err is a recoverable transport failure.
func IsTransport(err error) bool {
	stdErr, ok := AsStandard(err)
	if !ok {
		return false
	}
	return stdErr.Code == ErrCodeBackendUnreachable || stdErr.Code == ErrCodeBackendTimeout
}

// IsReconciliation reports whether err is a post-write refresh failure.
func IsReconciliation(err error) bool {
	stdErr, ok := AsStandard(err)
	if !ok {
		return false
	}
	return stdErr.Code == ErrCodeReconciliationFailed
}

// HTTPStatus maps an error onto the status the scoring API responds with.
func HTTPStatus(err error) int {
	stdErr, ok := AsStandard(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch stdErr.Code {
	case ErrCodeScoreOutOfRange, ErrCodeReasonRequired, ErrCodeUnknownCriterion,
		ErrCodeBackendValidation:
		return http.StatusBadRequest
	case ErrCodeSessionConflict:
		return http.StatusConflict
	case ErrCodeCandidateNotFound, ErrCodeNoOpenSession:
		return http.StatusNotFound
	case ErrCodeBackendUnreachable, ErrCodeBackendTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
