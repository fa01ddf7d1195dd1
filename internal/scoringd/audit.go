package scoringd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"review-console/internal/common/database"
	stderrors "review-console/internal/common/errors"
	"review-console/internal/common/logger"
)

// AuditAction names what happened to an override.
type AuditAction string

const (
	ActionOverrideSaved AuditAction = "override_saved"
	ActionOverrideReset AuditAction = "override_reset"
)

// AuditEvent is one indexed override decision.
type AuditEvent struct {
	EventID     string      `json:"eventId"`
	CandidateID string      `json:"candidateId"`
	Criterion   string      `json:"criterion"`
	Action      AuditAction `json:"action"`
	SystemValue float64     `json:"systemValue"`
	NewValue    float64     `json:"newValue"`
	Reason      string      `json:"reason,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Auditor records override decisions for later review.
type Auditor interface {
	Record(ctx context.Context, event AuditEvent) error
}

// ESAuditor indexes audit events into Elasticsearch.
type ESAuditor struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewESAuditor(es *database.ElasticsearchClient, index string, log logger.Logger) *ESAuditor {
	return &ESAuditor{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "override-audit"}),
	}
}

func (a *ESAuditor) Record(ctx context.Context, event AuditEvent) error {
	event.EventID = uuid.New().String()
	event.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		return stderrors.NewAuditWriteFailedError(err)
	}

	res, err := a.es.Client.Index(
		a.index,
		bytes.NewReader(payload),
		a.es.Client.Index.WithContext(ctx),
		a.es.Client.Index.WithDocumentID(event.EventID),
	)
	if err != nil {
		return stderrors.NewAuditWriteFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return stderrors.NewAuditWriteFailedError(fmt.Errorf("elasticsearch returned %s", res.Status()))
	}

	a.logger.Debug("audit event indexed", map[string]interface{}{
		"eventId":     event.EventID,
		"candidateId": event.CandidateID,
		"action":      string(event.Action),
	})
	return nil
}

// NoOpAuditor is used when the audit trail is disabled.
type NoOpAuditor struct{}

func (NoOpAuditor) Record(ctx context.Context, event AuditEvent) error { return nil }
