package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	stderrors "review-console/internal/common/errors"
	"review-console/internal/common/httpclient"
	"review-console/internal/common/logger"
	"review-console/internal/common/metrics"
	"review-console/internal/rubric"
)

// Client is the HTTP implementation of Backend.
type Client struct {
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		http:   httpclient.NewClient(baseURL, timeout),
		logger: log.WithFields(map[string]interface{}{"component": "scoring-client"}),
	}
}

func (c *Client) GetAssessment(ctx context.Context, candidateID string) (*rubric.Assessment, error) {
	var payload assessmentPayload
	err := c.call(ctx, "get_assessment", candidateID, http.MethodGet,
		fmt.Sprintf("/candidates/%s/assessment", url.PathEscape(candidateID)), nil, &payload)
	if err != nil {
		return nil, err
	}
	if payload.CandidateID == "" {
		payload.CandidateID = candidateID
	}
	return payload.normalize(candidateID, c.logger), nil
}

func (c *Client) PutOverride(ctx context.Context, candidateID string, criterion rubric.Criterion, score float64, reason string) (SystemSnapshot, error) {
	var resp snapshotResponse
	err := c.call(ctx, "put_override", candidateID, http.MethodPut,
		fmt.Sprintf("/candidates/%s/overrides/%s", url.PathEscape(candidateID), criterion),
		overrideRequest{Score: score, Reason: reason}, &resp)
	if err != nil {
		return SystemSnapshot{}, err
	}
	return SystemSnapshot{SystemValue: resp.value()}, nil
}

func (c *Client) DeleteOverride(ctx context.Context, candidateID string, criterion rubric.Criterion) (float64, error) {
	var resp snapshotResponse
	err := c.call(ctx, "delete_override", candidateID, http.MethodDelete,
		fmt.Sprintf("/candidates/%s/overrides/%s", url.PathEscape(candidateID), criterion), nil, &resp)
	if err != nil {
		return 0, err
	}
	return resp.value(), nil
}

func (c *Client) PutPotential(ctx context.Context, candidateID string, value float64) error {
	return c.call(ctx, "put_potential", candidateID, http.MethodPut,
		fmt.Sprintf("/candidates/%s/potential", url.PathEscape(candidateID)),
		potentialRequest{Value: value}, nil)
}

func (c *Client) ListOverrides(ctx context.Context, candidateID string) (map[rubric.Criterion]rubric.Override, error) {
	var resp listOverridesResponse
	err := c.call(ctx, "list_overrides", candidateID, http.MethodGet,
		fmt.Sprintf("/candidates/%s/overrides", url.PathEscape(candidateID)), nil, &resp)
	if err != nil {
		return nil, err
	}

	out := make(map[rubric.Criterion]rubric.Override, len(resp.Overrides))
	for key, p := range resp.Overrides {
		criterion, parseErr := rubric.Parse(key)
		if parseErr != nil {
			c.logger.Warn("dropping override for unknown criterion", map[string]interface{}{
				"candidateId": candidateID,
				"criterion":   key,
			})
			continue
		}
		out[criterion] = rubric.Override{
			Criterion:     criterion,
			OriginalScore: p.OriginalScore,
			OverrideScore: p.value(),
			Reason:        p.Reason,
			CreatedAt:     p.CreatedAt,
		}
	}
	return out, nil
}

// call issues one backend request and maps failures onto the error taxonomy.
func (c *Client) call(ctx context.Context, operation, candidateID, method, path string, body, out interface{}) error {
	start := time.Now()
	_, err := c.http.DoJSON(ctx, method, path, body, out)
	metrics.BackendRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err == nil {
		return nil
	}

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return c.mapStatusError(operation, candidateID, statusErr)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return stderrors.NewBackendTimeoutError(operation)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return stderrors.NewBackendTimeoutError(operation)
	}

	c.logger.Error("backend call failed", map[string]interface{}{
		"operation":   operation,
		"candidateId": candidateID,
		"error":       err.Error(),
	})
	return stderrors.NewBackendUnreachableError(err)
}

func (c *Client) mapStatusError(operation, candidateID string, statusErr *httpclient.StatusError) error {
	var body errorResponse
	message := string(statusErr.Body)
	if json.Unmarshal(statusErr.Body, &body) == nil && body.Message != "" {
		message = body.Message
	}

	switch statusErr.Status {
	case http.StatusNotFound:
		return stderrors.NewCandidateNotFoundError(candidateID)
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return stderrors.NewBackendValidationError(message, body.Details)
	default:
		c.logger.Error("backend rejected request", map[string]interface{}{
			"operation":   operation,
			"candidateId": candidateID,
			"status":      statusErr.Status,
		})
		return stderrors.NewBackendRejectedError(statusErr.Status, message)
	}
}
