package scoringd

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	awsclient "review-console/internal/common/aws"
	"review-console/internal/common/config"
	"review-console/internal/common/logger"
)

// Notifier fans an override decision out to the review team.
type Notifier interface {
	OverrideCommitted(ctx context.Context, event AuditEvent) error
}

// AWSNotifier sends an SES email and an SNS message per override decision.
type AWSNotifier struct {
	ses    *awsclient.SESClient
	sns    *awsclient.SNSClient
	cfg    config.NotifyConfig
	logger logger.Logger
}

func NewAWSNotifier(sesClient *awsclient.SESClient, snsClient *awsclient.SNSClient, cfg config.NotifyConfig, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{
		ses:    sesClient,
		sns:    snsClient,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "override-notify"}),
	}
}

func (n *AWSNotifier) OverrideCommitted(ctx context.Context, event AuditEvent) error {
	subject := fmt.Sprintf("Score override %s: candidate %s / %s", event.Action, event.CandidateID, event.Criterion)
	body := fmt.Sprintf(
		"Candidate: %s\nCriterion: %s\nAction: %s\nSystem value: %g\nNew value: %g\nReason: %s\n",
		event.CandidateID, event.Criterion, event.Action, event.SystemValue, event.NewValue, event.Reason,
	)

	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.cfg.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.cfg.ToEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send override email: %w", err)
	}

	_, err = n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.cfg.SNSTopic),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("publish override notification: %w", err)
	}

	n.logger.Debug("override notification sent", map[string]interface{}{
		"candidateId": event.CandidateID,
		"criterion":   event.Criterion,
	})
	return nil
}

// NoOpNotifier is used when notifications are disabled.
type NoOpNotifier struct{}

func (NoOpNotifier) OverrideCommitted(ctx context.Context, event AuditEvent) error { return nil }
