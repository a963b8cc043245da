package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/dbpilot/aegis/internal/models"
)

// SESAlertService emails the security team when a high-severity event is
// recorded. Delivery is best-effort: the caller fires it off-path and only
// logs failures.
type SESAlertService struct {
	sesClient   *ses.Client
	fromAddress string
	toAddress   string
	logger      *slog.Logger
}

// NewSESAlertService creates a new AWS SES alert service
func NewSESAlertService(region, fromAddress, toAddress string, logger *slog.Logger) (*SESAlertService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESAlertService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		toAddress:   toAddress,
		logger:      logger,
	}, nil
}

// SendAlert emails a summary of one high-severity security event
func (s *SESAlertService) SendAlert(ctx context.Context, event *models.SecurityEvent) error {
	subject := fmt.Sprintf("[aegis] %s severity security event: %s", event.Severity, event.EventType)

	textBody := fmt.Sprintf(`A %s severity security event was recorded.

Event type: %s
Actor:      %s
Event ID:   %s
Recorded:   %s

Review the security event log for full details.
`, event.Severity, event.EventType, event.ActorID, event.ID, event.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{s.toAddress},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	if _, err := s.sesClient.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	s.logger.Info("security alert sent",
		slog.String("event_type", event.EventType),
		slog.String("severity", event.Severity))

	return nil
}
