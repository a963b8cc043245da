package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dbpilot/aegis/internal/models"
	pkglogger "github.com/dbpilot/aegis/pkg/logger"
	"github.com/google/uuid"
)

// SecurityEventStore is the persistence interface for the append-only event log
type SecurityEventStore interface {
	Create(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error)
}

// AlertSender delivers out-of-band notifications for high-severity events
type AlertSender interface {
	SendAlert(ctx context.Context, event *models.SecurityEvent) error
}

// SecurityEventConfig holds configuration for the event recorder
type SecurityEventConfig struct {
	// DataCap truncates free-text event_data fields before persisting
	DataCap int
	// MaxRetries bounds persistence attempts before the loss is reported
	MaxRetries int
	// RetryBackoff is the initial backoff, doubled per retry
	RetryBackoff time.Duration
}

// DefaultSecurityEventConfig returns the standard recorder configuration
func DefaultSecurityEventConfig() SecurityEventConfig {
	return SecurityEventConfig{
		DataCap:      100,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	}
}

// SecurityEventService records security events durably. Writes retry with
// exponential backoff; an event is lost only after retries are exhausted, and
// never silently: exhaustion is both logged and returned to the caller.
type SecurityEventService struct {
	store     SecurityEventStore
	alerts    AlertSender
	secLogger *pkglogger.SecurityLogger
	logger    *slog.Logger
	config    SecurityEventConfig
}

// NewSecurityEventService creates a new SecurityEventService. alerts may be
// nil when out-of-band alerting is not configured.
func NewSecurityEventService(store SecurityEventStore, alerts AlertSender, secLogger *pkglogger.SecurityLogger, logger *slog.Logger, config SecurityEventConfig) *SecurityEventService {
	return &SecurityEventService{
		store:     store,
		alerts:    alerts,
		secLogger: secLogger,
		logger:    logger,
		config:    config,
	}
}

// Record persists one security event. Free-text fields in event_data are
// truncated to the configured cap before the write.
func (s *SecurityEventService) Record(ctx context.Context, event *models.SecurityEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	event.EventData = s.truncateEventData(event.EventData)

	s.secLogger.LogEvent(pkglogger.SecurityRecord{
		EventType: event.EventType,
		Severity:  event.Severity,
		ActorID:   event.ActorID,
		IPAddress: deref(event.IPAddress),
		UserAgent: deref(event.UserAgent),
	})

	var lastErr error
	backoff := s.config.RetryBackoff

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		if _, err := s.store.Create(ctx, event); err != nil {
			lastErr = err
			continue
		}

		s.maybeAlert(event)
		return nil
	}

	s.logger.Error("security event lost after exhausting retries",
		slog.String("event_type", event.EventType),
		slog.String("actor_id", event.ActorID),
		slog.Any("error", lastErr))

	return fmt.Errorf("failed to persist security event: %w", lastErr)
}

// maybeAlert sends a best-effort notification for high-severity events.
// Alert delivery never blocks or fails the request path.
func (s *SecurityEventService) maybeAlert(event *models.SecurityEvent) {
	if s.alerts == nil || event.Severity != models.SeverityHigh {
		return
	}

	go func(event models.SecurityEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.alerts.SendAlert(ctx, &event); err != nil {
			s.logger.Error("failed to send security alert",
				slog.String("event_type", event.EventType),
				slog.Any("error", err))
		}
	}(*event)
}

// truncateEventData caps all string values in event_data
func (s *SecurityEventService) truncateEventData(data models.EventData) models.EventData {
	if data == nil {
		return nil
	}

	truncated := make(models.EventData, len(data))
	for key, val := range data {
		if str, ok := val.(string); ok {
			truncated[key] = pkglogger.Truncate(str, s.config.DataCap)
			continue
		}
		truncated[key] = val
	}
	return truncated
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
