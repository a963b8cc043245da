package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dbpilot/aegis/internal/models"
	"github.com/dbpilot/aegis/internal/security"
)

// ValidationService composes the threat pattern matcher and sanitizer, and
// records a security event whenever an input matches a known signature.
type ValidationService struct {
	events EventRecorder
	logger *slog.Logger
}

// NewValidationService creates a new ValidationService
func NewValidationService(events EventRecorder, logger *slog.Logger) *ValidationService {
	return &ValidationService{
		events: events,
		logger: logger,
	}
}

// Validate classifies input against the pattern families for validationType
// and returns the result. fieldContext names the UI field being validated
// (e.g. "login.email") and is stored with the event for triage. A non-nil
// error means the threat event could not be persisted; callers must treat
// that as an internal failure, not as a clean input.
func (s *ValidationService) Validate(ctx context.Context, input string, validationType models.ValidationType, fieldContext string, actor Actor) (*models.ValidationResult, error) {
	threats := security.Classify(input, validationType)

	// Only the XSS family is destructively sanitized; SQL and shell matches
	// are flagged but left intact for the caller to reject.
	sanitized := input
	if validationType == models.ValidationTypeGeneral || validationType == models.ValidationTypeHTML {
		sanitized = security.Sanitize(input)
	}

	result := &models.ValidationResult{
		IsValid:        len(threats) == 0,
		HasThreats:     len(threats) > 0,
		ThreatTypes:    threats,
		SanitizedInput: sanitized,
		RiskLevel:      models.RiskLevelForThreatCount(len(threats)),
	}

	if !result.HasThreats {
		return result, nil
	}

	event := &models.SecurityEvent{
		EventType: models.EventTypeThreatDetected,
		Severity:  result.RiskLevel,
		ActorID:   actor.ID,
		EventData: models.EventData{
			"input":           input,
			"validation_type": string(validationType),
			"context":         fieldContext,
			"threat_types":    strings.Join(threats, ","),
			"risk_level":      result.RiskLevel,
		},
	}
	if actor.IPAddress != "" {
		event.IPAddress = &actor.IPAddress
	}
	if actor.UserAgent != "" {
		event.UserAgent = &actor.UserAgent
	}

	if err := s.events.Record(ctx, event); err != nil {
		return nil, err
	}

	return result, nil
}
