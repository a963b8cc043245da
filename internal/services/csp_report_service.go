package services

import (
	"context"
	"log/slog"

	"github.com/dbpilot/aegis/internal/models"
	"github.com/dbpilot/aegis/internal/security"
)

// CSPReportService classifies and persists Content-Security-Policy violation
// reports from the dashboard.
type CSPReportService struct {
	events EventRecorder
	logger *slog.Logger
}

// NewCSPReportService creates a new CSPReportService
func NewCSPReportService(events EventRecorder, logger *slog.Logger) *CSPReportService {
	return &CSPReportService{
		events: events,
		logger: logger,
	}
}

// RecordNative persists a browser-native csp-report payload
func (s *CSPReportService) RecordNative(ctx context.Context, report *models.CSPReport, actor Actor) error {
	return s.record(ctx, actor, report.ViolatedDirective, report.BlockedURI, models.EventData{
		"document_uri":        report.DocumentURI,
		"violated_directive":  report.ViolatedDirective,
		"effective_directive": report.EffectiveDirective,
		"blocked_uri":         report.BlockedURI,
		"source_file":         report.SourceFile,
		"line_number":         report.LineNumber,
	})
}

// RecordCustom persists the dashboard's violationReport wrapper format
func (s *CSPReportService) RecordCustom(ctx context.Context, report *models.ViolationReport, actor Actor) error {
	return s.record(ctx, actor, report.ViolatedDirective, report.BlockedURI, models.EventData{
		"document_uri":       report.DocumentURI,
		"violated_directive": report.ViolatedDirective,
		"blocked_uri":        report.BlockedURI,
		"source_file":        report.SourceFile,
		"line_number":        report.LineNumber,
		"disposition":        report.Disposition,
	})
}

func (s *CSPReportService) record(ctx context.Context, actor Actor, violatedDirective, blockedURI string, data models.EventData) error {
	score := security.ScoreCSPViolation(violatedDirective, blockedURI)
	data["threat_score"] = score

	event := &models.SecurityEvent{
		EventType: models.EventTypeCSPViolation,
		Severity:  security.SeverityForScore(score),
		ActorID:   actor.ID,
		EventData: data,
	}
	if actor.IPAddress != "" {
		event.IPAddress = &actor.IPAddress
	}
	if actor.UserAgent != "" {
		event.UserAgent = &actor.UserAgent
	}

	return s.events.Record(ctx, event)
}
