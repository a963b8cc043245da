package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/dbpilot/aegis/internal/models"
	"github.com/dbpilot/aegis/internal/security"
	"github.com/google/uuid"
)

// DemoSessionService issues and verifies encrypted demo-session tokens for
// the product's sandboxed demo mode. The expiry travels inside the sealed
// payload, so a client cannot extend its own session.
type DemoSessionService struct {
	cipher *security.DemoSessionCipher
	ttl    time.Duration
	events EventRecorder
	logger *slog.Logger
}

// NewDemoSessionService creates a new DemoSessionService
func NewDemoSessionService(cipher *security.DemoSessionCipher, ttl time.Duration, events EventRecorder, logger *slog.Logger) *DemoSessionService {
	return &DemoSessionService{
		cipher: cipher,
		ttl:    ttl,
		events: events,
		logger: logger,
	}
}

// Issue seals a new demo session for the given email and records the issuance
func (s *DemoSessionService) Issue(ctx context.Context, email string, actor Actor) (string, *security.DemoSession, error) {
	now := time.Now()
	session := &security.DemoSession{
		SessionID: uuid.New().String(),
		Email:     email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	token, err := s.cipher.Seal(session)
	if err != nil {
		return "", nil, err
	}

	event := &models.SecurityEvent{
		EventType: models.EventTypeDemoSessionIssued,
		Severity:  models.SeverityLow,
		ActorID:   actor.ID,
		EventData: models.EventData{
			"session_id": session.SessionID,
			"expires_at": session.ExpiresAt.UTC().Format(time.RFC3339),
		},
	}
	if actor.IPAddress != "" {
		event.IPAddress = &actor.IPAddress
	}

	if err := s.events.Record(ctx, event); err != nil {
		s.logger.Error("failed to record demo session issuance", slog.Any("error", err))
	}

	return token, session, nil
}

// Verify opens a demo-session token. Returns models.ErrSessionInvalid for
// tampered or undecodable tokens and models.ErrSessionExpired for stale ones.
func (s *DemoSessionService) Verify(token string) (*security.DemoSession, error) {
	return s.cipher.Open(token)
}
