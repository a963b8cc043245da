package services

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/dbpilot/aegis/internal/models"
	"github.com/dbpilot/aegis/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDemoService(t *testing.T, events EventRecorder, ttl time.Duration) *DemoSessionService {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	cipher, err := security.NewDemoSessionCipher(key)
	require.NoError(t, err)

	return NewDemoSessionService(cipher, ttl, events, testLogger())
}

func TestDemoSessionService_IssueAndVerify(t *testing.T) {
	recorder := &captureRecorder{}
	svc := newTestDemoService(t, recorder, 30*time.Minute)

	token, session, err := svc.Issue(context.Background(), "demo@example.com", Actor{ID: "user-1", IPAddress: "203.0.113.9"})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "demo@example.com", session.Email)
	assert.NotEmpty(t, session.SessionID)

	opened, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, opened.SessionID)

	require.Equal(t, 1, recorder.count())
	event := recorder.events[0]
	assert.Equal(t, models.EventTypeDemoSessionIssued, event.EventType)
	assert.Equal(t, models.SeverityLow, event.Severity)
	assert.Equal(t, session.SessionID, event.EventData["session_id"])
}

func TestDemoSessionService_IssueSurvivesEventLoss(t *testing.T) {
	recorder := &captureRecorder{err: errors.New("event store down")}
	svc := newTestDemoService(t, recorder, 30*time.Minute)

	// Issuance is best-effort audited: losing the event does not fail the call
	token, _, err := svc.Issue(context.Background(), "demo@example.com", Actor{ID: "user-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestDemoSessionService_VerifyExpired(t *testing.T) {
	recorder := &captureRecorder{}
	svc := newTestDemoService(t, recorder, -time.Minute)

	token, _, err := svc.Issue(context.Background(), "demo@example.com", Actor{ID: "user-1"})
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, models.ErrSessionExpired)
}

func TestDemoSessionService_VerifyGarbage(t *testing.T) {
	recorder := &captureRecorder{}
	svc := newTestDemoService(t, recorder, 30*time.Minute)

	_, err := svc.Verify("not-a-token")
	assert.ErrorIs(t, err, models.ErrSessionInvalid)
}
