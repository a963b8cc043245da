package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dbpilot/aegis/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEventReader struct {
	events    []*models.SecurityEvent
	total     int64
	gotActor  string
	gotLimit  int
	gotOffset int
}

func (m *mockEventReader) GetByActorID(_ context.Context, actorID string, limit, offset int) ([]*models.SecurityEvent, error) {
	m.gotActor = actorID
	m.gotLimit = limit
	m.gotOffset = offset
	return m.events, nil
}

func (m *mockEventReader) CountByActorID(_ context.Context, _ string) (int64, error) {
	return m.total, nil
}

func TestEventsHandler_ListEvents(t *testing.T) {
	ip := "203.0.113.9"
	reader := &mockEventReader{
		events: []*models.SecurityEvent{
			{
				ID:        uuid.New(),
				EventType: models.EventTypeThreatDetected,
				Severity:  models.SeverityMedium,
				ActorID:   "user-1",
				IPAddress: &ip,
				EventData: models.EventData{"input": "x"},
				CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		total: 7,
	}
	handler := NewEventsHandler(reader)

	rec := httptest.NewRecorder()
	handler.ListEvents(rec, authedRequest(http.MethodGet, "/v1/security/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Scoped to the authenticated actor with default paging
	assert.Equal(t, "user-1", reader.gotActor)
	assert.Equal(t, 50, reader.gotLimit)
	assert.Equal(t, 0, reader.gotOffset)
	assert.Equal(t, "7", rec.Header().Get("X-Total-Count"))

	var resp struct {
		Events []*SecurityEventResponse `json:"events"`
		Total  int64                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, models.EventTypeThreatDetected, resp.Events[0].EventType)
	assert.Equal(t, int64(7), resp.Total)
}

func TestEventsHandler_PagingParams(t *testing.T) {
	reader := &mockEventReader{}
	handler := NewEventsHandler(reader)

	rec := httptest.NewRecorder()
	handler.ListEvents(rec, authedRequest(http.MethodGet, "/v1/security/events?limit=10&offset=20", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 10, reader.gotLimit)
	assert.Equal(t, 20, reader.gotOffset)
}

func TestEventsHandler_LimitCapped(t *testing.T) {
	reader := &mockEventReader{}
	handler := NewEventsHandler(reader)

	rec := httptest.NewRecorder()
	handler.ListEvents(rec, authedRequest(http.MethodGet, "/v1/security/events?limit=9999", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Out-of-range values fall back to the default
	assert.Equal(t, 50, reader.gotLimit)
}

func TestEventsHandler_Unauthenticated(t *testing.T) {
	handler := NewEventsHandler(&mockEventReader{})

	rec := httptest.NewRecorder()
	handler.ListEvents(rec, httptest.NewRequest(http.MethodGet, "/v1/security/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
