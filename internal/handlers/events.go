package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dbpilot/aegis/internal/auth"
	"github.com/dbpilot/aegis/internal/models"
	pkghttp "github.com/dbpilot/aegis/pkg/http"
)

// SecurityEventReader defines read access to the security event log
type SecurityEventReader interface {
	GetByActorID(ctx context.Context, actorID string, limit, offset int) ([]*models.SecurityEvent, error)
	CountByActorID(ctx context.Context, actorID string) (int64, error)
}

// EventsHandler serves the security event trail for the authenticated user
type EventsHandler struct {
	events SecurityEventReader
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(events SecurityEventReader) *EventsHandler {
	return &EventsHandler{events: events}
}

// SecurityEventResponse represents one event in HTTP responses
type SecurityEventResponse struct {
	ID        string                 `json:"id"`
	EventType string                 `json:"event_type"`
	Severity  string                 `json:"severity"`
	ActorID   string                 `json:"actor_id"`
	IPAddress *string                `json:"ip_address,omitempty"`
	UserAgent *string                `json:"user_agent,omitempty"`
	EventData map[string]interface{} `json:"event_data,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

// ListEvents handles GET /v1/security/events. Events are scoped to the
// authenticated actor; there is no cross-user read surface.
func (h *EventsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	events, err := h.events.GetByActorID(ctx, claims.UserID, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to query events")
		return
	}

	count, err := h.events.CountByActorID(ctx, claims.UserID)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to count events")
		return
	}

	response := make([]*SecurityEventResponse, len(events))
	for i, event := range events {
		response[i] = eventToResponse(event)
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(count, 10))
	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": response,
		"total":  count,
		"limit":  limit,
		"offset": offset,
	})
}

func eventToResponse(event *models.SecurityEvent) *SecurityEventResponse {
	return &SecurityEventResponse{
		ID:        event.ID.String(),
		EventType: event.EventType,
		Severity:  event.Severity,
		ActorID:   event.ActorID,
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
		EventData: event.EventData,
		CreatedAt: event.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
