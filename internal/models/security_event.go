package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types recorded in the security event log
const (
	EventTypeThreatDetected     = "security_validation_threat_detected"
	EventTypeRateLimitViolation = "rate_limit_violation"
	EventTypeCSPViolation       = "csp_violation"
	EventTypeCSRFFailure        = "csrf_validation_failed"
	EventTypeDemoSessionIssued  = "demo_session_issued"
)

// Severity levels derived from the threat score
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// SecurityEvent is a write-once audit record. Events are never mutated or
// deleted by the application.
type SecurityEvent struct {
	ID        uuid.UUID `db:"id"`
	EventType string    `db:"event_type"`
	Severity  string    `db:"severity"`
	ActorID   string    `db:"actor_id"`
	IPAddress *string   `db:"ip_address"`
	UserAgent *string   `db:"user_agent"`
	EventData EventData `db:"event_data"`
	CreatedAt time.Time `db:"created_at"`
}

// EventData holds type-specific detail for a security event
type EventData map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (ed *EventData) Scan(value interface{}) error {
	if value == nil {
		*ed = make(EventData)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*ed = EventData(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (ed EventData) Value() (driver.Value, error) {
	if ed == nil {
		return nil, nil
	}
	return json.Marshal(ed)
}
