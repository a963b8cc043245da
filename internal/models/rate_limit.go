package models

import "time"

// RateLimitRecord is the durable counter for one (identifier, action) pair.
// At most one record exists per pair; all mutation happens through a single
// atomic upsert in the repository layer.
type RateLimitRecord struct {
	Identifier   string     `db:"identifier"`
	Action       string     `db:"action"`
	Attempts     int        `db:"attempts"`
	WindowStart  time.Time  `db:"window_start"`
	LastAttempt  time.Time  `db:"last_attempt"`
	BlockedUntil *time.Time `db:"blocked_until"`
}

// RateLimitPolicy holds the throttle parameters for one action
type RateLimitPolicy struct {
	MaxAttempts   int
	Window        time.Duration
	BlockDuration time.Duration
}

// RateLimitDecision is the outcome of a rate limit check
type RateLimitDecision struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
	Reason    string
}

// Decision reasons returned to callers when a request is denied
const (
	RateLimitReasonBlocked  = "temporarily_blocked"
	RateLimitReasonExceeded = "too_many_attempts"
	RateLimitReasonStoreErr = "store_unavailable"
)
