package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/dbpilot/aegis/internal/models"
)

// blockSetTolerance distinguishes the call that set a block (blocked_until is
// exactly now + blockDuration) from later calls arriving while blocked.
const blockSetTolerance = time.Millisecond

// RateLimitStore is the atomic counter interface. Implementations must apply
// the whole window transition in a single conditional update so concurrent
// bursts cannot double-pass the threshold.
type RateLimitStore interface {
	RegisterAttempt(ctx context.Context, identifier, action string, now time.Time, policy models.RateLimitPolicy) (*models.RateLimitRecord, error)
}

// EventRecorder persists security events
type EventRecorder interface {
	Record(ctx context.Context, event *models.SecurityEvent) error
}

// RateLimitBounds clamps caller-supplied policies so a client cannot weaken
// its own throttle below the configured minimums
type RateLimitBounds struct {
	MinMaxAttempts   int
	MaxWindow        time.Duration
	MaxBlockDuration time.Duration
}

// DefaultRateLimitBounds returns the standard policy bounds
func DefaultRateLimitBounds() RateLimitBounds {
	return RateLimitBounds{
		MinMaxAttempts:   3,
		MaxWindow:        24 * time.Hour,
		MaxBlockDuration: 24 * time.Hour,
	}
}

// Actor identifies the authenticated caller for event attribution
type Actor struct {
	ID        string
	IPAddress string
	UserAgent string
}

// RateLimitService implements sliding-window rate limiting with a sticky hard
// block, backed by an atomic per-key counter. The store is authoritative; if
// it is unreachable the service fails closed and denies the request.
type RateLimitService struct {
	store  RateLimitStore
	events EventRecorder
	bounds RateLimitBounds
	logger *slog.Logger
	now    func() time.Time
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(store RateLimitStore, events EventRecorder, bounds RateLimitBounds, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		store:  store,
		events: events,
		bounds: bounds,
		logger: logger,
		now:    time.Now,
	}
}

// Check records one attempt for (identifier, action) and decides whether it
// is allowed. A non-nil error means the decision could not be computed; the
// returned decision is already the fail-closed denial for that case.
func (s *RateLimitService) Check(ctx context.Context, identifier, action string, policy models.RateLimitPolicy, actor Actor) (models.RateLimitDecision, error) {
	policy = s.clampPolicy(policy)
	now := s.now()

	record, err := s.store.RegisterAttempt(ctx, identifier, action, now, policy)
	if err != nil {
		s.logger.Error("rate limit store unreachable, failing closed",
			slog.String("action", action),
			slog.Any("error", err))
		return models.RateLimitDecision{
			Allowed:   false,
			Remaining: 0,
			ResetTime: now,
			Reason:    models.RateLimitReasonStoreErr,
		}, models.ErrStoreUnavailable
	}

	if record.BlockedUntil != nil && record.BlockedUntil.After(now) {
		decision := models.RateLimitDecision{
			Allowed:   false,
			Remaining: 0,
			ResetTime: *record.BlockedUntil,
			Reason:    models.RateLimitReasonBlocked,
		}

		if s.blockSetByThisCall(record, now, policy) {
			decision.Reason = models.RateLimitReasonExceeded
			s.recordViolation(ctx, identifier, action, record, policy, actor)
		}

		return decision, nil
	}

	remaining := policy.MaxAttempts - record.Attempts
	if remaining < 0 {
		remaining = 0
	}

	return models.RateLimitDecision{
		Allowed:   true,
		Remaining: remaining,
		ResetTime: record.WindowStart.Add(policy.Window),
	}, nil
}

// clampPolicy applies server-side bounds and defaults to a caller policy
func (s *RateLimitService) clampPolicy(policy models.RateLimitPolicy) models.RateLimitPolicy {
	if policy.MaxAttempts < s.bounds.MinMaxAttempts {
		policy.MaxAttempts = s.bounds.MinMaxAttempts
	}
	if policy.Window <= 0 {
		policy.Window = time.Minute
	}
	if policy.Window > s.bounds.MaxWindow {
		policy.Window = s.bounds.MaxWindow
	}
	if policy.BlockDuration <= 0 {
		policy.BlockDuration = 5 * time.Minute
	}
	if policy.BlockDuration > s.bounds.MaxBlockDuration {
		policy.BlockDuration = s.bounds.MaxBlockDuration
	}
	return policy
}

// blockSetByThisCall reports whether the returned record's block was created
// by the attempt just registered. Only the blocking call has blocked_until at
// exactly now + blockDuration; calls arriving during an existing block see an
// older deadline.
func (s *RateLimitService) blockSetByThisCall(record *models.RateLimitRecord, now time.Time, policy models.RateLimitPolicy) bool {
	expected := now.Add(policy.BlockDuration)
	diff := expected.Sub(*record.BlockedUntil)
	if diff < 0 {
		diff = -diff
	}
	return diff < blockSetTolerance
}

// recordViolation persists the rate_limit_violation event for a new block.
// Event loss here is logged by the recorder; the denial already stands.
func (s *RateLimitService) recordViolation(ctx context.Context, identifier, action string, record *models.RateLimitRecord, policy models.RateLimitPolicy, actor Actor) {
	event := &models.SecurityEvent{
		EventType: models.EventTypeRateLimitViolation,
		Severity:  models.SeverityMedium,
		ActorID:   actor.ID,
		EventData: models.EventData{
			"identifier":    identifier,
			"action":        action,
			"attempts":      record.Attempts,
			"max_attempts":  policy.MaxAttempts,
			"blocked_until": record.BlockedUntil.UTC().Format(time.RFC3339),
		},
	}
	if actor.IPAddress != "" {
		event.IPAddress = &actor.IPAddress
	}
	if actor.UserAgent != "" {
		event.UserAgent = &actor.UserAgent
	}

	if err := s.events.Record(ctx, event); err != nil {
		s.logger.Error("failed to record rate limit violation",
			slog.String("action", action),
			slog.Any("error", err))
	}
}
