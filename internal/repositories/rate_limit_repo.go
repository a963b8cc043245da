package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/dbpilot/aegis/internal/database"
	"github.com/dbpilot/aegis/internal/models"
)

// RateLimitRepository handles database operations for rate limit counters
type RateLimitRepository struct {
	db *database.DB
}

// NewRateLimitRepository creates a new RateLimitRepository
func NewRateLimitRepository(db *database.DB) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// registerAttemptQuery performs the whole sliding-window transition in one
// statement so that two concurrent requests for the same key cannot both
// observe a pre-threshold count. Transition rules, in priority order:
//   - an active block leaves the counter untouched (sticky until expiry)
//   - an expired window resets attempts to 1 and clears the block
//   - otherwise the attempt count increments, and crossing max_attempts
//     sets blocked_until
const registerAttemptQuery = `
	INSERT INTO rate_limit_counters AS c (identifier, action, attempts, window_start, last_attempt, blocked_until)
	VALUES ($1, $2, 1, $3, $3, NULL)
	ON CONFLICT (identifier, action) DO UPDATE SET
		attempts = CASE
			WHEN c.blocked_until IS NOT NULL AND c.blocked_until > $3 THEN c.attempts
			WHEN c.window_start < $3 - ($4::bigint * interval '1 millisecond') THEN 1
			ELSE c.attempts + 1
		END,
		window_start = CASE
			WHEN c.blocked_until IS NOT NULL AND c.blocked_until > $3 THEN c.window_start
			WHEN c.window_start < $3 - ($4::bigint * interval '1 millisecond') THEN $3
			ELSE c.window_start
		END,
		blocked_until = CASE
			WHEN c.blocked_until IS NOT NULL AND c.blocked_until > $3 THEN c.blocked_until
			WHEN c.window_start < $3 - ($4::bigint * interval '1 millisecond') THEN NULL
			WHEN c.attempts + 1 > $5 THEN $3 + ($6::bigint * interval '1 millisecond')
			ELSE NULL
		END,
		last_attempt = $3
	RETURNING attempts, window_start, last_attempt, blocked_until
`

// RegisterAttempt records one attempt for (identifier, action) and returns
// the counter state after the transition.
func (r *RateLimitRepository) RegisterAttempt(ctx context.Context, identifier, action string, now time.Time, policy models.RateLimitPolicy) (*models.RateLimitRecord, error) {
	record := &models.RateLimitRecord{
		Identifier: identifier,
		Action:     action,
	}

	err := r.db.Pool.QueryRow(ctx, registerAttemptQuery,
		identifier,
		action,
		now,
		policy.Window.Milliseconds(),
		policy.MaxAttempts,
		policy.BlockDuration.Milliseconds(),
	).Scan(&record.Attempts, &record.WindowStart, &record.LastAttempt, &record.BlockedUntil)
	if err != nil {
		return nil, fmt.Errorf("failed to register rate limit attempt: %w", database.MapPostgresError(err))
	}

	return record, nil
}

// GetRecord returns the current counter for (identifier, action), or
// models.ErrNotFound if no attempt was ever recorded.
func (r *RateLimitRepository) GetRecord(ctx context.Context, identifier, action string) (*models.RateLimitRecord, error) {
	query := `
		SELECT attempts, window_start, last_attempt, blocked_until
		FROM rate_limit_counters
		WHERE identifier = $1 AND action = $2
	`

	record := &models.RateLimitRecord{
		Identifier: identifier,
		Action:     action,
	}

	err := r.db.Pool.QueryRow(ctx, query, identifier, action).
		Scan(&record.Attempts, &record.WindowStart, &record.LastAttempt, &record.BlockedUntil)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return record, nil
}

// DeleteIdleCounters removes counters whose last attempt is older than the
// cutoff and that are not currently blocked. Used by the retention sweep only;
// the limiter itself never deletes rows.
func (r *RateLimitRepository) DeleteIdleCounters(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM rate_limit_counters
		WHERE last_attempt < $1
		  AND (blocked_until IS NULL OR blocked_until < now())
	`

	tag, err := r.db.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle counters: %w", err)
	}

	return tag.RowsAffected(), nil
}
