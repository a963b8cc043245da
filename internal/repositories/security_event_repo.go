package repositories

import (
	"context"
	"fmt"

	"github.com/dbpilot/aegis/internal/database"
	"github.com/dbpilot/aegis/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SecurityEventRepository handles the append-only security event log.
// Events are inserted and read; there is deliberately no update or delete.
type SecurityEventRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityEventRepository creates a new SecurityEventRepository
func NewSecurityEventRepository(db *database.DB) *SecurityEventRepository {
	return &SecurityEventRepository{pool: db.Pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSecurityEventRow(row rowScanner) (*models.SecurityEvent, error) {
	var event models.SecurityEvent

	err := row.Scan(
		&event.ID, &event.EventType, &event.Severity, &event.ActorID,
		&event.IPAddress, &event.UserAgent, &event.EventData, &event.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &event, nil
}

func scanSecurityEventRows(rows pgx.Rows) ([]*models.SecurityEvent, error) {
	defer rows.Close()

	events := make([]*models.SecurityEvent, 0)

	for rows.Next() {
		event, err := scanSecurityEventRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security event rows: %w", err)
	}

	return events, nil
}

// Create appends a new security event. created_at is server-assigned.
func (r *SecurityEventRepository) Create(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
	query := `
		INSERT INTO security_events (id, event_type, severity, actor_id, ip_address, user_agent, event_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, event_type, severity, actor_id, ip_address, user_agent, event_data, created_at
	`

	result, err := scanSecurityEventRow(r.pool.QueryRow(
		ctx, query,
		event.ID, event.EventType, event.Severity, event.ActorID,
		event.IPAddress, event.UserAgent, event.EventData,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create security event: %w", err)
	}

	return result, nil
}

// GetByActorID retrieves events recorded for one actor, newest first
func (r *SecurityEventRepository) GetByActorID(ctx context.Context, actorID string, limit, offset int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, event_type, severity, actor_id, ip_address, user_agent, event_data, created_at
		FROM security_events
		WHERE actor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, actorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}

	return scanSecurityEventRows(rows)
}

// CountByActorID returns the total number of events recorded for one actor
func (r *SecurityEventRepository) CountByActorID(ctx context.Context, actorID string) (int64, error) {
	query := `SELECT COUNT(*) FROM security_events WHERE actor_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, actorID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count security events: %w", err)
	}

	return count, nil
}
