package repository

import (
	"context"

	"contenthub/backend/internal/audit/domain"
	"contenthub/backend/internal/db"
)

const eventColumns = "id, user_id, action, resource, ip, metadata, created_at"

type PostgresRepository struct {
	db db.Querier
}

// NewPostgresRepository returns an audit event repository that uses the given
// querier for persistence.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{db: q}
}

// Create persists the audit event. The event must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Event) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_events (id, user_id, action, resource, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, nullIfEmpty(e.UserID), e.Action, e.Resource, e.IP, nullIfEmpty(e.Metadata), e.CreatedAt)
	return err
}

// ListByUser returns audit events for the user, newest first, paginated by
// limit and offset.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+eventColumns+`
		FROM audit_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var e domain.Event
		var uid, meta *string
		if err := rows.Scan(&e.ID, &uid, &e.Action, &e.Resource, &e.IP, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if uid != nil {
			e.UserID = *uid
		}
		if meta != nil {
			e.Metadata = *meta
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
