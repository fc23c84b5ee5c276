package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"contenthub/backend/internal/db"
	"contenthub/backend/internal/session/domain"
)

const uniqueViolation = "23505"

const sessionColumns = "id, user_id, refresh_token, device_id, ip_address, user_agent, is_revoked, expires_at, created_at, last_used_at, revoked_at"

// PostgresRepository persists sessions in the user_sessions table.
type PostgresRepository struct{}

// NewPostgresRepository returns a session repository. Queries run on whatever
// querier the caller passes, so the same repository serves pool and
// transaction callers.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// Create inserts a new non-revoked session row. Returns ErrTokenConflict when
// the refresh token is already present.
func (r *PostgresRepository) Create(ctx context.Context, q db.Querier, s *domain.Session) error {
	_, err := q.Exec(ctx, `
		INSERT INTO user_sessions (id, user_id, refresh_token, device_id, ip_address, user_agent, is_revoked, expires_at, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8, $8)
	`, s.ID, s.UserID, s.RefreshToken, s.DeviceID, s.IPAddress, nullIfEmpty(s.UserAgent), s.ExpiresAt, s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrTokenConflict
		}
		return err
	}
	return nil
}

// GetAndLock locks and returns the non-revoked, non-expired session for the
// token, stamping last_used_at inside the same transaction. The SELECT ... FOR
// UPDATE serializes concurrent refresh attempts on the same token: the second
// caller blocks until the first commits, then sees the row revoked.
func (r *PostgresRepository) GetAndLock(ctx context.Context, q db.Querier, token string) (*domain.Session, error) {
	now := time.Now().UTC()
	row := q.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM user_sessions
		WHERE refresh_token = $1 AND NOT is_revoked AND expires_at > $2
		FOR UPDATE
	`, token, now)
	s, err := scanSession(row)
	if err != nil || s == nil {
		return nil, err
	}
	if _, err := q.Exec(ctx, `UPDATE user_sessions SET last_used_at = $2 WHERE id = $1`, s.ID, now); err != nil {
		return nil, err
	}
	s.LastUsedAt = now
	return s, nil
}

// Revoke atomically flips is_revoked false→true for the token. The WHERE
// clause is the compare-and-set: an already-revoked or absent row changes
// nothing and returns false.
func (r *PostgresRepository) Revoke(ctx context.Context, q db.Querier, token string) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE user_sessions
		SET is_revoked = TRUE, revoked_at = $2
		WHERE refresh_token = $1 AND NOT is_revoked
	`, token, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RevokeAllForUser revokes every non-revoked session of the user.
func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, q db.Querier, userID string) (int64, error) {
	tag, err := q.Exec(ctx, `
		UPDATE user_sessions
		SET is_revoked = TRUE, revoked_at = $2
		WHERE user_id = $1 AND NOT is_revoked
	`, userID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// GetRecentByToken returns the session for the token, revoked or not, whose
// last_used_at falls within grace of now; nil otherwise.
func (r *PostgresRepository) GetRecentByToken(ctx context.Context, q db.Querier, token string, grace time.Duration) (*domain.Session, error) {
	cutoff := time.Now().UTC().Add(-grace)
	row := q.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM user_sessions
		WHERE refresh_token = $1 AND last_used_at >= $2
	`, token, cutoff)
	return scanSession(row)
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	var userAgent *string
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.DeviceID, &s.IPAddress, &userAgent,
		&s.IsRevoked, &s.ExpiresAt, &s.CreatedAt, &s.LastUsedAt, &s.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if userAgent != nil {
		s.UserAgent = *userAgent
	}
	return &s, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
