package repository

import (
	"context"
	"errors"
	"time"

	"contenthub/backend/internal/db"
	"contenthub/backend/internal/session/domain"
)

// ErrTokenConflict is returned by Create when the refresh token collides with
// an existing row. Tokens are freshly generated and high-entropy, so a
// collision is a caller bug, not a recoverable condition.
var ErrTokenConflict = errors.New("refresh token already exists")

// Repository defines persistence for refresh-token sessions.
//
// Every method takes a db.Querier so the auth service can run a sequence of
// calls inside one transaction (pass the db.Tx) or standalone (pass the pool).
type Repository interface {
	// Create inserts a new non-revoked session row.
	Create(ctx context.Context, q db.Querier, s *domain.Session) error
	// GetAndLock returns the non-revoked, non-expired session for the token,
	// holding an exclusive row lock for the rest of the enclosing transaction,
	// and stamps LastUsedAt. Returns nil when no such row exists. q must be a
	// transaction for the lock to mean anything.
	GetAndLock(ctx context.Context, q db.Querier, token string) (*domain.Session, error)
	// Revoke flips IsRevoked false→true and stamps RevokedAt, conditioned on
	// the row being non-revoked. Returns false if the row was already revoked
	// or absent.
	Revoke(ctx context.Context, q db.Querier, token string) (bool, error)
	// RevokeAllForUser revokes every non-revoked session of the user and
	// returns how many rows changed. Security response to token reuse.
	RevokeAllForUser(ctx context.Context, q db.Querier, userID string) (int64, error)
	// GetRecentByToken returns the session for the token, revoked or not,
	// whose LastUsedAt falls within grace of now; nil otherwise.
	GetRecentByToken(ctx context.Context, q db.Querier, token string, grace time.Duration) (*domain.Session, error)
}
