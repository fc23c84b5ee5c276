package domain

import "time"

// Session is a persisted refresh-token session. One user has many sessions,
// one per device/login. Rows are never deleted, only marked revoked, so the
// history backs refresh-token reuse detection.
type Session struct {
	ID           string
	UserID       string
	RefreshToken string // globally unique; at most one non-revoked row per token
	DeviceID     string
	IPAddress    string
	UserAgent    string
	IsRevoked    bool
	ExpiresAt    time.Time
	CreatedAt    time.Time
	LastUsedAt   time.Time
	RevokedAt    *time.Time // nil when not revoked
}

// Active reports whether the session can still be exchanged at the given time.
func (s *Session) Active(now time.Time) bool {
	return !s.IsRevoked && s.ExpiresAt.After(now)
}
