package security

import "time"

// NewTestTokenProvider returns a TokenProvider with a fixed secret.
// For unit tests only. Callers must not use in production.
func NewTestTokenProvider() *TokenProvider {
	return NewTokenProvider([]byte("test-secret-do-not-use"), "test-issuer", "test-audience", 15*time.Minute, 24*time.Hour)
}
