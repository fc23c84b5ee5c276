package security

import (
	"testing"
	"time"
)

func TestTokenProvider_IssueAccessAndRefresh(t *testing.T) {
	p := NewTestTokenProvider()
	userID := "u1"

	access, accessExp, err := p.IssueAccess(userID)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if access == "" {
		t.Fatal("access token empty")
	}
	if accessExp.Before(time.Now()) {
		t.Fatal("access expires at in the past")
	}

	refresh, refreshExp, err := p.IssueRefresh(userID)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if refresh == "" {
		t.Fatal("refresh token empty")
	}
	if refreshExp.Before(accessExp) {
		t.Fatal("refresh should outlive access")
	}

	uid, err := p.ValidateAccess(access)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if uid != userID {
		t.Errorf("ValidateAccess subject = %q, want %q", uid, userID)
	}

	uid, err = p.ValidateRefresh(refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if uid != userID {
		t.Errorf("ValidateRefresh subject = %q, want %q", uid, userID)
	}
}

func TestTokenProvider_TypesNotInterchangeable(t *testing.T) {
	p := NewTestTokenProvider()

	access, _, err := p.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.ValidateRefresh(access); err != ErrInvalidToken {
		t.Errorf("ValidateRefresh(access token): want ErrInvalidToken, got %v", err)
	}

	refresh, _, err := p.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if _, err := p.ValidateAccess(refresh); err != ErrInvalidToken {
		t.Errorf("ValidateAccess(refresh token): want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_ValidateInvalid(t *testing.T) {
	p := NewTestTokenProvider()
	if _, err := p.ValidateAccess("invalid-token"); err != ErrInvalidToken {
		t.Errorf("ValidateAccess invalid token: want ErrInvalidToken, got %v", err)
	}
	if _, err := p.ValidateRefresh(""); err != ErrInvalidToken {
		t.Errorf("ValidateRefresh empty token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_WrongSecretRejected(t *testing.T) {
	p := NewTestTokenProvider()
	other := NewTokenProvider([]byte("another-secret"), "test-issuer", "test-audience", time.Minute, time.Hour)

	access, _, err := other.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.ValidateAccess(access); err != ErrInvalidToken {
		t.Errorf("ValidateAccess with wrong secret: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_ExpiredRejected(t *testing.T) {
	p := NewTokenProvider([]byte("test-secret-do-not-use"), "test-issuer", "test-audience", -time.Minute, -time.Minute)

	access, _, err := p.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.ValidateAccess(access); err != ErrInvalidToken {
		t.Errorf("ValidateAccess expired token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_RefreshTokensAreUnique(t *testing.T) {
	p := NewTestTokenProvider()
	a, _, err := p.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	b, _, err := p.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if a == b {
		t.Error("two refresh tokens for the same user should differ (fresh jti)")
	}
}
