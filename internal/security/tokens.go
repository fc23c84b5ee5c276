package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, of the
	// wrong type, or carries an invalid signature.
	ErrInvalidToken = errors.New("invalid token")
)

// Token types carried in the typ claim. Access and refresh tokens share the
// signing mechanism but are never interchangeable: validation checks the type.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims holds the JWT claims for access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}

// TokenProvider issues and validates JWT access and refresh tokens signed with
// HS256 using a process-wide secret. The secret is injected at construction
// and loaded once at startup; key rotation is out of scope.
type TokenProvider struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given secret.
// issuer and audience are set on claims and checked on validation.
func NewTokenProvider(secret []byte, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:     secret,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess issues a short-lived access JWT for the given user.
// Returns the token string and its expiration time.
func (p *TokenProvider) IssueAccess(userID string) (string, time.Time, error) {
	return p.issue(userID, TokenTypeAccess, p.accessTTL)
}

// IssueRefresh issues a long-lived refresh JWT for the given user. Each call
// produces a distinct token (fresh jti), so rotation never reissues an
// identical token string.
func (p *TokenProvider) IssueRefresh(userID string) (string, time.Time, error) {
	return p.issue(userID, TokenTypeRefresh, p.refreshTTL)
}

func (p *TokenProvider) issue(userID, tokenType string, ttl time.Duration) (string, time.Time, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: tokenType,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	return token, expiresAt, err
}

// ValidateAccess parses and validates an access token (signature, exp, iss,
// aud, typ). Returns the subject user ID.
func (p *TokenProvider) ValidateAccess(tokenString string) (string, error) {
	return p.validate(tokenString, TokenTypeAccess)
}

// ValidateRefresh parses and validates a refresh token (signature, exp, iss,
// aud, typ). Returns the subject user ID.
func (p *TokenProvider) ValidateRefresh(tokenString string) (string, error) {
	return p.validate(tokenString, TokenTypeRefresh)
}

func (p *TokenProvider) validate(tokenString, wantType string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return "", ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return "", ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
