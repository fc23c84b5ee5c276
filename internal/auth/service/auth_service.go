package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"contenthub/backend/internal/audit"
	"contenthub/backend/internal/db"
	"contenthub/backend/internal/security"
	sessiondomain "contenthub/backend/internal/session/domain"
	userdomain "contenthub/backend/internal/user/domain"
	userrepo "contenthub/backend/internal/user/repository"
)

// Sentinel errors for the auth service; the handler maps them to HTTP status codes.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUserExists          = errors.New("username or email already registered")
	ErrInvalidCredentials  = errors.New("incorrect username or password")
	ErrInactiveUser        = errors.New("inactive user")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrTokenUsed           = errors.New("refresh token already used")
	ErrTokenReuse          = errors.New("refresh token reuse detected; all sessions revoked")
)

// DeviceContext carries the per-request client attributes recorded on sessions.
type DeviceContext struct {
	DeviceID  string
	IPAddress string
	UserAgent string
}

// TokenPair is the outcome of Login and Refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// SessionRepo is the minimal session repository needed by the auth service.
// Methods take a db.Querier so the refresh path can run them inside one
// transaction.
type SessionRepo interface {
	Create(ctx context.Context, q db.Querier, s *sessiondomain.Session) error
	GetAndLock(ctx context.Context, q db.Querier, token string) (*sessiondomain.Session, error)
	Revoke(ctx context.Context, q db.Querier, token string) (bool, error)
	RevokeAllForUser(ctx context.Context, q db.Querier, userID string) (int64, error)
	GetRecentByToken(ctx context.Context, q db.Querier, token string, grace time.Duration) (*sessiondomain.Session, error)
}

// AuthService implements register, login, refresh with rotation, and logout.
type AuthService struct {
	db          db.DB
	users       UserRepo
	sessions    SessionRepo
	hasher      *security.Hasher
	tokens      *security.TokenProvider
	audit       audit.AuditLogger
	refreshTTL  time.Duration
	gracePeriod time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLogger may be nil to disable audit events.
func NewAuthService(
	database db.DB,
	users UserRepo,
	sessions SessionRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	auditLogger audit.AuditLogger,
	refreshTTL, gracePeriod time.Duration,
) *AuthService {
	return &AuthService{
		db:          database,
		users:       users,
		sessions:    sessions,
		hasher:      hasher,
		tokens:      tokens,
		audit:       auditLogger,
		refreshTTL:  refreshTTL,
		gracePeriod: gracePeriod,
	}
}

// Register creates a user with the given credentials. It does not issue
// tokens; the caller must Login afterwards.
func (s *AuthService) Register(ctx context.Context, username, email, fullName, password string) (*userdomain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.users.GetByUsernameOrEmail(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing, err = s.users.GetByUsernameOrEmail(ctx, email)
		if err != nil {
			return nil, err
		}
	}
	if existing != nil {
		return nil, ErrUserExists
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	user := &userdomain.User{
		ID:             uuid.New().String(),
		Username:       username,
		Email:          email,
		FullName:       strings.TrimSpace(fullName),
		HashedPassword: hashed,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can slip past the existence check; the
		// unique constraint is the authority.
		if errors.Is(err, userrepo.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	s.logAsync(ctx, user.ID, audit.ActionRegister, "user", user.Username)
	return user, nil
}

// Login authenticates with username or email plus password, creates a
// session, and returns an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string, dev DeviceContext) (*TokenPair, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)
	if usernameOrEmail == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Verify([]byte(password), user.HashedPassword) {
		s.logAsync(ctx, "", audit.ActionLoginFailed, "session", usernameOrEmail)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.logAsync(ctx, user.ID, audit.ActionLoginFailed, "session", "inactive user")
		return nil, ErrInactiveUser
	}
	pair, sess, err := s.issueSession(user.ID, dev)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, s.db, sess); err != nil {
		return nil, err
	}
	s.logAsync(ctx, user.ID, audit.ActionLogin, "session", dev.DeviceID)
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair, revoking the
// presented token. Each refresh token is single-use: the row lock taken inside
// the transaction serializes concurrent exchanges of the same token, and the
// loser finds the row already revoked.
//
// A token that is absent, expired, or revoked normally yields
// ErrInvalidRefreshToken. If the token was used within the reuse grace period,
// the exchange is treated as theft evidence: every session of the user is
// revoked and ErrTokenReuse is returned.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, dev DeviceContext) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	tokenUserID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	sess, err := s.sessions.GetAndLock(ctx, tx, refreshToken)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, s.handleMissingSession(ctx, refreshToken)
	}
	if sess.UserID != tokenUserID {
		return nil, ErrInvalidRefreshToken
	}

	pair, next, err := s.issueSession(sess.UserID, mergeDevice(dev, sess))
	if err != nil {
		return nil, err
	}
	ok, err := s.sessions.Revoke(ctx, tx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenUsed
	}
	if err := s.sessions.Create(ctx, tx, next); err != nil {
		// The old token is still valid once the tx rolls back; revoke it
		// outside the transaction so a partial rotation fails closed. The
		// rollback must come first: the tx still holds the row lock from
		// GetAndLock, and the pool-side revoke would block on it.
		_ = tx.Rollback(ctx)
		s.revokeBestEffort(refreshToken)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		s.revokeBestEffort(refreshToken)
		return nil, err
	}
	s.logAsync(ctx, sess.UserID, audit.ActionTokenRefresh, "session", next.DeviceID)
	return pair, nil
}

// Logout revokes the session identified by the refresh token. Revoking an
// unknown or already-revoked token is a no-op, so logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil
	}
	revoked, err := s.sessions.Revoke(ctx, s.db, refreshToken)
	if err != nil {
		return err
	}
	if revoked {
		s.logAsync(ctx, userID, audit.ActionLogout, "session", "")
	}
	return nil
}

// RevokeAllSessions revokes every active session of the user and returns how
// many were revoked.
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID string) (int64, error) {
	n, err := s.sessions.RevokeAllForUser(ctx, s.db, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logAsync(ctx, userID, audit.ActionSessionRevoke, "session", fmt.Sprintf("revoked=%d", n))
	}
	return n, nil
}

// handleMissingSession decides between a stale token and a reuse attack when
// the refresh path finds no active row. A replay within the grace period of
// the token's last use means the legitimate client rotated recently and
// someone else is now presenting the retired token.
func (s *AuthService) handleMissingSession(ctx context.Context, refreshToken string) error {
	recent, err := s.sessions.GetRecentByToken(ctx, s.db, refreshToken, s.gracePeriod)
	if err != nil {
		return err
	}
	if recent == nil {
		return ErrInvalidRefreshToken
	}
	if _, err := s.sessions.RevokeAllForUser(ctx, s.db, recent.UserID); err != nil {
		return err
	}
	s.logAsync(ctx, recent.UserID, audit.ActionTokenReuse, "session", recent.DeviceID)
	return ErrTokenReuse
}

// issueSession mints a token pair and the session row that will back the
// refresh half. Nothing is persisted here.
func (s *AuthService) issueSession(userID string, dev DeviceContext) (*TokenPair, *sessiondomain.Session, error) {
	refreshToken, refreshExp, err := s.tokens.IssueRefresh(userID)
	if err != nil {
		return nil, nil, err
	}
	accessToken, accessExp, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	deviceID := dev.DeviceID
	if deviceID == "" {
		deviceID = "unknown_device"
	}
	ip := dev.IPAddress
	if ip == "" {
		ip = "unknown"
	}
	sess := &sessiondomain.Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		RefreshToken: refreshToken,
		DeviceID:     deviceID,
		IPAddress:    ip,
		UserAgent:    dev.UserAgent,
		ExpiresAt:    now.Add(s.refreshTTL),
		CreatedAt:    now,
		LastUsedAt:   now,
	}
	pair := &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}
	return pair, sess, nil
}

// revokeBestEffort revokes the token outside any transaction after a failed
// rotation. Uses a background context so request cancellation cannot leave
// the old token alive.
func (s *AuthService) revokeBestEffort(refreshToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = s.sessions.Revoke(ctx, s.db, refreshToken)
}

func (s *AuthService) logAsync(ctx context.Context, userID, action, resource, metadata string) {
	if s.audit != nil {
		s.audit.LogEventAsync(ctx, userID, action, resource, metadata)
	}
}

func mergeDevice(dev DeviceContext, prev *sessiondomain.Session) DeviceContext {
	if dev.DeviceID == "" {
		dev.DeviceID = prev.DeviceID
	}
	if dev.IPAddress == "" {
		dev.IPAddress = prev.IPAddress
	}
	if dev.UserAgent == "" {
		dev.UserAgent = prev.UserAgent
	}
	return dev
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 50 {
		return fmt.Errorf("%w: username must be 3-50 characters", ErrInvalidInput)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	return nil
}
