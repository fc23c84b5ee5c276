package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"contenthub/backend/internal/audit/domain"
	auditrepo "contenthub/backend/internal/audit/repository"
)

// Actions recorded by the auth code paths.
const (
	ActionRegister      = "user_register"
	ActionLogin         = "login"
	ActionLoginFailed   = "login_failed"
	ActionTokenRefresh  = "token_refresh"
	ActionTokenReuse    = "token_reuse_detected"
	ActionLogout        = "logout"
	ActionSessionRevoke = "session_revoke_all"
)

// writeTimeout is the max time allowed for a single async audit write. Used by
// LogEventAsync and by ShutdownDrainDuration.
const writeTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the HTTP server drains before
// closing the database pool, so in-flight async audit writes have time to
// complete. Must be >= writeTimeout.
const ShutdownDrainDuration = writeTimeout

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// Emitter mirrors audit events to an external sink (e.g. OTel log records).
// Emit must not block on failure.
type Emitter interface {
	Emit(ctx context.Context, e *domain.Event)
}

// AuditLogger writes a single audit event with explicit action/resource. Used
// by the auth service code paths. LogEvent is best-effort: failures are logged
// and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID, action, resource, metadata string)
	LogEventAsync(ctx context.Context, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP
// extractor.
type Logger struct {
	repo        auditrepo.Repository
	emitter     Emitter
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo, mirrors to emitter,
// and uses ipExtractor for client IP. emitter may be nil; ipExtractor may be
// nil, then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, emitter Emitter, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, emitter: emitter, ipExtractor: ipExtractor}
}

// LogEvent writes one audit event. Best-effort: errors are logged and not
// returned.
func (l *Logger) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	l.write(ctx, l.buildEvent(ctx, userID, action, resource, metadata))
}

// LogEventAsync runs LogEvent in a goroutine with a short timeout so the
// caller is not blocked. The goroutine uses context.Background() with
// writeTimeout so request cancellation does not abort an in-flight write; the
// client IP is captured from ctx before the handoff.
func (l *Logger) LogEventAsync(ctx context.Context, userID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	entry := l.buildEvent(ctx, userID, action, resource, metadata)
	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		l.write(writeCtx, entry)
	}()
}

func (l *Logger) buildEvent(ctx context.Context, userID, action, resource, metadata string) *domain.Event {
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	return &domain.Event{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}

func (l *Logger) write(ctx context.Context, entry *domain.Event) {
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", entry.Action, entry.Resource, err)
	}
	if l.emitter != nil {
		l.emitter.Emit(ctx, entry)
	}
}
