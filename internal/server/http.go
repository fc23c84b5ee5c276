package server

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	audithandler "contenthub/backend/internal/audit/handler"
	auditrepo "contenthub/backend/internal/audit/repository"
	authhandler "contenthub/backend/internal/auth/handler"
	healthhandler "contenthub/backend/internal/health/handler"
	"contenthub/backend/internal/security"
	"contenthub/backend/internal/server/middleware"
	userhandler "contenthub/backend/internal/user/handler"
	userrepo "contenthub/backend/internal/user/repository"
)

// Deps holds the service dependencies for the HTTP handlers.
type Deps struct {
	// Auth backs the /api/v1/auth routes.
	Auth authhandler.AuthService
	// Users backs the /api/v1/users routes.
	Users userrepo.Repository
	// AuditEvents backs /api/v1/users/me/audit-events. May be nil to disable
	// the listing route.
	AuditEvents auditrepo.Repository
	// Tokens validates Bearer access tokens on protected routes.
	Tokens *security.TokenProvider
	// HealthPinger is used by /healthz for readiness (e.g. db.Pool). May be nil.
	HealthPinger healthhandler.Pinger
	// CookieSecure sets the Secure flag on the refresh cookie.
	CookieSecure bool
	// RefreshTTL bounds the refresh cookie lifetime.
	RefreshTTL time.Duration
}

// NewHTTPHandler assembles the full route table and middleware chain.
//
// Route → handler mapping:
//   - /api/v1/auth/*                 → internal/auth/handler
//   - /api/v1/users/me               → internal/user/handler (Bearer auth required)
//   - /api/v1/users/me/audit-events  → internal/audit/handler (Bearer auth required)
//   - /healthz                       → internal/health/handler
func NewHTTPHandler(deps Deps) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(deps.Tokens)

	authhandler.NewHandler(deps.Auth, deps.CookieSecure, deps.RefreshTTL).Register(mux)
	userhandler.NewHandler(deps.Users, requireAuth).Register(mux)
	if deps.AuditEvents != nil {
		audithandler.NewHandler(deps.AuditEvents, requireAuth).Register(mux)
	}
	healthhandler.NewHandler(deps.HealthPinger).Register(mux)

	var h http.Handler = mux
	h = middleware.ClientContext(h)
	return otelhttp.NewHandler(h, "contenthub.http")
}
