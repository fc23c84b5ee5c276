package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"contenthub/backend/internal/auth/service"
	"contenthub/backend/internal/server/middleware"
	userdomain "contenthub/backend/internal/user/domain"
)

// refreshCookieName is the sole caller-visible refresh artifact. The token
// never appears in a response body.
const refreshCookieName = "refresh_token"

// AuthService is the auth service surface the handler depends on.
type AuthService interface {
	Register(ctx context.Context, username, email, fullName, password string) (*userdomain.User, error)
	Login(ctx context.Context, usernameOrEmail, password string, dev service.DeviceContext) (*service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string, dev service.DeviceContext) (*service.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Handler serves the /api/v1/auth endpoints.
type Handler struct {
	svc          AuthService
	cookieSecure bool
	refreshTTL   time.Duration
}

// NewHandler returns an auth handler. cookieSecure controls the Secure flag on
// the refresh cookie; refreshTTL bounds the cookie lifetime.
func NewHandler(svc AuthService, cookieSecure bool, refreshTTL time.Duration) *Handler {
	return &Handler{svc: svc, cookieSecure: cookieSecure, refreshTTL: refreshTTL}
}

// Register mounts the auth routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /api/v1/auth/logout", h.handleLogout)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.svc.Register(r.Context(), req.Username, req.Email, req.FullName, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	})
}

// handleLogin accepts OAuth2-style form credentials (username, password) and
// returns the access token, setting the refresh token as an HttpOnly cookie.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	pair, err := h.svc.Login(r.Context(), username, password, deviceContext(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, TokenType: "bearer"})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "Missing refresh token")
		return
	}
	pair, err := h.svc.Refresh(r.Context(), cookie.Value, deviceContext(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, TokenType: "bearer"})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusBadRequest, "Missing refresh token")
		return
	}
	if err := h.svc.Logout(r.Context(), cookie.Value); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// writeServiceError maps service sentinel errors to HTTP statuses. Anything
// unrecognized is a storage or internal failure and must not leak details.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserExists):
		writeError(w, http.StatusConflict, "Username or email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Incorrect username or password")
	case errors.Is(err, service.ErrInactiveUser):
		writeError(w, http.StatusForbidden, "Inactive user")
	case errors.Is(err, service.ErrTokenReuse):
		writeError(w, http.StatusUnauthorized, "Security alert: Token reuse detected. Please log in again.")
	case errors.Is(err, service.ErrTokenUsed):
		writeError(w, http.StatusUnauthorized, "Token already used")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		writeError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
	default:
		log.Printf("auth handler: internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.refreshTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func deviceContext(r *http.Request) service.DeviceContext {
	return service.DeviceContext{
		DeviceID:  r.Header.Get("Device-Id"),
		IPAddress: middleware.GetClientIP(r.Context()),
		UserAgent: r.UserAgent(),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("auth handler: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
