package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"contenthub/backend/internal/server/middleware"
	"contenthub/backend/internal/user/repository"
)

// Handler serves the /api/v1/users endpoints. All routes require a valid
// access token; Register wraps them with the auth middleware.
type Handler struct {
	users repository.Repository
	auth  func(http.Handler) http.Handler
}

func NewHandler(users repository.Repository, auth func(http.Handler) http.Handler) *Handler {
	return &Handler{users: users, auth: auth}
}

// Register mounts the user routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/v1/users/me", h.auth(http.HandlerFunc(h.handleMe)))
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// handleMe returns the authenticated user's profile. A token whose subject no
// longer exists is treated as invalid; a deactivated account gets 403.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		log.Printf("user handler: get user: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusForbidden, "Inactive user")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("user handler: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
