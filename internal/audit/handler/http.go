package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"contenthub/backend/internal/audit/repository"
	"contenthub/backend/internal/server/middleware"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Handler serves the authenticated audit-event routes. Users can only list
// their own events; the user id always comes from the access token.
type Handler struct {
	events repository.Repository
	auth   func(http.Handler) http.Handler
}

func NewHandler(events repository.Repository, auth func(http.Handler) http.Handler) *Handler {
	return &Handler{events: events, auth: auth}
}

// Register mounts the audit routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/v1/users/me/audit-events", h.auth(http.HandlerFunc(h.handleList)))
}

type eventResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// handleList returns the caller's audit trail, newest first.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	limit := queryInt32(r, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := queryInt32(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	events, err := h.events.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("audit handler: list events: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:        e.ID,
			Action:    e.Action,
			Resource:  e.Resource,
			IP:        e.IP,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func queryInt32(r *http.Request, key string, fallback int32) int32 {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(n)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("audit handler: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
