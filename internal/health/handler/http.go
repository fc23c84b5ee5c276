package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger reports storage reachability (e.g. db.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves /healthz for Kubernetes, load balancers, and CI.
type Handler struct {
	db Pinger
}

// NewHandler returns a health handler. db may be nil; then the DB ping is
// skipped and only process liveness is reported.
func NewHandler(db Pinger) *Handler {
	return &Handler{db: db}
}

// Register mounts the health route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
