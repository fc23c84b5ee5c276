package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contenthub/backend/internal/audit/domain"
	"contenthub/backend/internal/server/middleware"
)

type stubEventRepo struct {
	events []*domain.Event
	err    error

	lastUserID string
	lastLimit  int32
	lastOffset int32
}

func (s *stubEventRepo) Create(ctx context.Context, e *domain.Event) error { return nil }

func (s *stubEventRepo) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.Event, error) {
	s.lastUserID = userID
	s.lastLimit = limit
	s.lastOffset = offset
	return s.events, s.err
}

// authAs stands in for the Bearer middleware, stamping a fixed user id.
func authAs(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), userID)))
		})
	}
}

func noAuth(next http.Handler) http.Handler { return next }

func newTestMux(repo *stubEventRepo, auth func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(repo, auth).Register(mux)
	return mux
}

func TestHandler_ListOwnEvents(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubEventRepo{events: []*domain.Event{
		{ID: "e2", UserID: "u1", Action: "token_refresh", Resource: "session", CreatedAt: now},
		{ID: "e1", UserID: "u1", Action: "login", Resource: "session", IP: "10.0.0.1", CreatedAt: now.Add(-time.Minute)},
	}}
	mux := newTestMux(repo, authAs("u1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me/audit-events", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var body []eventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 2 || body[0].ID != "e2" || body[1].Action != "login" {
		t.Errorf("unexpected body: %+v", body)
	}
	if repo.lastUserID != "u1" {
		t.Errorf("listed user %q, want u1", repo.lastUserID)
	}
	if repo.lastLimit != defaultPageSize || repo.lastOffset != 0 {
		t.Errorf("default paging = %d/%d", repo.lastLimit, repo.lastOffset)
	}
}

func TestHandler_ListEmpty(t *testing.T) {
	mux := newTestMux(&stubEventRepo{}, authAs("u1"))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me/audit-events", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// Empty list, not null.
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want empty array", got)
	}
}

func TestHandler_ListPagination(t *testing.T) {
	repo := &stubEventRepo{}
	mux := newTestMux(repo, authAs("u1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me/audit-events?limit=5&offset=10", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if repo.lastLimit != 5 || repo.lastOffset != 10 {
		t.Errorf("paging = %d/%d, want 5/10", repo.lastLimit, repo.lastOffset)
	}

	// Out-of-range values fall back to sane defaults.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/me/audit-events?limit=100000&offset=-3", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if repo.lastLimit != defaultPageSize || repo.lastOffset != 0 {
		t.Errorf("clamped paging = %d/%d", repo.lastLimit, repo.lastOffset)
	}
}

func TestHandler_ListUnauthenticated(t *testing.T) {
	mux := newTestMux(&stubEventRepo{}, noAuth)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me/audit-events", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandler_ListRepositoryError(t *testing.T) {
	mux := newTestMux(&stubEventRepo{err: errors.New("db down")}, authAs("u1"))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me/audit-events", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["detail"] != "Internal server error" {
		t.Errorf("detail = %q", body["detail"])
	}
}
