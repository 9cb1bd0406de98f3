package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/google/uuid"
)

type tokens map[string]*models.User

func (t tokens) Validate(_ context.Context, token string) (*models.User, error) {
	if u, ok := t[token]; ok {
		return u, nil
	}
	return nil, errors.New("invalid token")
}

func newTestMiddleware() (*Middleware, *models.User, *models.User) {
	customer := &models.User{ID: uuid.New(), Role: types.RoleCustomer}
	rider := &models.User{ID: uuid.New(), Role: types.RoleRider}
	return NewMiddleware(tokens{"c": customer, "r": rider}, logger.Nop()), customer, rider
}

func TestAuthAndRoles(t *testing.T) {
	m, customer, _ := newTestMiddleware()

	var seen *models.User
	handler := m.Auth(m.RequireRoles(func(w http.ResponseWriter, r *http.Request) {
		seen = models.UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}, types.RoleCustomer))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"malformed header", "Token c", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer r", http.StatusForbidden},
		{"customer", "Bearer c", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/rides", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	if seen == nil || seen.ID != customer.ID {
		t.Fatalf("handler saw user %+v, want %s", seen, customer.ID)
	}
}

func TestAuth_QueryTokenOnlyForWebsocket(t *testing.T) {
	m, _, rider := newTestMiddleware()

	var seen *models.User
	handler := m.Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = models.UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws?token=r", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !seen.IsAnonymous() {
		t.Fatalf("plain request authenticated by query token")
	}

	req = httptest.NewRequest(http.MethodGet, "/ws?token=r", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen.IsAnonymous() || seen.ID != rider.ID {
		t.Fatalf("websocket upgrade not authenticated, got %+v", seen)
	}
}

func TestRequestID(t *testing.T) {
	m, _, _ := newTestMiddleware()

	var got string
	handler := m.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = wrap.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got == "" || rec.Header().Get(RequestIDHeader) != got {
		t.Fatalf("generated id %q, header %q", got, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != "abc-123" {
		t.Fatalf("request id = %q, want client value", got)
	}
}

func TestRecover(t *testing.T) {
	m, _, _ := newTestMiddleware()

	handler := m.Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
