package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Temutjin2k/ride-bidding/config"
	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/handler"
	wshandler "github.com/Temutjin2k/ride-bidding/internal/adapter/http/ws"
	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	"github.com/google/uuid"
)

type staticTokens map[string]*models.User

func (s staticTokens) Validate(_ context.Context, token string) (*models.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, errors.New("invalid token")
}

func newAPI(t *testing.T, mode types.ServiceMode) *API {
	t.Helper()

	log := logger.Nop()
	routes := Handlers{Health: handler.NewHealth(string(mode), nil, log)}
	if mode == types.RideService {
		// services are never reached in these tests
		routes.Ride = handler.NewRide(nil, log)
		routes.Support = handler.NewSupport(nil, log)
		routes.Gateway = wshandler.NewGateway(nil, nil, nil, nil, log)
	}

	tokens := staticTokens{"rider": {ID: uuid.New(), Role: types.RoleRider}}
	api, err := New(config.Config{Mode: mode}, routes, tokens, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return api
}

func TestRoutes(t *testing.T) {
	api := newAPI(t, types.RideService)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"create requires token", http.MethodPost, "/rides", "", http.StatusUnauthorized},
		{"create requires customer", http.MethodPost, "/rides", "rider", http.StatusForbidden},
		{"bad token", http.MethodGet, "/rides", "forged", http.StatusUnauthorized},
		{"track rejects missing share token", http.MethodGet, "/track/" + uuid.NewString(), "", http.StatusBadRequest},
		{"contacts require token", http.MethodGet, "/safety/contacts", "", http.StatusUnauthorized},
		{"ticket with empty body", http.MethodPost, "/support/tickets", "rider", http.StatusBadRequest},
		{"contact id must be uuid", http.MethodDelete, "/safety/contacts/1", "rider", http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/drivers", "", http.StatusNotFound},
		{"method not allowed", http.MethodDelete, "/rides", "rider", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			api.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Fatalf("request id header is missing")
			}
		})
	}
}

func TestAuditModeHasNoRideRoutes(t *testing.T) {
	api := newAPI(t, types.AuditService)

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rides", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestNew_InvalidMode(t *testing.T) {
	_, err := New(config.Config{Mode: "driver-service"}, Handlers{Health: handler.NewHealth("x", nil, logger.Nop())}, nil, logger.Nop())
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
