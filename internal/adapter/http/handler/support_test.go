package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/internal/service/support"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	"github.com/google/uuid"
)

type stubSupport struct {
	SupportService

	removeContact func(contactID uuid.UUID) ([]models.EmergencyContact, error)
	createTicket  func(in support.TicketInput) (*models.SupportTicket, error)
}

func (s *stubSupport) RemoveContact(_ context.Context, _ *models.User, contactID uuid.UUID) ([]models.EmergencyContact, error) {
	return s.removeContact(contactID)
}

func (s *stubSupport) CreateTicket(_ context.Context, _ *models.User, in support.TicketInput) (*models.SupportTicket, error) {
	return s.createTicket(in)
}

func TestCreateTicket(t *testing.T) {
	customer := &models.User{ID: uuid.New(), Role: types.RoleCustomer}
	rideID := uuid.New()

	var got support.TicketInput
	h := NewSupport(&stubSupport{createTicket: func(in support.TicketInput) (*models.SupportTicket, error) {
		got = in
		if in.RideID != nil && *in.RideID != rideID {
			return nil, types.ErrRideNotFound
		}
		return &models.SupportTicket{ID: uuid.New(), Category: in.Category, Status: types.TicketOpen}, nil
	}}, logger.Nop())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"with ride", `{"ride_id":"` + rideID.String() + `","category":"fare_dispute","description":"overcharged"}`, http.StatusCreated},
		{"unknown ride", `{"ride_id":"` + uuid.NewString() + `","description":"x"}`, http.StatusNotFound},
		{"without ride", `{"description":"app is slow"}`, http.StatusCreated},
		{"bad category", `{"category":"lost_item","description":"x"}`, http.StatusUnprocessableEntity},
		{"bad ride id", `{"ride_id":"42","description":"x"}`, http.StatusUnprocessableEntity},
		{"no description", `{"category":"other"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withUser(httptest.NewRequest(http.MethodPost, "/support/tickets", strings.NewReader(tt.body)), customer)
			rec := httptest.NewRecorder()
			h.CreateTicket(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	if got.RideID != nil || got.Category != "" {
		t.Fatalf("request without ride should carry no ride and default category, got %+v", got)
	}
}

func TestRemoveContact(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: types.RoleRider}
	known := uuid.New()
	h := NewSupport(&stubSupport{removeContact: func(id uuid.UUID) ([]models.EmergencyContact, error) {
		if id != known {
			return nil, types.ErrContactNotFound
		}
		return []models.EmergencyContact{}, nil
	}}, logger.Nop())

	tests := []struct {
		id   string
		want int
	}{
		{known.String(), http.StatusOK},
		{uuid.NewString(), http.StatusNotFound},
		{"nope", http.StatusBadRequest},
	}

	for _, tt := range tests {
		req := withUser(httptest.NewRequest(http.MethodDelete, "/", nil), user)
		req.SetPathValue("contact_id", tt.id)
		rec := httptest.NewRecorder()
		h.RemoveContact(rec, req)

		if rec.Code != tt.want {
			t.Errorf("remove %s: status = %d, want %d", tt.id, rec.Code, tt.want)
		}
	}
}
