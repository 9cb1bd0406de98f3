package support

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	"github.com/google/uuid"
)

type memRepo struct {
	mu       sync.Mutex
	contacts []models.EmergencyContact
	tickets  []*models.SupportTicket
}

func (r *memRepo) ListContacts(_ context.Context, userID uuid.UUID) ([]models.EmergencyContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.EmergencyContact{}
	for _, c := range r.contacts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRepo) AddContact(_ context.Context, c models.EmergencyContact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts = append(r.contacts, c)
	return nil
}

func (r *memRepo) DeleteContact(_ context.Context, userID, contactID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.contacts {
		if c.ID == contactID && c.UserID == userID {
			r.contacts = append(r.contacts[:i], r.contacts[i+1:]...)
			return nil
		}
	}
	return types.ErrContactNotFound
}

func (r *memRepo) CreateTicket(_ context.Context, t *models.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tickets = append(r.tickets, &cp)
	return nil
}

func (r *memRepo) ListTickets(_ context.Context, userID uuid.UUID) ([]*models.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.SupportTicket{}
	for i := len(r.tickets) - 1; i >= 0; i-- {
		if r.tickets[i].UserID == userID {
			out = append(out, r.tickets[i])
		}
	}
	return out, nil
}

type rideMap map[uuid.UUID]*models.Ride

func (m rideMap) Get(_ context.Context, id uuid.UUID) (*models.Ride, error) {
	r, ok := m[id]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	return r, nil
}

func newService(rides rideMap) (*Service, *memRepo) {
	repo := &memRepo{}
	svc := New(repo, rides, logger.Nop())
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc, repo
}

func TestService_ContactsLifecycle(t *testing.T) {
	svc, _ := newService(rideMap{})
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Role: types.RoleCustomer}
	other := &models.User{ID: uuid.New(), Role: types.RoleCustomer}

	list, err := svc.AddContact(ctx, user, ContactInput{Name: " Mom ", Phone: "+91 98765 43210", Relationship: "mother"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Mom" {
		t.Fatalf("contacts after add: %+v", list)
	}
	if _, err := svc.AddContact(ctx, other, ContactInput{Name: "Bro", Phone: "123"}); err != nil {
		t.Fatalf("add other: %v", err)
	}

	if _, err := svc.RemoveContact(ctx, other, list[0].ID); !errors.Is(err, types.ErrContactNotFound) {
		t.Fatalf("foreign contact removal: got %v", err)
	}

	list, err = svc.RemoveContact(ctx, user, list[0].ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("contacts after remove: %+v", list)
	}

	rest, _ := svc.Contacts(ctx, other)
	if len(rest) != 1 {
		t.Fatalf("other user's contacts touched: %+v", rest)
	}
}

func TestService_AddContactValidation(t *testing.T) {
	svc, repo := newService(rideMap{})
	user := &models.User{ID: uuid.New(), Role: types.RoleCustomer}

	cases := []ContactInput{
		{Name: "", Phone: "123"},
		{Name: "Mom", Phone: "   "},
	}
	for _, in := range cases {
		if _, err := svc.AddContact(context.Background(), user, in); !errors.Is(err, types.ErrValidation) {
			t.Fatalf("input %+v: got %v want ErrValidation", in, err)
		}
	}
	if len(repo.contacts) != 0 {
		t.Fatalf("invalid contacts stored: %+v", repo.contacts)
	}
}

func TestService_CreateTicket(t *testing.T) {
	customer := uuid.New()
	driver := uuid.New()
	rideID := uuid.New()
	missing := uuid.New()
	rides := rideMap{rideID: {
		ID:         rideID,
		CustomerID: customer,
		RiderID:    &driver,
		Fare:       80,
		Status:     types.StatusCompleted,
		Pickup:     models.Place{Address: "A"},
		Drop:       models.Place{Address: "B"},
	}}

	cases := []struct {
		name     string
		user     uuid.UUID
		in       TicketInput
		wantErr  error
		wantCat  types.TicketCategory
		wantRide bool
	}{
		{name: "no ride defaults to other", user: uuid.New(), in: TicketInput{Description: "app crashes"}, wantCat: types.TicketOther},
		{name: "customer about ride", user: customer, in: TicketInput{RideID: &rideID, Category: types.TicketFareDispute, Description: "charged more"}, wantCat: types.TicketFareDispute, wantRide: true},
		{name: "driver about ride", user: driver, in: TicketInput{RideID: &rideID, Category: types.TicketAppIssue, Description: "map froze"}, wantCat: types.TicketAppIssue, wantRide: true},
		{name: "stranger about ride", user: uuid.New(), in: TicketInput{RideID: &rideID, Description: "x"}, wantErr: types.ErrForbidden},
		{name: "unknown ride", user: customer, in: TicketInput{RideID: &missing, Description: "x"}, wantErr: types.ErrRideNotFound},
		{name: "empty description", user: customer, in: TicketInput{Description: "  "}, wantErr: types.ErrValidation},
		{name: "unknown category", user: customer, in: TicketInput{Category: "lost_item", Description: "x"}, wantErr: types.ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newService(rides)
			user := &models.User{ID: tc.user, Role: types.RoleCustomer}

			ticket, err := svc.CreateTicket(context.Background(), user, tc.in)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got %v want %v", err, tc.wantErr)
				}
				if len(repo.tickets) != 0 {
					t.Fatalf("ticket stored on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if ticket.Status != types.TicketOpen || ticket.Category != tc.wantCat {
				t.Fatalf("ticket: %+v", ticket)
			}
			if (ticket.Ride != nil) != tc.wantRide {
				t.Fatalf("ride summary: %+v", ticket.Ride)
			}
			if tc.wantRide && ticket.Ride.Fare != 80 {
				t.Fatalf("ride fare in summary: %d", ticket.Ride.Fare)
			}
		})
	}
}

func TestService_MyTicketsOnlyOwn(t *testing.T) {
	svc, _ := newService(rideMap{})
	ctx := context.Background()
	me := &models.User{ID: uuid.New(), Role: types.RoleRider}
	other := &models.User{ID: uuid.New(), Role: types.RoleCustomer}

	for _, d := range []string{"first", "second"} {
		if _, err := svc.CreateTicket(ctx, me, TicketInput{Description: d}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.CreateTicket(ctx, other, TicketInput{Description: "not mine"}); err != nil {
		t.Fatal(err)
	}

	tickets, err := svc.MyTickets(ctx, me)
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 2 || tickets[0].Description != "second" {
		t.Fatalf("tickets: %+v", tickets)
	}
}
