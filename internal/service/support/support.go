// Package support keeps emergency contacts of users and their support tickets.
package support

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/google/uuid"
)

type Repo interface {
	ListContacts(ctx context.Context, userID uuid.UUID) ([]models.EmergencyContact, error)
	AddContact(ctx context.Context, c models.EmergencyContact) error
	// DeleteContact returns ErrContactNotFound when the contact is not the user's
	DeleteContact(ctx context.Context, userID, contactID uuid.UUID) error

	CreateTicket(ctx context.Context, t *models.SupportTicket) error
	ListTickets(ctx context.Context, userID uuid.UUID) ([]*models.SupportTicket, error)
}

// Rides returns ErrRideNotFound for unknown ids
type Rides interface {
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
}

type Service struct {
	repo  Repo
	rides Rides
	now   func() time.Time
	l     logger.Logger
}

func New(repo Repo, rides Rides, l logger.Logger) *Service {
	return &Service{repo: repo, rides: rides, now: time.Now, l: l}
}

type ContactInput struct {
	Name         string
	Phone        string
	Relationship string
}

type TicketInput struct {
	RideID      *uuid.UUID
	Category    types.TicketCategory
	Description string
}

func (s *Service) Contacts(ctx context.Context, user *models.User) ([]models.EmergencyContact, error) {
	ctx = wrap.WithUserID(wrap.WithAction(ctx, "list_contacts"), user.ID.String())

	contacts, err := s.repo.ListContacts(ctx, user.ID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return contacts, nil
}

// AddContact stores a contact and returns the whole list of the user.
func (s *Service) AddContact(ctx context.Context, user *models.User, in ContactInput) ([]models.EmergencyContact, error) {
	ctx = wrap.WithUserID(wrap.WithAction(ctx, "add_contact"), user.ID.String())

	in.Name, in.Phone = strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Phone == "" {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: name and phone are required", types.ErrValidation))
	}

	contact := models.EmergencyContact{
		ID:           uuid.New(),
		UserID:       user.ID,
		Name:         in.Name,
		Phone:        in.Phone,
		Relationship: strings.TrimSpace(in.Relationship),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.AddContact(ctx, contact); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.l.Info(ctx, "emergency contact added", "contact_id", contact.ID.String())
	return s.Contacts(ctx, user)
}

// RemoveContact deletes one of the user's contacts and returns what is left.
func (s *Service) RemoveContact(ctx context.Context, user *models.User, contactID uuid.UUID) ([]models.EmergencyContact, error) {
	ctx = wrap.WithUserID(wrap.WithAction(ctx, "remove_contact"), user.ID.String())

	if err := s.repo.DeleteContact(ctx, user.ID, contactID); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.l.Info(ctx, "emergency contact removed", "contact_id", contactID.String())
	return s.Contacts(ctx, user)
}

// CreateTicket opens a ticket. A ticket about a ride may be filed only by its participants.
func (s *Service) CreateTicket(ctx context.Context, user *models.User, in TicketInput) (*models.SupportTicket, error) {
	ctx = wrap.WithUserID(wrap.WithAction(ctx, "create_ticket"), user.ID.String())

	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: description is required", types.ErrValidation))
	}
	if in.Category == "" {
		in.Category = types.TicketOther
	}
	if !in.Category.IsValid() {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: unknown category %q", types.ErrValidation, in.Category))
	}

	var summary *models.TicketRide
	if in.RideID != nil {
		ctx = wrap.WithRideID(ctx, in.RideID.String())

		ride, err := s.rides.Get(ctx, *in.RideID)
		if err != nil {
			return nil, wrap.Error(ctx, err)
		}
		if !ride.IsParticipant(user.ID) {
			return nil, wrap.Error(ctx, types.ErrForbidden)
		}
		summary = &models.TicketRide{Pickup: ride.Pickup, Drop: ride.Drop, Fare: ride.Fare, Status: ride.Status}
	}

	now := s.now().UTC()
	ticket := &models.SupportTicket{
		ID:          uuid.New(),
		UserID:      user.ID,
		RideID:      in.RideID,
		Category:    in.Category,
		Description: in.Description,
		Status:      types.TicketOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateTicket(ctx, ticket); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	ticket.Ride = summary

	s.l.Info(ctx, "support ticket created", "ticket_id", ticket.ID.String(), "category", string(ticket.Category))
	return ticket, nil
}

// MyTickets lists the user's tickets, newest first.
func (s *Service) MyTickets(ctx context.Context, user *models.User) ([]*models.SupportTicket, error) {
	ctx = wrap.WithUserID(wrap.WithAction(ctx, "list_tickets"), user.ID.String())

	tickets, err := s.repo.ListTickets(ctx, user.ID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return tickets, nil
}
