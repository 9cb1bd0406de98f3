package models

import (
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
)

// EmergencyContact is a person the user keeps for emergencies.
type EmergencyContact struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Relationship string    `json:"relationship"`
	CreatedAt    time.Time `json:"created_at"`
}

type SupportTicket struct {
	ID          uuid.UUID            `json:"id"`
	UserID      uuid.UUID            `json:"user_id"`
	RideID      *uuid.UUID           `json:"ride_id"`
	Ride        *TicketRide          `json:"ride,omitempty"`
	Category    types.TicketCategory `json:"category"`
	Description string               `json:"description"`
	Status      types.TicketStatus   `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// TicketRide is the short ride summary attached to a ticket. Nil once the ride is deleted.
type TicketRide struct {
	Pickup Place            `json:"pickup"`
	Drop   Place            `json:"drop"`
	Fare   int              `json:"fare"`
	Status types.RideStatus `json:"status"`
}
