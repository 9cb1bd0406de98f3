package models

import (
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
)

// RideStatusEvent - RabbitMQ message: ride_topic exchange, key ride.status.{event}
type RideStatusEvent struct {
	EventType     types.RideEvent  `json:"event_type"`
	RideID        uuid.UUID        `json:"ride_id"`
	CustomerID    uuid.UUID        `json:"customer_id"`
	RiderID       *uuid.UUID       `json:"rider_id,omitempty"`
	Status        types.RideStatus `json:"status,omitempty"`
	Fare          int              `json:"fare"`
	ActorID       uuid.UUID        `json:"actor_id"`
	Message       string           `json:"message,omitempty"`
	CorrelationID string           `json:"correlation_id,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// NewRideStatusEvent builds an event from the current ride state.
func NewRideStatusEvent(event types.RideEvent, ride *Ride, actorID uuid.UUID, now time.Time) RideStatusEvent {
	return RideStatusEvent{
		EventType:  event,
		RideID:     ride.ID,
		CustomerID: ride.CustomerID,
		RiderID:    clonePtr(ride.RiderID),
		Status:     ride.Status,
		Fare:       ride.Fare,
		ActorID:    actorID,
		Timestamp:  now,
	}
}
