package dto

import (
	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/service/ride"
	"github.com/Temutjin2k/ride-bidding/pkg/validator"
	"github.com/google/uuid"
)

// Location is payload of goOnDuty, updateLocation and subscribeToZone
type Location struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

func (l *Location) Validate(v *validator.Validator) {
	v.Struct(l)
}

func (l *Location) Coordinates() models.Coordinates {
	return models.Coordinates{Latitude: *l.Latitude, Longitude: *l.Longitude}
}

// RideRef is payload of searchRider, cancelRide and subscribeRide
type RideRef struct {
	RideID uuid.UUID `json:"ride_id" validate:"required"`
}

func (r *RideRef) Validate(v *validator.Validator) {
	v.Struct(r)
}

type MakeOffer struct {
	RideID           uuid.UUID `json:"ride_id" validate:"required"`
	OfferedFare      float64   `json:"offered_fare" validate:"gt=0"`
	ETA              int       `json:"eta" validate:"gte=0,lte=600"`
	DistanceToPickup float64   `json:"distance_to_pickup" validate:"gte=0"`
}

func (m *MakeOffer) Validate(v *validator.Validator) {
	v.Struct(m)
}

func (m *MakeOffer) ToInput() ride.OfferInput {
	return ride.OfferInput{
		OfferedFare:      m.OfferedFare,
		ETA:              m.ETA,
		DistanceToPickup: m.DistanceToPickup,
	}
}

type CounterOffer struct {
	RideID  uuid.UUID `json:"ride_id" validate:"required"`
	OfferID uuid.UUID `json:"offer_id" validate:"required"`
	Amount  float64   `json:"amount" validate:"gt=0"`
	Message string    `json:"message" validate:"max=255"`
}

func (c *CounterOffer) Validate(v *validator.Validator) {
	v.Struct(c)
}

func (c *CounterOffer) ToInput() ride.CounterInput {
	return ride.CounterInput{
		Amount:  c.Amount,
		Message: c.Message,
	}
}

type RiderRef struct {
	RiderID uuid.UUID `json:"rider_id" validate:"required"`
}

func (r *RiderRef) Validate(v *validator.Validator) {
	v.Struct(r)
}

// Error is sent as "error" event, the socket stays open
type Error struct {
	Message string            `json:"message"`
	Event   string            `json:"event,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
