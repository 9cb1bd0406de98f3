package models

import (
	"maps"
	"slices"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
)

// Ride is a ride request from a customer and everything negotiated around it
type Ride struct {
	ID              uuid.UUID         `json:"id"`
	CustomerID      uuid.UUID         `json:"customer_id"`
	RiderID         *uuid.UUID        `json:"rider_id"`
	Vehicle         types.VehicleType `json:"vehicle"`
	ServiceType     types.ServiceType `json:"service_type"`
	ServiceDetails  map[string]any    `json:"service_details,omitempty"`
	Pickup          Place             `json:"pickup"`
	Drop            Place             `json:"drop"`
	DistanceKm      float64           `json:"distance"`
	Fare            int               `json:"fare"`
	ProposedFare    int               `json:"proposed_fare"`
	RecommendedFare int               `json:"recommended_fare"`
	Status          types.RideStatus  `json:"status"`
	OTP             string            `json:"otp,omitempty"`
	Offers          []Offer           `json:"offers"`
	AcceptedOfferID *uuid.UUID        `json:"accepted_offer_id"`
	CustomerRating  *CustomerRating   `json:"customer_rating,omitempty"`
	RiderRating     *RiderRating      `json:"rider_rating,omitempty"`
	ShareLinks      []ShareLink       `json:"-"`
	SOSEvents       []SOSEvent        `json:"sos_events,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Offer is a driver's bid for a ride
type Offer struct {
	ID               uuid.UUID         `json:"id"`
	RideID           uuid.UUID         `json:"ride_id"`
	DriverID         uuid.UUID         `json:"driver_id"`
	Driver           *Profile          `json:"driver,omitempty"`
	OfferedFare      int               `json:"offered_fare"`
	ETA              int               `json:"eta"`
	DistanceToPickup float64           `json:"distance_to_pickup"`
	Status           types.OfferStatus `json:"status"`
	CounterOffers    []CounterOffer    `json:"counter_offers"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// CounterOffer is immutable, only appended to Offer.CounterOffers
type CounterOffer struct {
	From      types.Party `json:"from"`
	Amount    int         `json:"amount"`
	Message   string      `json:"message,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// CustomerRating is left by the customer for the driver
type CustomerRating struct {
	Rating  int      `json:"rating"`
	Tags    []string `json:"feedback_tags"`
	Comment string   `json:"comment"`
	Tip     int      `json:"tip"`
}

// RiderRating is left by the driver for the customer
type RiderRating struct {
	Rating  int      `json:"rating"`
	Tags    []string `json:"feedback_tags"`
	Comment string   `json:"comment"`
}

type ShareLink struct {
	ID         uuid.UUID `json:"id"`
	TokenHash  string    `json:"-"`
	SharedWith []string  `json:"shared_with"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type SOSEvent struct {
	TriggeredBy uuid.UUID    `json:"triggered_by"`
	Location    *Coordinates `json:"location"`
	CreatedAt   time.Time    `json:"created_at"`
}

// OfferByID returns pointer into r.Offers, so changes are applied to the ride.
func (r *Ride) OfferByID(id uuid.UUID) (*Offer, bool) {
	for i := range r.Offers {
		if r.Offers[i].ID == id {
			return &r.Offers[i], true
		}
	}
	return nil, false
}

func (r *Ride) IsCustomer(userID uuid.UUID) bool {
	return r.CustomerID == userID
}

func (r *Ride) IsRider(userID uuid.UUID) bool {
	return r.RiderID != nil && *r.RiderID == userID
}

func (r *Ride) IsParticipant(userID uuid.UUID) bool {
	return r.IsCustomer(userID) || r.IsRider(userID)
}

// Clone returns deep copy of the ride. Rides leave the service only as clones.
func (r *Ride) Clone() *Ride {
	if r == nil {
		return nil
	}

	c := *r
	c.RiderID = clonePtr(r.RiderID)
	c.AcceptedOfferID = clonePtr(r.AcceptedOfferID)
	c.ServiceDetails = maps.Clone(r.ServiceDetails)
	c.ShareLinks = slices.Clone(r.ShareLinks)
	c.SOSEvents = slices.Clone(r.SOSEvents)

	if r.CustomerRating != nil {
		cr := *r.CustomerRating
		cr.Tags = slices.Clone(cr.Tags)
		c.CustomerRating = &cr
	}
	if r.RiderRating != nil {
		rr := *r.RiderRating
		rr.Tags = slices.Clone(rr.Tags)
		c.RiderRating = &rr
	}

	c.Offers = make([]Offer, len(r.Offers))
	for i, o := range r.Offers {
		o.CounterOffers = slices.Clone(o.CounterOffers)
		if o.Driver != nil {
			d := *o.Driver
			o.Driver = &d
		}
		c.Offers[i] = o
	}

	return &c
}

// Redacted returns a copy safe to show to anybody except the customer: no OTP.
func (r *Ride) Redacted() *Ride {
	c := r.Clone()
	c.OTP = ""
	return c
}

// ViewFor returns the ride as userID may see it.
func (r *Ride) ViewFor(userID uuid.UUID) *Ride {
	if r.IsCustomer(userID) {
		return r.Clone()
	}
	return r.Redacted()
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
