// Package negotiation holds offer and counter-offer rules of a single ride.
// Ledger methods mutate the ride in place and expect the caller to serialize access per ride.
package negotiation

import (
	"fmt"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
)

type Ledger struct {
	now func() time.Time
}

func New() *Ledger {
	return &Ledger{now: time.Now}
}

type OfferInput struct {
	DriverID         uuid.UUID
	Driver           *models.Profile
	OfferedFare      int
	ETA              int
	DistanceToPickup float64
}

type CounterInput struct {
	OfferID uuid.UUID
	ActorID uuid.UUID
	From    types.Party
	Amount  int
	Message string
}

// Submit adds a driver's offer. An open offer of the same driver is expired and replaced.
func (l *Ledger) Submit(r *models.Ride, in OfferInput) (*models.Offer, error) {
	if r.Status != types.StatusSearching {
		return nil, fmt.Errorf("%w: ride is not accepting offers", types.ErrInvalidState)
	}
	if in.OfferedFare <= 0 {
		return nil, types.ErrInvalidFare
	}
	if in.DriverID == r.CustomerID {
		return nil, types.ErrOwnRide
	}

	now := l.now()
	for i := range r.Offers {
		if r.Offers[i].DriverID == in.DriverID && r.Offers[i].Status.IsOpen() {
			r.Offers[i].Status = types.OfferExpired
			r.Offers[i].UpdatedAt = now
		}
	}

	r.Offers = append(r.Offers, models.Offer{
		ID:               uuid.New(),
		RideID:           r.ID,
		DriverID:         in.DriverID,
		Driver:           in.Driver,
		OfferedFare:      in.OfferedFare,
		ETA:              max(in.ETA, 0),
		DistanceToPickup: max(in.DistanceToPickup, 0),
		Status:           types.OfferPending,
		CounterOffers:    []models.CounterOffer{},
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	r.UpdatedAt = now

	return &r.Offers[len(r.Offers)-1], nil
}

// Counter appends a counter offer. The passenger side must own the ride,
// the driver side must own the offer. Rounds are not limited.
func (l *Ledger) Counter(r *models.Ride, in CounterInput) (*models.Offer, error) {
	if in.Amount <= 0 {
		return nil, types.ErrInvalidFare
	}

	offer, ok := r.OfferByID(in.OfferID)
	if !ok {
		return nil, types.ErrOfferNotFound
	}

	switch in.From {
	case types.PartyPassenger:
		if !r.IsCustomer(in.ActorID) {
			return nil, types.ErrNotRideOwner
		}
	case types.PartyDriver:
		if offer.DriverID != in.ActorID {
			return nil, types.ErrNotOfferOwner
		}
	default:
		return nil, fmt.Errorf("%w: unknown party %q", types.ErrValidation, in.From)
	}

	if r.Status != types.StatusSearching || !offer.Status.IsOpen() {
		return nil, types.ErrOfferUnavailable
	}

	now := l.now()
	offer.CounterOffers = append(offer.CounterOffers, models.CounterOffer{
		From:      in.From,
		Amount:    in.Amount,
		Message:   in.Message,
		CreatedAt: now,
	})
	offer.Status = types.OfferCountered
	offer.UpdatedAt = now
	r.UpdatedAt = now

	return offer, nil
}

// Accept marks the offer accepted, every sibling rejected and assigns the driver.
// Either all of it happens or nothing does.
func (l *Ledger) Accept(r *models.Ride, offerID, actorID uuid.UUID) (*models.Offer, error) {
	if !r.IsCustomer(actorID) {
		return nil, types.ErrNotRideOwner
	}

	offer, ok := r.OfferByID(offerID)
	if !ok {
		return nil, types.ErrOfferNotFound
	}
	if r.Status != types.StatusSearching || !offer.Status.IsOpen() {
		return nil, types.ErrOfferUnavailable
	}

	now := l.now()
	if err := r.Assign(offer.DriverID, now); err != nil {
		return nil, err
	}

	// siblings are closed for good, expired ones included
	for i := range r.Offers {
		if r.Offers[i].ID == offerID {
			r.Offers[i].Status = types.OfferAccepted
			r.Offers[i].UpdatedAt = now
			offer = &r.Offers[i]
			continue
		}
		if r.Offers[i].Status != types.OfferRejected {
			r.Offers[i].Status = types.OfferRejected
			r.Offers[i].UpdatedAt = now
		}
	}

	id := offer.ID
	r.AcceptedOfferID = &id
	// counters are history only, the ride is priced at the driver's bid
	r.Fare = offer.OfferedFare

	return offer, nil
}

// Reject closes a single offer, ride status is not affected.
func (l *Ledger) Reject(r *models.Ride, offerID, actorID uuid.UUID) (*models.Offer, error) {
	if !r.IsCustomer(actorID) {
		return nil, types.ErrNotRideOwner
	}

	offer, ok := r.OfferByID(offerID)
	if !ok {
		return nil, types.ErrOfferNotFound
	}
	if !offer.Status.IsOpen() {
		return nil, types.ErrOfferUnavailable
	}

	now := l.now()
	offer.Status = types.OfferRejected
	offer.UpdatedAt = now
	r.UpdatedAt = now

	return offer, nil
}

// AcceptedCount returns the number of accepted offers, never more than one for a consistent ride.
func AcceptedCount(r *models.Ride) int {
	n := 0
	for _, o := range r.Offers {
		if o.Status == types.OfferAccepted {
			n++
		}
	}
	return n
}
