package ride

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/internal/service/negotiation"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/metrics"
	"github.com/google/uuid"
)

type OfferInput struct {
	OfferedFare      float64
	ETA              int
	DistanceToPickup float64
}

type CounterInput struct {
	Amount  float64
	Message string
}

// ListOffers returns every offer of the ride, visible to the ride owner only.
func (s *Service) ListOffers(ctx context.Context, user *models.User, rideID uuid.UUID) ([]models.Offer, error) {
	ctx = wrap.WithRideID(wrap.WithAction(ctx, "list_offers"), rideID.String())

	ride, err := s.repos.ride.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !ride.IsCustomer(user.ID) {
		return nil, wrap.Error(ctx, types.ErrNotRideOwner)
	}
	return ride.Clone().Offers, nil
}

// SubmitOffer records a driver's bid and pushes the updated offer list to the ride room.
func (s *Service) SubmitOffer(ctx context.Context, driver *models.User, rideID uuid.UUID, in OfferInput) (*models.Offer, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:   "make_offer",
		RideID:   rideID.String(),
		DriverID: driver.ID.String(),
	})

	if driver.Role != types.RoleRider {
		return nil, wrap.Error(ctx, types.ErrForbidden)
	}

	// профиль берём до лока, это чтение из кэша
	profile, err := s.profiles.Get(ctx, driver.ID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	var (
		offer  models.Offer
		offers []models.Offer
	)
	err = s.mutate(ctx, rideID, func(ctx context.Context, ride *models.Ride) error {
		o, err := s.ledger.Submit(ride, negotiation.OfferInput{
			DriverID:         driver.ID,
			Driver:           profile,
			OfferedFare:      int(math.Round(in.OfferedFare)),
			ETA:              in.ETA,
			DistanceToPickup: in.DistanceToPickup,
		})
		if err != nil {
			return err
		}
		offer = *o
		if err := s.repos.ride.Save(ctx, ride); err != nil {
			return fmt.Errorf("could not save offer: %w", err)
		}
		offers = ride.Clone().Offers
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ctx = wrap.WithOfferID(ctx, offer.ID.String())
	s.offersChanged(ctx, rideID, offers, "submitted")
	s.l.Info(ctx, "offer submitted", "offered_fare", offer.OfferedFare)

	return &offer, nil
}

// CounterOffer appends a counter offer. Party is derived from the caller's role.
func (s *Service) CounterOffer(ctx context.Context, user *models.User, rideID, offerID uuid.UUID, in CounterInput) (*models.Offer, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:  "counter_offer",
		RideID:  rideID.String(),
		OfferID: offerID.String(),
	})

	var from types.Party
	switch user.Role {
	case types.RoleCustomer:
		from = types.PartyPassenger
	case types.RoleRider:
		from = types.PartyDriver
	default:
		return nil, wrap.Error(ctx, types.ErrForbidden)
	}

	var (
		offer  models.Offer
		offers []models.Offer
	)
	err := s.mutate(ctx, rideID, func(ctx context.Context, ride *models.Ride) error {
		o, err := s.ledger.Counter(ride, negotiation.CounterInput{
			OfferID: offerID,
			ActorID: user.ID,
			From:    from,
			Amount:  int(math.Round(in.Amount)),
			Message: in.Message,
		})
		if err != nil {
			return err
		}
		offer = *o
		offer.CounterOffers = slices.Clone(o.CounterOffers)
		if err := s.repos.ride.Save(ctx, ride); err != nil {
			return fmt.Errorf("could not save counter offer: %w", err)
		}
		offers = ride.Clone().Offers
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.offersChanged(ctx, rideID, offers, "countered")
	s.l.Info(ctx, "counter offer sent", "from", from, "amount", int(math.Round(in.Amount)))

	return &offer, nil
}

// AcceptOffer closes the negotiation: the offer wins, every other offer is rejected, ride is ACCEPTED.
// A concurrent loser gets ErrOfferUnavailable.
func (s *Service) AcceptOffer(ctx context.Context, user *models.User, rideID, offerID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:  "accept_offer",
		RideID:  rideID.String(),
		OfferID: offerID.String(),
	})

	if user.Role != types.RoleCustomer {
		return nil, wrap.Error(ctx, types.ErrForbidden)
	}

	var accepted *models.Ride
	err := s.mutate(ctx, rideID, func(ctx context.Context, ride *models.Ride) error {
		if _, err := s.ledger.Accept(ride, offerID, user.ID); err != nil {
			return err
		}
		if err := s.repos.ride.Save(ctx, ride); err != nil {
			return fmt.Errorf("could not save ride: %w", err)
		}
		accepted = ride
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	metrics.OffersTotal.WithLabelValues(metricsLabel, "accepted").Inc()
	s.gateway.Publish(types.RideRoom(rideID), types.WSOfferUpdate, accepted.Clone().Offers)
	s.afterAccept(ctx, accepted, user.ID)

	return accepted.ViewFor(user.ID), nil
}

// RejectOffer closes one offer, the search goes on.
func (s *Service) RejectOffer(ctx context.Context, user *models.User, rideID, offerID uuid.UUID) (*models.Offer, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:  "reject_offer",
		RideID:  rideID.String(),
		OfferID: offerID.String(),
	})

	if user.Role != types.RoleCustomer {
		return nil, wrap.Error(ctx, types.ErrForbidden)
	}

	var (
		offer  models.Offer
		offers []models.Offer
	)
	err := s.mutate(ctx, rideID, func(ctx context.Context, ride *models.Ride) error {
		o, err := s.ledger.Reject(ride, offerID, user.ID)
		if err != nil {
			return err
		}
		offer = *o
		if err := s.repos.ride.Save(ctx, ride); err != nil {
			return fmt.Errorf("could not save ride: %w", err)
		}
		offers = ride.Clone().Offers
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.offersChanged(ctx, rideID, offers, "rejected")
	return &offer, nil
}

func (s *Service) offersChanged(ctx context.Context, rideID uuid.UUID, offers []models.Offer, result string) {
	metrics.OffersTotal.WithLabelValues(metricsLabel, result).Inc()
	s.gateway.Publish(types.RideRoom(rideID), types.WSOfferUpdate, offers)
	s.l.Debug(ctx, "offer update published", "offers", len(offers))
}
