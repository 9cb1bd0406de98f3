package ride

import (
	"context"
	"fmt"
	"slices"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/metrics"
	"github.com/google/uuid"
)

// AcceptRide is the first-come path: a driver takes the ride at its current fare.
func (s *Service) AcceptRide(ctx context.Context, driver *models.User, rideID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:   "accept_ride",
		RideID:   rideID.String(),
		DriverID: driver.ID.String(),
	})

	if driver.Role != types.RoleRider {
		return nil, wrap.Error(ctx, types.ErrForbidden)
	}

	var accepted *models.Ride
	err := s.mutate(ctx, rideID, func(ctx context.Context, ride *models.Ride) error {
		if err := ride.Assign(driver.ID, s.now().UTC()); err != nil {
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

	s.afterAccept(ctx, accepted, driver.ID)
	return accepted.ViewFor(driver.ID), nil
}

// UpdateStatus moves the ride one step forward. Only the assigned driver may do it.
// ARRIVED -> START goes through VerifyOTP.
func (s *Service) UpdateStatus(ctx context.Context, driver *models.User, rideID uuid.UUID, status types.RideStatus) (*models.Ride, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:   "update_ride_status",
		RideID:   rideID.String(),
		DriverID: driver.ID.String(),
	})

	return s.advance(ctx, driver, rideID, func(ride *models.Ride) error {
		return ride.Advance(status, s.now().UTC())
	})
}

// VerifyOTP starts the trip when the code given by the passenger matches.
func (s *Service) VerifyOTP(ctx context.Context, driver *models.User, rideID uuid.UUID, otp string) (*models.Ride, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:   "verify_otp",
		RideID:   rideID.String(),
		DriverID: driver.ID.String(),
	})

	return s.advance(ctx, driver, rideID, func(ride *models.Ride) error {
		return ride.StartWithOTP(otp, s.now().UTC())
	})
}

func (s *Service) advance(ctx context.Context, driver *models.User, rideID uuid.UUID, step func(ride *models.Ride) error) (*models.Ride, error) {
	var updated *models.Ride
	err := s.mutate(ctx, rideID, func(ctx context.Context, ride *models.Ride) error {
		if !ride.IsRider(driver.ID) {
			return types.ErrNotAssignedDriver
		}
		if err := step(ride); err != nil {
			return err
		}
		if err := s.repos.ride.Save(ctx, ride); err != nil {
			return fmt.Errorf("could not save ride: %w", err)
		}
		if ride.Status == types.StatusCompleted {
			if err := s.repos.profile.IncrementTotalRides(ctx, ride.CustomerID, driver.ID); err != nil {
				return fmt.Errorf("could not update total rides: %w", err)
			}
		}
		updated = ride
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if updated.Status == types.StatusCompleted {
		s.profiles.Invalidate(ctx, updated.CustomerID)
		s.profiles.Invalidate(ctx, driver.ID)
	}

	metrics.RidesTotal.WithLabelValues(metricsLabel, updated.Status.String()).Inc()
	s.gateway.Publish(types.RideRoom(updated.ID), types.WSRideUpdate, updated.Redacted())
	s.publishStatus(ctx, types.EventForStatus(updated.Status), updated, driver.ID, "")
	s.l.Info(ctx, "ride status updated", "status", updated.Status)

	return updated.ViewFor(driver.ID), nil
}

// Cancel deletes the ride. Only the customer, only before completion.
func (s *Service) Cancel(ctx context.Context, user *models.User, rideID uuid.UUID) error {
	ctx = wrap.WithRideID(wrap.WithAction(ctx, "cancel_ride"), rideID.String())

	var canceled *models.Ride
	err := s.mutate(ctx, rideID, func(ctx context.Context, ride *models.Ride) error {
		if !ride.IsCustomer(user.ID) {
			return types.ErrNotRideOwner
		}
		if err := ride.CanCancel(); err != nil {
			return err
		}
		if err := s.repos.ride.Delete(ctx, rideID); err != nil {
			return fmt.Errorf("could not delete ride: %w", err)
		}
		canceled = ride
		return nil
	})
	if err != nil {
		return wrap.Error(ctx, err)
	}

	s.stopSearch(rideID, "canceled")

	metrics.RidesTotal.WithLabelValues(metricsLabel, "CANCELED").Inc()
	s.gateway.Publish(types.RideRoom(rideID), types.WSRideCanceled, map[string]string{"message": "Ride canceled"})
	if canceled.RiderID != nil {
		s.gateway.Publish(types.UserRoom(*canceled.RiderID), types.WSRideCanceled, map[string]string{
			"message": "Customer canceled the ride",
			"ride_id": rideID.String(),
		})
	}
	s.publishStatus(ctx, types.EventRideCanceled, canceled, user.ID, "")
	s.l.Info(ctx, "ride canceled", "status", canceled.Status)

	return nil
}

type RateInput struct {
	Rating  int
	Tags    []string
	Comment string
	Tip     int
}

// Rate stores the rating of one party and updates the counterpart's running average.
func (s *Service) Rate(ctx context.Context, user *models.User, rideID uuid.UUID, in RateInput) (*models.Ride, error) {
	ctx = wrap.WithRideID(wrap.WithAction(ctx, "rate_ride"), rideID.String())

	if in.Rating < 1 || in.Rating > 5 {
		return nil, wrap.Error(ctx, types.ErrInvalidRating)
	}
	if in.Tip < 0 {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: tip must not be negative", types.ErrValidation))
	}

	var (
		rated     *models.Ride
		ratedUser uuid.UUID // counterpart
	)
	err := s.mutate(ctx, rideID, func(ctx context.Context, ride *models.Ride) error {
		if ride.Status != types.StatusCompleted {
			return fmt.Errorf("%w: ride must be completed to submit rating", types.ErrInvalidState)
		}

		switch {
		case ride.IsCustomer(user.ID):
			if ride.CustomerRating != nil {
				return types.ErrAlreadyRated
			}
			if ride.RiderID == nil {
				return fmt.Errorf("%w: ride has no assigned driver", types.ErrInvalidState)
			}
			ride.CustomerRating = &models.CustomerRating{
				Rating:  in.Rating,
				Tags:    slices.Clone(in.Tags),
				Comment: in.Comment,
				Tip:     in.Tip,
			}
			ratedUser = *ride.RiderID
		case ride.IsRider(user.ID):
			if ride.RiderRating != nil {
				return types.ErrAlreadyRated
			}
			ride.RiderRating = &models.RiderRating{
				Rating:  in.Rating,
				Tags:    slices.Clone(in.Tags),
				Comment: in.Comment,
			}
			ratedUser = ride.CustomerID
		default:
			return types.ErrForbidden
		}

		ride.UpdatedAt = s.now().UTC()
		if err := s.repos.ride.Save(ctx, ride); err != nil {
			return fmt.Errorf("could not save ride: %w", err)
		}
		if err := s.repos.profile.ApplyRating(ctx, ratedUser, in.Rating); err != nil {
			return fmt.Errorf("could not apply rating: %w", err)
		}
		rated = ride
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.profiles.Invalidate(ctx, ratedUser)
	s.publishStatus(ctx, types.EventRideRated, rated, user.ID, "")
	s.l.Info(ctx, "ride rated", "rating", in.Rating, "rated_user", ratedUser.String())

	return rated.ViewFor(user.ID), nil
}

// afterAccept runs the side effects of ACCEPTED, whichever path got there.
func (s *Service) afterAccept(ctx context.Context, ride *models.Ride, actorID uuid.UUID) {
	s.stopSearch(ride.ID, "accepted")

	metrics.RidesTotal.WithLabelValues(metricsLabel, ride.Status.String()).Inc()
	room := types.RideRoom(ride.ID)
	s.gateway.Publish(room, types.WSRideAccepted, map[string]string{"ride_id": ride.ID.String()})
	s.gateway.Publish(room, types.WSRideUpdate, ride.Redacted())
	s.publishStatus(ctx, types.EventRiderAssigned, ride, actorID, "")
	s.l.Info(ctx, "ride accepted", "rider_id", ride.RiderID.String(), "fare", ride.Fare)
}
