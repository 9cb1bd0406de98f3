package wshandler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/adapter/http/ws/dto"
	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
)

/*=========================Driver=================================*/

func (r *Router) goOnDuty(ctx context.Context, s Session, user *models.User, data json.RawMessage) error {
	var in dto.Location
	if err := decode(data, &in); err != nil {
		return err
	}
	return r.presence.GoOnDuty(ctx, user.ID, s.ID(), in.Coordinates())
}

func (r *Router) goOffDuty(ctx context.Context, s Session, user *models.User, _ json.RawMessage) error {
	r.presence.GoOffDuty(ctx, user.ID, s.ID())
	return nil
}

func (r *Router) updateLocation(ctx context.Context, _ Session, user *models.User, data json.RawMessage) error {
	var in dto.Location
	if err := decode(data, &in); err != nil {
		return err
	}
	return r.presence.UpdateLocation(ctx, user.ID, in.Coordinates())
}

func (r *Router) makeOffer(ctx context.Context, _ Session, user *models.User, data json.RawMessage) error {
	var in dto.MakeOffer
	if err := decode(data, &in); err != nil {
		return err
	}
	_, err := r.rides.SubmitOffer(ctx, user, in.RideID, in.ToInput())
	return err
}

/*========================Passenger===============================*/

func (r *Router) subscribeToZone(ctx context.Context, s Session, _ *models.User, data json.RawMessage) error {
	var in dto.Location
	if err := decode(data, &in); err != nil {
		return err
	}
	return r.presence.SubscribeToZone(ctx, s, in.Coordinates())
}

func (r *Router) searchRider(ctx context.Context, s Session, user *models.User, data json.RawMessage) error {
	var in dto.RideRef
	if err := decode(data, &in); err != nil {
		return err
	}

	// the search loop reports to the ride room, the requester must be in it before start
	if _, err := r.rides.Get(ctx, user, in.RideID); err != nil {
		return err
	}
	if err := r.hub.Join(s.ID(), types.RideRoom(in.RideID)); err != nil {
		return err
	}
	return r.rides.StartSearch(ctx, user, in.RideID)
}

func (r *Router) cancelRide(ctx context.Context, _ Session, user *models.User, data json.RawMessage) error {
	var in dto.RideRef
	if err := decode(data, &in); err != nil {
		return err
	}
	return r.rides.Cancel(ctx, user, in.RideID)
}

/*==========================Both==================================*/

func (r *Router) counterOffer(ctx context.Context, _ Session, user *models.User, data json.RawMessage) error {
	var in dto.CounterOffer
	if err := decode(data, &in); err != nil {
		return err
	}
	_, err := r.rides.CounterOffer(ctx, user, in.RideID, in.OfferID, in.ToInput())
	return err
}

// subscribeRide joins the ride room and replies with the current ride state.
func (r *Router) subscribeRide(ctx context.Context, s Session, user *models.User, data json.RawMessage) error {
	var in dto.RideRef
	if err := decode(data, &in); err != nil {
		return err
	}

	ride, err := r.rides.Get(ctx, user, in.RideID)
	if err != nil {
		return err
	}
	if err := r.hub.Join(s.ID(), types.RideRoom(in.RideID)); err != nil {
		return err
	}
	return s.Send(types.WSRideData, ride)
}

// subscribeRiderLocation joins the driver's location room. Current position is sent right away when known.
func (r *Router) subscribeRiderLocation(ctx context.Context, s Session, _ *models.User, data json.RawMessage) error {
	var in dto.RiderRef
	if err := decode(data, &in); err != nil {
		return err
	}

	if err := r.hub.Join(s.ID(), types.RiderRoom(in.RiderID)); err != nil {
		return err
	}

	coords, err := r.presence.Location(in.RiderID)
	if errors.Is(err, types.ErrDriverNotOnDuty) {
		return nil
	}
	if err != nil {
		return err
	}

	r.l.Debug(wrap.WithDriverID(ctx, in.RiderID.String()), "sent last known location")
	return s.Send(types.WSRiderLocationUpdate, models.LocationPing{
		DriverID:  in.RiderID.String(),
		Coords:    coords,
		Timestamp: time.Now().UTC(),
	})
}
