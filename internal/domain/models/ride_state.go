package models

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
)

// ride status machine: SEARCHING_FOR_RIDER -> ACCEPTED -> ARRIVED -> START -> COMPLETED
var nextStatus = map[types.RideStatus]types.RideStatus{
	types.StatusSearching: types.StatusAccepted,
	types.StatusAccepted:  types.StatusArrived,
	types.StatusArrived:   types.StatusStart,
	types.StatusStart:     types.StatusCompleted,
}

// Assign moves a searching ride to ACCEPTED with driverID as rider.
// Every open offer of another driver is rejected.
func (r *Ride) Assign(driverID uuid.UUID, now time.Time) error {
	if r.Status != types.StatusSearching {
		return fmt.Errorf("%w: ride is %s", types.ErrInvalidState, r.Status)
	}
	if r.CustomerID == driverID {
		return types.ErrOwnRide
	}

	id := driverID
	r.RiderID = &id
	r.Status = types.StatusAccepted
	r.UpdatedAt = now

	for i := range r.Offers {
		if r.Offers[i].Status.IsOpen() {
			r.Offers[i].Status = types.OfferRejected
			r.Offers[i].UpdatedAt = now
		}
	}
	return nil
}

// Advance moves the ride one step forward. START is reachable only through StartWithOTP.
func (r *Ride) Advance(to types.RideStatus, now time.Time) error {
	if to == types.StatusStart {
		return types.ErrOTPRequired
	}
	return r.advance(to, now)
}

// StartWithOTP checks the code and moves ARRIVED -> START.
func (r *Ride) StartWithOTP(code string, now time.Time) error {
	if r.Status != types.StatusArrived {
		return fmt.Errorf("%w: ride is %s", types.ErrInvalidState, r.Status)
	}
	if r.OTP == "" || subtle.ConstantTimeCompare([]byte(r.OTP), []byte(code)) != 1 {
		return types.ErrInvalidOTP
	}
	return r.advance(types.StatusStart, now)
}

func (r *Ride) advance(to types.RideStatus, now time.Time) error {
	if !to.IsValid() || to == types.StatusSearching {
		return fmt.Errorf("%w: unknown status %q", types.ErrValidation, to)
	}
	if nextStatus[r.Status] != to || to == types.StatusAccepted {
		return fmt.Errorf("%w: cannot move from %s to %s", types.ErrInvalidState, r.Status, to)
	}
	if r.RiderID == nil {
		return fmt.Errorf("%w: ride has no rider", types.ErrInvalidState)
	}

	r.Status = to
	r.UpdatedAt = now
	return nil
}

// CanCancel reports whether the ride may still be canceled by its customer.
func (r *Ride) CanCancel() error {
	if r.Status == types.StatusCompleted {
		return fmt.Errorf("%w: completed rides cannot be canceled", types.ErrInvalidState)
	}
	return nil
}
