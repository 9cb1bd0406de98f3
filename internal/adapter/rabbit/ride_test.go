package rabbit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
)

func TestRoutingKey(t *testing.T) {
	tests := []struct {
		event  types.RideEvent
		status types.RideStatus
		want   string
	}{
		{types.EventRideRequested, types.StatusSearching, "ride.status.SEARCHING_FOR_RIDER"},
		{types.EventRiderAssigned, types.StatusAccepted, "ride.status.ACCEPTED"},
		{types.EventRideCompleted, types.StatusCompleted, "ride.status.COMPLETED"},
		{types.EventRideCanceled, types.StatusAccepted, "ride.status.RIDE_CANCELED"},
		{types.EventRideExpired, types.StatusSearching, "ride.status.RIDE_EXPIRED"},
		{types.EventSOS, types.StatusStart, "ride.status.SOS_TRIGGERED"},
	}

	for _, tt := range tests {
		got := RoutingKey(models.RideStatusEvent{EventType: tt.event, Status: tt.status})
		if got != tt.want {
			t.Errorf("%s/%s = %q, want %q", tt.event, tt.status, got, tt.want)
		}
	}
}

func TestRetry(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("busy")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls = 0
	err = retry(ctx, 5, time.Hour, func() error {
		calls++
		return errors.New("down")
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("canceled retry err = %v calls = %d", err, calls)
	}
}

func TestIsRecoverableError(t *testing.T) {
	if !isRecoverableError(fmt.Errorf("insert: %w", types.ErrDatabaseFailed)) {
		t.Error("database failure must be requeued")
	}
	if isRecoverableError(types.ErrValidation) {
		t.Error("validation failure must not be requeued")
	}
}
