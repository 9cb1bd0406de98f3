package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	"github.com/google/uuid"
)

type stored struct {
	id     string
	rideID uuid.UUID
	event  types.RideEvent
}

type memEvents struct {
	rows []stored
	err  error
}

func (m *memEvents) CreateEvent(_ context.Context, id string, rideID uuid.UUID, event types.RideEvent, _ json.RawMessage) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, stored{id, rideID, event})
	return nil
}

func TestRecord(t *testing.T) {
	repo := &memEvents{}
	s := New(repo, logger.Nop())
	rideID := uuid.New()

	event := models.RideStatusEvent{EventType: types.EventRideCanceled, RideID: rideID}
	if err := s.Record(context.Background(), "m-1", event, json.RawMessage(`{}`)); err != nil {
		t.Fatal(err)
	}
	if len(repo.rows) != 1 || repo.rows[0].rideID != rideID || repo.rows[0].event != types.EventRideCanceled {
		t.Fatalf("rows = %+v", repo.rows)
	}

	if err := s.Record(context.Background(), "m-2", models.RideStatusEvent{EventType: types.EventSOS}, nil); !errors.Is(err, types.ErrValidation) {
		t.Errorf("missing ride id err = %v, want ErrValidation", err)
	}
}

func TestRecord_RepoFailureIsRecoverable(t *testing.T) {
	repo := &memEvents{err: types.ErrDatabaseFailed}
	s := New(repo, logger.Nop())

	err := s.Record(context.Background(), "m-1", models.RideStatusEvent{EventType: types.EventRideStarted, RideID: uuid.New()}, nil)
	if !errors.Is(err, types.ErrDatabaseFailed) {
		t.Fatalf("err = %v, want ErrDatabaseFailed", err)
	}
}
