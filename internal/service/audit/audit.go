package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/google/uuid"
)

type EventRepo interface {
	CreateEvent(ctx context.Context, eventID string, rideID uuid.UUID, eventType types.RideEvent, eventData json.RawMessage) error
}

// Service writes every ride status event into the audit trail.
type Service struct {
	repo EventRepo
	l    logger.Logger
}

func New(repo EventRepo, l logger.Logger) *Service {
	return &Service{repo: repo, l: l}
}

// Record stores the event. Malformed events are rejected with ErrValidation and must not be retried.
func (s *Service) Record(ctx context.Context, id string, event models.RideStatusEvent, raw json.RawMessage) error {
	ctx = wrap.WithAction(ctx, "audit_record")

	if event.RideID == uuid.Nil {
		return wrap.Error(ctx, fmt.Errorf("%w: event without ride id", types.ErrValidation))
	}
	if event.EventType == "" {
		return wrap.Error(ctx, fmt.Errorf("%w: event without type", types.ErrValidation))
	}

	if err := s.repo.CreateEvent(ctx, id, event.RideID, event.EventType, raw); err != nil {
		return wrap.Error(ctx, err)
	}

	s.l.Debug(ctx, "ride event stored", "event_type", event.EventType, "status", event.Status)
	return nil
}
