package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RideEventRepo is the audit trail. Rows outlive the ride, there is no foreign key.
type RideEventRepo struct {
	db      *pgxpool.Pool
	service string
}

func NewRideEventRepo(db *pgxpool.Pool) *RideEventRepo {
	return &RideEventRepo{db: db, service: string(types.AuditService)}
}

// CreateEvent inserts a new ride event. Redelivered messages with the same id are ignored.
func (r *RideEventRepo) CreateEvent(ctx context.Context, eventID string, rideID uuid.UUID, eventType types.RideEvent, eventData json.RawMessage) (err error) {
	defer observe(r.service, "ride_event_create")(&err)

	const q = `
		INSERT INTO ride_events (message_id, ride_id, event_type, event_data)
		VALUES (NULLIF($1, ''), $2, $3, $4)
		ON CONFLICT (message_id) DO NOTHING;`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, q, eventID, rideID, eventType.String(), eventData); err != nil {
		return fmt.Errorf("%w: ride event repo: CreateEvent: %w", types.ErrDatabaseFailed, err)
	}
	return nil
}
