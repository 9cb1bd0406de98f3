package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// offers loads offers of a ride in submission order.
func (r *RideRepo) offers(ctx context.Context, q Querier, rideID uuid.UUID) ([]models.Offer, error) {
	query := `
		SELECT id, ride_id, driver_id, driver, offered_fare, eta, distance_to_pickup,
		       status, counter_offers, created_at, updated_at
		FROM ride_offers
		WHERE ride_id = $1
		ORDER BY created_at, id;`

	rows, err := q.Query(ctx, query, rideID)
	if err != nil {
		return nil, fmt.Errorf("ride repo: offers: %w", err)
	}
	defer rows.Close()

	offers := []models.Offer{}
	for rows.Next() {
		var (
			o        models.Offer
			driver   []byte
			counters []byte
		)
		if err := rows.Scan(
			&o.ID, &o.RideID, &o.DriverID, &driver, &o.OfferedFare, &o.ETA, &o.DistanceToPickup,
			&o.Status, &counters, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ride repo: offers: scan: %w", err)
		}

		if len(driver) > 0 {
			o.Driver = &models.Profile{}
			if err := json.Unmarshal(driver, o.Driver); err != nil {
				return nil, fmt.Errorf("ride repo: offers: decode driver: %w", err)
			}
		}
		o.CounterOffers = []models.CounterOffer{}
		if len(counters) > 0 {
			if err := json.Unmarshal(counters, &o.CounterOffers); err != nil {
				return nil, fmt.Errorf("ride repo: offers: decode counters: %w", err)
			}
		}
		offers = append(offers, o)
	}

	return offers, rows.Err()
}

// upsertOffers writes every offer in one batch. Counter history is stored as a JSON array.
func (r *RideRepo) upsertOffers(ctx context.Context, q Querier, offers []models.Offer) error {
	if len(offers) == 0 {
		return nil
	}

	query := `
		INSERT INTO ride_offers (
			id, ride_id, driver_id, driver, offered_fare, eta, distance_to_pickup,
			status, counter_offers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			counter_offers = EXCLUDED.counter_offers,
			updated_at = EXCLUDED.updated_at;`

	batch := &pgx.Batch{}
	for _, o := range offers {
		driver, err := marshalNullable(o.Driver)
		if err != nil {
			return fmt.Errorf("ride repo: offers: encode driver: %w", err)
		}
		counters := o.CounterOffers
		if counters == nil {
			counters = []models.CounterOffer{}
		}
		history, err := json.Marshal(counters)
		if err != nil {
			return fmt.Errorf("ride repo: offers: encode counters: %w", err)
		}

		batch.Queue(query,
			o.ID, o.RideID, o.DriverID, driver, o.OfferedFare, o.ETA, o.DistanceToPickup,
			o.Status, history, o.CreatedAt, o.UpdatedAt,
		)
	}

	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("ride repo: upsert offers: %w", err)
	}
	return nil
}
