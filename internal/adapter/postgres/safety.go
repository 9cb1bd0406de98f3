package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SafetyRepo struct {
	db      *pgxpool.Pool
	service string
}

func NewSafetyRepo(db *pgxpool.Pool) *SafetyRepo {
	return &SafetyRepo{db: db, service: string(types.RideService)}
}

func (r *SafetyRepo) CreateShareLink(ctx context.Context, rideID uuid.UUID, link models.ShareLink) (err error) {
	defer observe(r.service, "share_link_create")(&err)

	const q = `
		INSERT INTO share_links (id, ride_id, token_hash, shared_with, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);`

	sharedWith := link.SharedWith
	if sharedWith == nil {
		sharedWith = []string{}
	}

	_, err = TxorDB(ctx, r.db).Exec(ctx, q, link.ID, rideID, link.TokenHash, sharedWith, link.ExpiresAt, link.CreatedAt)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return types.ErrRideNotFound
		}
		return fmt.Errorf("safety repo: CreateShareLink: %w", err)
	}
	return nil
}

func (r *SafetyRepo) GetShareLink(ctx context.Context, rideID uuid.UUID, tokenHash string) (link *models.ShareLink, err error) {
	defer observe(r.service, "share_link_get")(&err)

	const q = `
		SELECT id, token_hash, shared_with, expires_at, created_at
		FROM share_links
		WHERE ride_id = $1 AND token_hash = $2;`

	var l models.ShareLink
	err = TxorDB(ctx, r.db).QueryRow(ctx, q, rideID, tokenHash).Scan(
		&l.ID, &l.TokenHash, &l.SharedWith, &l.ExpiresAt, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrShareLinkNotFound
		}
		return nil, fmt.Errorf("safety repo: GetShareLink: %w", err)
	}
	return &l, nil
}

func (r *SafetyRepo) AddSOS(ctx context.Context, rideID uuid.UUID, event models.SOSEvent) (err error) {
	defer observe(r.service, "sos_create")(&err)

	const q = `
		INSERT INTO sos_events (ride_id, triggered_by, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5);`

	var lat, lng *float64
	if event.Location != nil {
		lat, lng = &event.Location.Latitude, &event.Location.Longitude
	}

	_, err = TxorDB(ctx, r.db).Exec(ctx, q, rideID, event.TriggeredBy, lat, lng, event.CreatedAt)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return types.ErrRideNotFound
		}
		return fmt.Errorf("safety repo: AddSOS: %w", err)
	}
	return nil
}

func sosEvents(ctx context.Context, q Querier, rideID uuid.UUID) ([]models.SOSEvent, error) {
	const query = `
		SELECT triggered_by, latitude, longitude, created_at
		FROM sos_events
		WHERE ride_id = $1
		ORDER BY created_at;`

	rows, err := q.Query(ctx, query, rideID)
	if err != nil {
		return nil, fmt.Errorf("safety repo: sos events: %w", err)
	}
	defer rows.Close()

	var events []models.SOSEvent
	for rows.Next() {
		var (
			e        models.SOSEvent
			lat, lng *float64
		)
		if err := rows.Scan(&e.TriggeredBy, &lat, &lng, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("safety repo: sos events: scan: %w", err)
		}
		if lat != nil && lng != nil {
			e.Location = &models.Coordinates{Latitude: *lat, Longitude: *lng}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
