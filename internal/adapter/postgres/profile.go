package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepo reads profiles and keeps rating and ride counters up to date.
// Profiles themselves are written by the identity service.
type ProfileRepo struct {
	db      *pgxpool.Pool
	service string
}

func NewProfileRepo(db *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{db: db, service: string(types.RideService)}
}

func (r *ProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID) (p *models.Profile, err error) {
	defer observe(r.service, "profile_get")(&err)

	const q = `
		SELECT id, role, name, phone, rating, rating_count, total_rides,
		       acceptance_rate, cancellation_rate, vehicle
		FROM profiles
		WHERE id = $1;`

	var (
		profile models.Profile
		vehicle []byte
	)
	err = TxorDB(ctx, r.db).QueryRow(ctx, q, userID).Scan(
		&profile.ID, &profile.Role, &profile.Name, &profile.Phone, &profile.Rating, &profile.RatingCount,
		&profile.TotalRides, &profile.AcceptanceRate, &profile.CancellationRate, &vehicle,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("profile repo: GetProfile: %w", err)
	}

	if len(vehicle) > 0 {
		profile.Vehicle = &models.Vehicle{}
		if err := json.Unmarshal(vehicle, profile.Vehicle); err != nil {
			return nil, fmt.Errorf("profile repo: GetProfile: decode vehicle: %w", err)
		}
	}
	return &profile, nil
}

// ApplyRating folds one rating into the running average in a single statement.
func (r *ProfileRepo) ApplyRating(ctx context.Context, userID uuid.UUID, rating int) (err error) {
	defer observe(r.service, "profile_apply_rating")(&err)

	const q = `
		UPDATE profiles
		SET rating = (rating * rating_count + $2) / (rating_count + 1),
		    rating_count = rating_count + 1,
		    updated_at = now()
		WHERE id = $1;`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, userID, float64(rating))
	if err != nil {
		return fmt.Errorf("profile repo: ApplyRating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}
	return nil
}

func (r *ProfileRepo) IncrementTotalRides(ctx context.Context, userIDs ...uuid.UUID) (err error) {
	defer observe(r.service, "profile_increment_rides")(&err)

	const q = `
		UPDATE profiles
		SET total_rides = total_rides + 1,
		    updated_at = now()
		WHERE id = ANY($1);`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, q, userIDs); err != nil {
		return fmt.Errorf("profile repo: IncrementTotalRides: %w", err)
	}
	return nil
}
