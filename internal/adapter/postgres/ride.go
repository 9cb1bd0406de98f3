package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
)

type RideRepo struct {
	db      *pgxpool.Pool
	service string
}

func NewRideRepo(db *pgxpool.Pool) *RideRepo {
	return &RideRepo{db: db, service: string(types.RideService)}
}

const rideColumns = `
	r.id, r.customer_id, r.rider_id, r.vehicle, r.service_type, r.service_details,
	r.pickup_address, r.pickup_lat, r.pickup_lng,
	r.drop_address, r.drop_lat, r.drop_lng,
	r.distance_km, r.fare, r.proposed_fare, r.recommended_fare,
	r.status, r.otp, r.accepted_offer_id, r.customer_rating, r.rider_rating,
	r.created_at, r.updated_at`

func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) (err error) {
	defer observe(r.service, "ride_create")(&err)
	q := TxorDB(ctx, r.db)

	details, err := json.Marshal(ride.ServiceDetails)
	if err != nil {
		return fmt.Errorf("ride repo: Create: marshal service details: %w", err)
	}

	query := `
		INSERT INTO rides (
			id, customer_id, rider_id, vehicle, service_type, service_details,
			pickup_address, pickup_lat, pickup_lng,
			drop_address, drop_lat, drop_lng,
			distance_km, fare, proposed_fare, recommended_fare,
			status, otp, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);`

	_, err = q.Exec(ctx, query,
		ride.ID, ride.CustomerID, ride.RiderID, ride.Vehicle, ride.ServiceType, details,
		ride.Pickup.Address, ride.Pickup.Latitude, ride.Pickup.Longitude,
		ride.Drop.Address, ride.Drop.Latitude, ride.Drop.Longitude,
		ride.DistanceKm, ride.Fare, ride.ProposedFare, ride.RecommendedFare,
		ride.Status, ride.OTP, ride.CreatedAt, ride.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ride repo: Create: %w", err)
	}

	return r.upsertOffers(ctx, q, ride.Offers)
}

func (r *RideRepo) Get(ctx context.Context, rideID uuid.UUID) (ride *models.Ride, err error) {
	defer observe(r.service, "ride_get")(&err)
	return r.get(ctx, rideID, "")
}

// GetForUpdate locks the ride row, it must run inside trm.Do.
func (r *RideRepo) GetForUpdate(ctx context.Context, rideID uuid.UUID) (ride *models.Ride, err error) {
	defer observe(r.service, "ride_get_for_update")(&err)
	return r.get(ctx, rideID, "FOR UPDATE")
}

func (r *RideRepo) get(ctx context.Context, rideID uuid.UUID, lock string) (*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT ` + rideColumns + ` FROM rides r WHERE r.id = $1 ` + lock + `;`

	ride, err := scanRide(q.QueryRow(ctx, query, rideID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("ride repo: Get: %w", err)
	}

	if ride.Offers, err = r.offers(ctx, q, rideID); err != nil {
		return nil, err
	}
	if ride.SOSEvents, err = sosEvents(ctx, q, rideID); err != nil {
		return nil, err
	}
	return ride, nil
}

// Save writes mutable ride columns and upserts offers. Offers are never deleted one by one.
func (r *RideRepo) Save(ctx context.Context, ride *models.Ride) (err error) {
	defer observe(r.service, "ride_save")(&err)
	q := TxorDB(ctx, r.db)

	customerRating, err := marshalNullable(ride.CustomerRating)
	if err != nil {
		return fmt.Errorf("ride repo: Save: %w", err)
	}
	riderRating, err := marshalNullable(ride.RiderRating)
	if err != nil {
		return fmt.Errorf("ride repo: Save: %w", err)
	}

	query := `
		UPDATE rides
		SET
			rider_id = $2,
			status = $3,
			fare = $4,
			accepted_offer_id = $5,
			customer_rating = $6,
			rider_rating = $7,
			updated_at = $8
		WHERE id = $1;`

	tag, err := q.Exec(ctx, query,
		ride.ID,
		ride.RiderID,
		ride.Status,
		ride.Fare,
		ride.AcceptedOfferID,
		customerRating,
		riderRating,
		ride.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ride repo: Save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRideNotFound
	}

	return r.upsertOffers(ctx, q, ride.Offers)
}

// Delete removes the ride, offers and safety rows go with it (ON DELETE CASCADE).
func (r *RideRepo) Delete(ctx context.Context, rideID uuid.UUID) (err error) {
	defer observe(r.service, "ride_delete")(&err)

	tag, err := TxorDB(ctx, r.db).Exec(ctx, `DELETE FROM rides WHERE id = $1;`, rideID)
	if err != nil {
		return fmt.Errorf("ride repo: Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRideNotFound
	}
	return nil
}

// ListByUser returns rides where the user is customer (customer role) or assigned driver (rider role).
func (r *RideRepo) ListByUser(ctx context.Context, userID uuid.UUID, role types.UserRole, filters models.RideFilters) (rides []*models.Ride, meta models.Metadata, err error) {
	defer observe(r.service, "ride_list")(&err)
	q := TxorDB(ctx, r.db)

	column := "r.customer_id"
	if role == types.RoleRider {
		column = "r.rider_id"
	}

	query := `
		SELECT count(*) OVER(), ` + rideColumns + `
		FROM rides r
		WHERE ` + column + ` = $1
		  AND ($2 = '' OR r.status = $2)
		ORDER BY r.created_at DESC
		LIMIT $3 OFFSET $4;`

	rows, err := q.Query(ctx, query, userID, string(filters.Status), filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("ride repo: ListByUser: %w", err)
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		ride, err := scanRide(rows, &total)
		if err != nil {
			return nil, models.Metadata{}, fmt.Errorf("ride repo: ListByUser: scan: %w", err)
		}
		rides = append(rides, ride)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("ride repo: ListByUser: %w", err)
	}

	for _, ride := range rides {
		if ride.Offers, err = r.offers(ctx, q, ride.ID); err != nil {
			return nil, models.Metadata{}, err
		}
	}

	return rides, models.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}

// scanRide reads rideColumns, prefix receives leading columns such as count(*) OVER().
func scanRide(row pgx.Row, prefix ...any) (*models.Ride, error) {
	var (
		ride           models.Ride
		details        []byte
		customerRating []byte
		riderRating    []byte
	)

	dest := append(prefix,
		&ride.ID, &ride.CustomerID, &ride.RiderID, &ride.Vehicle, &ride.ServiceType, &details,
		&ride.Pickup.Address, &ride.Pickup.Latitude, &ride.Pickup.Longitude,
		&ride.Drop.Address, &ride.Drop.Latitude, &ride.Drop.Longitude,
		&ride.DistanceKm, &ride.Fare, &ride.ProposedFare, &ride.RecommendedFare,
		&ride.Status, &ride.OTP, &ride.AcceptedOfferID, &customerRating, &riderRating,
		&ride.CreatedAt, &ride.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if len(details) > 0 {
		if err := json.Unmarshal(details, &ride.ServiceDetails); err != nil {
			return nil, fmt.Errorf("decode service details: %w", err)
		}
	}
	if len(customerRating) > 0 {
		ride.CustomerRating = &models.CustomerRating{}
		if err := json.Unmarshal(customerRating, ride.CustomerRating); err != nil {
			return nil, fmt.Errorf("decode customer rating: %w", err)
		}
	}
	if len(riderRating) > 0 {
		ride.RiderRating = &models.RiderRating{}
		if err := json.Unmarshal(riderRating, ride.RiderRating); err != nil {
			return nil, fmt.Errorf("decode rider rating: %w", err)
		}
	}

	ride.Offers = []models.Offer{}
	return &ride, nil
}

func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
