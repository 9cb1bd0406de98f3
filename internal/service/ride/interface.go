package ride

import (
	"context"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
)

/*=====================Ride Repository============================*/

type RideRepo interface {
	// Create inserts the ride with its offers
	Create(ctx context.Context, ride *models.Ride) error
	// Get returns ride with offers, ErrRideNotFound if absent
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
	// GetForUpdate is Get that locks the ride row until the transaction ends
	GetForUpdate(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
	// Save updates ride columns and upserts its offers
	Save(ctx context.Context, ride *models.Ride) error
	Delete(ctx context.Context, rideID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, role types.UserRole, filters models.RideFilters) ([]*models.Ride, models.Metadata, error)
}

/*=====================Profile Repository=========================*/

type ProfileRepo interface {
	// ApplyRating updates the running average rating of userID
	ApplyRating(ctx context.Context, userID uuid.UUID, rating int) error
	IncrementTotalRides(ctx context.Context, userIDs ...uuid.UUID) error
}

// Profiles is the cached profile reader
type Profiles interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Invalidate(ctx context.Context, id uuid.UUID)
}

/*=====================Safety Repository==========================*/

type SafetyRepo interface {
	CreateShareLink(ctx context.Context, rideID uuid.UUID, link models.ShareLink) error
	// GetShareLink returns ErrShareLinkNotFound for unknown hashes
	GetShareLink(ctx context.Context, rideID uuid.UUID, tokenHash string) (*models.ShareLink, error)
	AddSOS(ctx context.Context, rideID uuid.UUID, event models.SOSEvent) error
}

/*========================Publisher===============================*/

type Publisher interface {
	PublishRideStatus(ctx context.Context, event models.RideStatusEvent) error
}

/*=========================Gateway================================*/

type Gateway interface {
	Publish(room, event string, data any) int
}

/*==========================Search================================*/

type Searcher interface {
	Start(ctx context.Context, rideID uuid.UUID) error
	Stop(rideID uuid.UUID, reason string) bool
}

// Locator returns the live position of an on-duty driver
type Locator interface {
	Location(driverID uuid.UUID) (models.Coordinates, error)
}
