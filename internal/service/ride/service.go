package ride

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/internal/service/geo"
	"github.com/Temutjin2k/ride-bidding/internal/service/negotiation"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/metrics"
	"github.com/Temutjin2k/ride-bidding/pkg/trm"
	"github.com/google/uuid"
)

const metricsLabel = string(types.RideService)

type Config struct {
	ShareBaseURL string
	ShareTTL     time.Duration
}

/*
Service owns the ride lifecycle: creation, negotiation, status machine,
ratings and safety features. Every mutation of a ride runs under the ride's lock
and inside one database transaction.
*/
type Service struct {
	repos    repos
	profiles Profiles
	ledger   *negotiation.Ledger

	publisher Publisher
	gateway   Gateway
	search    Searcher
	locator   Locator

	locks *lockMap
	trm   trm.TxManager
	cfg   Config

	now func() time.Time
	l   logger.Logger
}

type repos struct {
	ride    RideRepo
	profile ProfileRepo
	safety  SafetyRepo
}

func New(rideRepo RideRepo, profileRepo ProfileRepo, safetyRepo SafetyRepo, profiles Profiles, publisher Publisher, gateway Gateway, locator Locator, trm trm.TxManager, cfg Config, l logger.Logger) *Service {
	if cfg.ShareTTL <= 0 {
		cfg.ShareTTL = 120 * time.Minute
	}
	return &Service{
		repos: repos{
			ride:    rideRepo,
			profile: profileRepo,
			safety:  safetyRepo,
		},
		profiles:  profiles,
		ledger:    negotiation.New(),
		publisher: publisher,
		gateway:   gateway,
		locator:   locator,
		locks:     newLockMap(),
		trm:       trm,
		cfg:       cfg,
		now:       time.Now,
		l:         l,
	}
}

// UseSearch plugs in the search coordinator. The coordinator reads rides back through this service.
func (s *Service) UseSearch(search Searcher) {
	s.search = search
}

type CreateInput struct {
	Vehicle        types.VehicleType
	ServiceType    types.ServiceType
	ServiceDetails map[string]any
	Pickup         models.Place
	Drop           models.Place
	ProposedFare   float64
}

// Create stores a new ride in SEARCHING_FOR_RIDER with recommended fare and OTP.
func (s *Service) Create(ctx context.Context, user *models.User, in CreateInput) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "create_ride")

	if user.Role != types.RoleCustomer {
		return nil, wrap.Error(ctx, types.ErrForbidden)
	}
	if !IsKnownVehicle(in.Vehicle) {
		return nil, wrap.Error(ctx, types.ErrUnknownVehicle)
	}
	if err := validatePlace("pickup", in.Pickup); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := validatePlace("drop", in.Drop); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	proposed := int(math.Round(in.ProposedFare))
	if proposed <= 0 {
		return nil, wrap.Error(ctx, types.ErrInvalidFare)
	}

	distanceKm, err := geo.DistanceKm(in.Pickup.Coordinates(), in.Drop.Coordinates())
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	// fare is priced on the distance the rider is shown
	distanceKm = math.Round(distanceKm*10) / 10
	recommended, err := RecommendedFare(in.Vehicle, distanceKm)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	otp, err := generateOTP()
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	serviceType := in.ServiceType
	if serviceType == "" {
		serviceType = types.ServiceCity
	}

	now := s.now().UTC()
	ride := &models.Ride{
		ID:              uuid.New(),
		CustomerID:      user.ID,
		Vehicle:         in.Vehicle,
		ServiceType:     serviceType,
		ServiceDetails:  in.ServiceDetails,
		Pickup:          in.Pickup,
		Drop:            in.Drop,
		DistanceKm:      distanceKm,
		Fare:            proposed,
		ProposedFare:    proposed,
		RecommendedFare: recommended,
		Status:          types.StatusSearching,
		OTP:             otp,
		Offers:          []models.Offer{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	ctx = wrap.WithRideID(ctx, ride.ID.String())

	if err := s.repos.ride.Create(ctx, ride); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not create ride in repo: %w", err))
	}

	metrics.RidesTotal.WithLabelValues(metricsLabel, ride.Status.String()).Inc()
	s.publishStatus(ctx, types.EventRideRequested, ride, user.ID, "")
	s.l.Info(ctx, "ride created", "vehicle", ride.Vehicle, "distance_km", ride.DistanceKm, "recommended_fare", recommended)

	return ride.Clone(), nil
}

// Get returns the ride as user may see it. Riders may look at rides still searching for a driver.
func (s *Service) Get(ctx context.Context, user *models.User, rideID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithRideID(wrap.WithAction(ctx, "get_ride"), rideID.String())

	ride, err := s.repos.ride.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if !ride.IsParticipant(user.ID) {
		if user.Role != types.RoleRider || ride.Status != types.StatusSearching {
			return nil, wrap.Error(ctx, types.ErrForbidden)
		}
	}
	return ride.ViewFor(user.ID), nil
}

// ListMine lists rides of the user, newest first. Role decides whether user is matched as customer or rider.
func (s *Service) ListMine(ctx context.Context, user *models.User, filters models.RideFilters) ([]*models.Ride, models.Metadata, error) {
	ctx = wrap.WithAction(ctx, "list_rides")

	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, models.Metadata{}, wrap.Error(ctx, fmt.Errorf("%w: unknown status %q", types.ErrValidation, filters.Status))
	}

	var (
		rides []*models.Ride
		meta  models.Metadata
	)
	// rides and their offers are read in one snapshot
	err := s.trm.Do(trm.ReadOnly(ctx), func(ctx context.Context) (err error) {
		rides, meta, err = s.repos.ride.ListByUser(ctx, user.ID, user.Role, filters)
		return err
	})
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, err)
	}

	out := make([]*models.Ride, 0, len(rides))
	for _, r := range rides {
		out = append(out, r.ViewFor(user.ID))
	}
	return out, meta, nil
}

// StartSearch begins broadcasting the ride to nearby drivers.
func (s *Service) StartSearch(ctx context.Context, user *models.User, rideID uuid.UUID) error {
	ctx = wrap.WithRideID(wrap.WithAction(ctx, "search_rider"), rideID.String())

	if s.search == nil {
		return wrap.Error(ctx, errors.New("search is not configured"))
	}

	ride, err := s.repos.ride.Get(ctx, rideID)
	if err != nil {
		return wrap.Error(ctx, err)
	}
	if !ride.IsCustomer(user.ID) {
		return wrap.Error(ctx, types.ErrNotRideOwner)
	}
	if ride.Status != types.StatusSearching {
		return wrap.Error(ctx, fmt.Errorf("%w: ride is %s", types.ErrInvalidState, ride.Status))
	}

	if err := s.search.Start(ctx, rideID); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

// SearchSnapshot returns a copy of the ride while it is still searching.
func (s *Service) SearchSnapshot(ctx context.Context, rideID uuid.UUID) (*models.Ride, bool, error) {
	ride, err := s.repos.ride.Get(ctx, rideID)
	if errors.Is(err, types.ErrRideNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if ride.Status != types.StatusSearching {
		return nil, false, nil
	}
	return ride, true, nil
}

// ExpireSearch deletes the ride if nobody accepted it. Returns nil if the ride already moved on.
func (s *Service) ExpireSearch(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithRideID(wrap.WithAction(ctx, "expire_ride"), rideID.String())

	var expired *models.Ride
	err := s.mutate(ctx, rideID, func(ctx context.Context, ride *models.Ride) error {
		if ride.Status != types.StatusSearching {
			return nil
		}
		if err := s.repos.ride.Delete(ctx, rideID); err != nil {
			return fmt.Errorf("could not delete ride: %w", err)
		}
		expired = ride
		return nil
	})
	if errors.Is(err, types.ErrRideNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if expired != nil {
		s.publishStatus(ctx, types.EventRideExpired, expired, uuid.Nil, types.ErrNoCandidates.Error())
	}
	return expired, nil
}

// mutate loads the ride under its lock inside a transaction and runs fn on it.
// fn is responsible for saving.
func (s *Service) mutate(ctx context.Context, rideID uuid.UUID, fn func(ctx context.Context, ride *models.Ride) error) error {
	unlock := s.locks.Lock(rideID)
	defer unlock()

	return s.trm.Do(ctx, func(ctx context.Context) error {
		ride, err := s.repos.ride.GetForUpdate(ctx, rideID)
		if err != nil {
			return err
		}
		return fn(ctx, ride)
	})
}

func (s *Service) stopSearch(rideID uuid.UUID, reason string) {
	if s.search != nil {
		s.search.Stop(rideID, reason)
	}
}

// publishStatus sends the status event to the broker. Failure is logged, the ride change is already committed.
func (s *Service) publishStatus(ctx context.Context, event types.RideEvent, ride *models.Ride, actorID uuid.UUID, message string) {
	if s.publisher == nil {
		return
	}

	msg := models.NewRideStatusEvent(event, ride, actorID, s.now().UTC())
	msg.Message = message
	msg.CorrelationID = wrap.GetRequestID(ctx)

	if err := s.publisher.PublishRideStatus(ctx, msg); err != nil {
		s.l.Warn(ctx, "failed to publish ride status", "event_type", event, "error", err.Error())
	}
}

func validatePlace(name string, p models.Place) error {
	if strings.TrimSpace(p.Address) == "" {
		return fmt.Errorf("%w: %s address is required", types.ErrValidation, name)
	}
	if p.Latitude == 0 && p.Longitude == 0 {
		return fmt.Errorf("%w: %s coordinates are required", types.ErrValidation, name)
	}
	return geo.Validate(p.Coordinates())
}
