package ride

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/internal/service/geo"
	"github.com/Temutjin2k/ride-bidding/pkg/hasher"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/google/uuid"
)

// SharedTrip is returned once, the token is not stored in clear
type SharedTrip struct {
	Link  models.ShareLink `json:"link"`
	Token string           `json:"token"`
	URL   string           `json:"url"`
}

// TrackView is what a person with a share link sees
type TrackView struct {
	RideID        uuid.UUID           `json:"ride_id"`
	Status        types.RideStatus    `json:"status"`
	Vehicle       types.VehicleType   `json:"vehicle"`
	Pickup        models.Place        `json:"pickup"`
	Drop          models.Place        `json:"drop"`
	RiderID       *uuid.UUID          `json:"rider_id"`
	RiderLocation *models.Coordinates `json:"rider_location,omitempty"`
	LinkExpiresAt time.Time           `json:"link_expires_at"`
}

// Share creates a time limited public link to follow the trip.
func (s *Service) Share(ctx context.Context, user *models.User, rideID uuid.UUID, sharedWith []string, ttl time.Duration) (*SharedTrip, error) {
	ctx = wrap.WithRideID(wrap.WithAction(ctx, "share_trip"), rideID.String())

	ride, err := s.repos.ride.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !ride.IsCustomer(user.ID) {
		return nil, wrap.Error(ctx, types.ErrNotRideOwner)
	}
	if ride.Status == types.StatusCompleted {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: ride is completed", types.ErrInvalidState))
	}

	if ttl <= 0 {
		ttl = s.cfg.ShareTTL
	}

	token := rand.Text()
	now := s.now().UTC()
	link := models.ShareLink{
		ID:         uuid.New(),
		TokenHash:  hasher.Hash(token),
		SharedWith: sharedWith,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}

	if err := s.repos.safety.CreateShareLink(ctx, rideID, link); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not store share link: %w", err))
	}

	s.l.Info(ctx, "trip shared", "expires_at", link.ExpiresAt, "recipients", len(sharedWith))

	return &SharedTrip{
		Link:  link,
		Token: token,
		URL:   s.trackURL(rideID, token),
	}, nil
}

// Track resolves a share link. Expired and unknown links look the same.
func (s *Service) Track(ctx context.Context, rideID uuid.UUID, token string) (*TrackView, error) {
	ctx = wrap.WithRideID(wrap.WithAction(ctx, "track_trip"), rideID.String())

	if token == "" {
		return nil, wrap.Error(ctx, types.ErrShareLinkNotFound)
	}

	link, err := s.repos.safety.GetShareLink(ctx, rideID, hasher.Hash(token))
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !s.now().Before(link.ExpiresAt) {
		return nil, wrap.Error(ctx, types.ErrShareLinkNotFound)
	}

	ride, err := s.repos.ride.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	view := &TrackView{
		RideID:        ride.ID,
		Status:        ride.Status,
		Vehicle:       ride.Vehicle,
		Pickup:        ride.Pickup,
		Drop:          ride.Drop,
		RiderID:       ride.RiderID,
		LinkExpiresAt: link.ExpiresAt,
	}
	if ride.RiderID != nil && s.locator != nil {
		if loc, err := s.locator.Location(*ride.RiderID); err == nil {
			view.RiderLocation = &loc
		}
	}
	return view, nil
}

// SOS records an emergency signal and alerts everybody watching the ride.
func (s *Service) SOS(ctx context.Context, user *models.User, rideID uuid.UUID, location *models.Coordinates) (*models.SOSEvent, error) {
	ctx = wrap.WithRideID(wrap.WithAction(ctx, "sos"), rideID.String())

	if location != nil {
		if err := geo.Validate(*location); err != nil {
			return nil, wrap.Error(ctx, err)
		}
	}

	ride, err := s.repos.ride.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !ride.IsParticipant(user.ID) {
		return nil, wrap.Error(ctx, types.ErrForbidden)
	}

	event := models.SOSEvent{
		TriggeredBy: user.ID,
		Location:    location,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repos.safety.AddSOS(ctx, rideID, event); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not store sos: %w", err))
	}

	s.gateway.Publish(types.RideRoom(rideID), types.WSSOSAlert, map[string]any{
		"ride_id":      rideID,
		"triggered_by": user.ID,
		"location":     location,
		"created_at":   event.CreatedAt,
	})
	s.publishStatus(ctx, types.EventSOS, ride, user.ID, "sos triggered")
	s.l.Warn(ctx, "sos triggered", "triggered_by", user.ID.String(), "status", ride.Status)

	return &event, nil
}

func (s *Service) trackURL(rideID uuid.UUID, token string) string {
	base := strings.TrimRight(s.cfg.ShareBaseURL, "/")
	return base + "/track/" + rideID.String() + "?t=" + url.QueryEscape(token)
}
