package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/metrics"
	ws "github.com/Temutjin2k/ride-bidding/pkg/wsHub"
	"github.com/google/uuid"
)

// ZoneKey is the client value holding coordinates a passenger watches.
const ZoneKey = "zone"

const metricsLabel = string(types.RideService)

type ProfileProvider interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type Gateway interface {
	Join(connID, room string) error
	Leave(connID, room string)
	Publish(room, event string, data any) int
	SendTo(connID, event string, data any) error
	Broadcast(build func(c ws.Client) (event string, data any, ok bool)) int
}

// LocationStream mirrors accepted pings to analytics. Optional.
type LocationStream interface {
	PublishLocation(ctx context.Context, ping models.LocationPing) error
}

type Service struct {
	registry *Registry
	profiles ProfileProvider
	gateway  Gateway
	stream   LocationStream
	radius   float64

	now func() time.Time
	l   logger.Logger
}

func NewService(registry *Registry, profiles ProfileProvider, gateway Gateway, stream LocationStream, radius float64, l logger.Logger) *Service {
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}
	return &Service{
		registry: registry,
		profiles: profiles,
		gateway:  gateway,
		stream:   stream,
		radius:   radius,
		now:      time.Now,
		l:        l,
	}
}

// GoOnDuty registers the driver with a profile snapshot and joins the duty room.
func (s *Service) GoOnDuty(ctx context.Context, driverID uuid.UUID, connID string, coords models.Coordinates) error {
	ctx = wrap.WithDriverID(wrap.WithAction(ctx, "go_on_duty"), driverID.String())

	profile, err := s.profiles.Get(ctx, driverID)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	if err := s.registry.SetOnDuty(driverID, coords, connID, *profile); err != nil {
		return wrap.Error(ctx, err)
	}
	if err := s.gateway.Join(connID, types.RoomOnDuty); err != nil {
		s.l.Warn(ctx, "failed to join duty room", "error", err.Error())
	}

	s.reportOnline()
	s.l.Info(ctx, "driver is on duty", "lat", coords.Latitude, "lng", coords.Longitude)

	s.RefreshNearby(ctx)
	return nil
}

// GoOffDuty ends the session opened by connID. A request from an older socket
// of the same driver leaves the newer session on duty.
func (s *Service) GoOffDuty(ctx context.Context, driverID uuid.UUID, connID string) {
	ctx = wrap.WithDriverID(wrap.WithAction(ctx, "go_off_duty"), driverID.String())

	s.gateway.Leave(connID, types.RoomOnDuty)
	if !s.registry.Remove(driverID, connID) {
		s.l.Debug(ctx, "off duty request ignored, no session for connection", "conn_id", connID)
		return
	}

	s.reportOnline()
	s.l.Info(ctx, "driver is off duty")

	s.RefreshNearby(ctx)
}

// Disconnect drops presence only if it belongs to the closed connection.
func (s *Service) Disconnect(ctx context.Context, driverID uuid.UUID, connID string) {
	if !s.registry.Remove(driverID, connID) {
		return
	}

	ctx = wrap.WithDriverID(wrap.WithAction(ctx, "driver_disconnect"), driverID.String())
	s.reportOnline()
	s.l.Info(ctx, "driver went offline on disconnect")

	s.RefreshNearby(ctx)
}

// UpdateLocation stores the ping and fans it out to location subscribers.
func (s *Service) UpdateLocation(ctx context.Context, driverID uuid.UUID, coords models.Coordinates) error {
	ctx = wrap.WithDriverID(wrap.WithAction(ctx, "update_location"), driverID.String())

	if err := s.registry.UpdatePosition(driverID, coords); err != nil {
		return wrap.Error(ctx, err)
	}

	ping := models.LocationPing{
		DriverID:  driverID.String(),
		Coords:    coords,
		Timestamp: s.now().UTC(),
	}
	s.gateway.Publish(types.RiderRoom(driverID), types.WSRiderLocationUpdate, ping)

	if s.stream != nil {
		if err := s.stream.PublishLocation(ctx, ping); err != nil {
			s.l.Warn(ctx, "failed to mirror location", "error", err.Error())
		}
	}

	s.RefreshNearby(ctx)
	return nil
}

// Nearby returns on-duty drivers around origin, nearest first.
func (s *Service) Nearby(ctx context.Context, origin models.Coordinates) ([]models.NearbyDriver, error) {
	drivers, err := s.registry.QueryWithinRadius(origin, s.radius)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return drivers, nil
}

// Candidates is the search view of Nearby
func (s *Service) Candidates(ctx context.Context, origin models.Coordinates) ([]models.NearbyDriver, error) {
	return s.Nearby(ctx, origin)
}

// Location returns the last known driver position.
func (s *Service) Location(driverID uuid.UUID) (models.Coordinates, error) {
	p, ok := s.registry.Get(driverID)
	if !ok {
		return models.Coordinates{}, types.ErrDriverNotOnDuty
	}
	return p.Coords, nil
}

func (s *Service) IsOnDuty(driverID uuid.UUID) bool {
	_, ok := s.registry.Get(driverID)
	return ok
}

// SubscribeToZone remembers the zone on the client and replies with current nearby drivers.
func (s *Service) SubscribeToZone(ctx context.Context, client ws.Client, coords models.Coordinates) error {
	drivers, err := s.Nearby(ctx, coords)
	if err != nil {
		return err
	}

	client.SetValue(ZoneKey, coords)

	if err := s.gateway.SendTo(client.ID(), types.WSNearbyDrivers, drivers); err != nil {
		return fmt.Errorf("send nearby drivers: %w", err)
	}
	return nil
}

// RefreshNearby pushes fresh nearby lists to every passenger socket that watches a zone.
func (s *Service) RefreshNearby(ctx context.Context) {
	s.gateway.Broadcast(func(c ws.Client) (string, any, bool) {
		if c.Role() != string(types.RoleCustomer) {
			return "", nil, false
		}
		v, ok := c.Value(ZoneKey)
		if !ok {
			return "", nil, false
		}
		zone, ok := v.(models.Coordinates)
		if !ok {
			return "", nil, false
		}

		drivers, err := s.registry.QueryWithinRadius(zone, s.radius)
		if err != nil {
			if !errors.Is(err, types.ErrInvalidCoordinate) {
				s.l.Warn(ctx, "nearby refresh failed", "error", err.Error())
			}
			return "", nil, false
		}
		return types.WSNearbyDrivers, drivers, true
	})
}

func (s *Service) reportOnline() {
	metrics.DriversOnlineGauge.WithLabelValues(metricsLabel).Set(float64(s.registry.Count()))
}
