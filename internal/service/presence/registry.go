package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/internal/service/geo"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/google/uuid"
)

// DefaultRadiusMeters is the default candidate search radius
const DefaultRadiusMeters = 60_000.0

// Registry is the set of on-duty drivers. It is the single source of truth for
// "is this driver reachable right now". Every method is atomic with respect to the others,
// entries are stored and returned by value.
type Registry struct {
	mu      sync.RWMutex
	drivers map[uuid.UUID]models.DriverPresence

	now func() time.Time
	log logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		drivers: make(map[uuid.UUID]models.DriverPresence),
		now:     time.Now,
		log:     log,
	}
}

// SetOnDuty adds the driver or replaces existing entry (new connection wins).
func (r *Registry) SetOnDuty(driverID uuid.UUID, coords models.Coordinates, connID string, profile models.Profile) error {
	if err := geo.Validate(coords); err != nil {
		return err
	}
	if connID == "" {
		return fmt.Errorf("%w: connection id is required", types.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.drivers[driverID] = models.DriverPresence{
		DriverID:  driverID,
		Coords:    coords,
		ConnID:    connID,
		Profile:   profile,
		UpdatedAt: r.now(),
	}
	return nil
}

// SetOffDuty removes the driver. Returns false if the driver was not on duty.
func (r *Registry) SetOffDuty(driverID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.drivers[driverID]
	delete(r.drivers, driverID)
	return ok
}

// Remove is called on disconnect. The entry is removed only if it still belongs to connID,
// so a stale socket closing late cannot evict a fresh session of the same driver.
func (r *Registry) Remove(driverID uuid.UUID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.drivers[driverID]
	if !ok || p.ConnID != connID {
		return false
	}
	delete(r.drivers, driverID)
	return true
}

// UpdatePosition is last-write-wins per driver.
func (r *Registry) UpdatePosition(driverID uuid.UUID, coords models.Coordinates) error {
	if err := geo.Validate(coords); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.drivers[driverID]
	if !ok {
		return types.ErrDriverNotOnDuty
	}
	p.Coords = coords
	p.UpdatedAt = r.now()
	r.drivers[driverID] = p
	return nil
}

// Get returns a copy of the driver entry.
func (r *Registry) Get(driverID uuid.UUID) (models.DriverPresence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.drivers[driverID]
	return p, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.drivers)
}

// QueryWithinRadius returns on-duty drivers within radius meters of origin, nearest first.
func (r *Registry) QueryWithinRadius(origin models.Coordinates, radius float64) ([]models.NearbyDriver, error) {
	if err := geo.Validate(origin); err != nil {
		return nil, err
	}

	snapshot, corrupted := r.snapshot()
	if len(corrupted) > 0 {
		r.dropCorrupted(corrupted)
	}

	ranked, err := geo.Within(origin, radius, snapshot, func(p models.DriverPresence) models.Coordinates {
		return p.Coords
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.NearbyDriver, 0, len(ranked))
	for _, rk := range ranked {
		out = append(out, models.NearbyDriver{
			DriverID: rk.Item.DriverID,
			Coords:   rk.Item.Coords,
			Profile:  rk.Item.Profile,
			Distance: rk.Distance,
			ConnID:   rk.Item.ConnID,
		})
	}
	return out, nil
}

// snapshot copies all healthy entries under read lock.
func (r *Registry) snapshot() (healthy []models.DriverPresence, corrupted []uuid.UUID) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	healthy = make([]models.DriverPresence, 0, len(r.drivers))
	for id, p := range r.drivers {
		if p.ConnID == "" {
			corrupted = append(corrupted, id)
			continue
		}
		healthy = append(healthy, p)
	}
	return healthy, corrupted
}

// dropCorrupted removes entries without connection handle. Such entry is a bug, not a user error.
func (r *Registry) dropCorrupted(ids []uuid.UUID) {
	r.mu.Lock()
	for _, id := range ids {
		if p, ok := r.drivers[id]; ok && p.ConnID == "" {
			delete(r.drivers, id)
		}
	}
	r.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), types.ActionPresenceCorrupted)
	for _, id := range ids {
		r.log.Warn(ctx, "dropped presence entry without connection", "driver_id", id.String())
	}
}
