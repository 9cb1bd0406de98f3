package ride

import (
	"context"
	"sort"
	"sync"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	"github.com/google/uuid"
)

type memRideRepo struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*models.Ride
}

func newMemRideRepo() *memRideRepo {
	return &memRideRepo{rides: make(map[uuid.UUID]*models.Ride)}
}

func (m *memRideRepo) Create(_ context.Context, r *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = r.Clone()
	return nil
}

func (m *memRideRepo) Get(_ context.Context, id uuid.UUID) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	return r.Clone(), nil
}

func (m *memRideRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	return m.Get(ctx, id)
}

func (m *memRideRepo) Save(_ context.Context, r *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[r.ID]; !ok {
		return types.ErrRideNotFound
	}
	m.rides[r.ID] = r.Clone()
	return nil
}

func (m *memRideRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[id]; !ok {
		return types.ErrRideNotFound
	}
	delete(m.rides, id)
	return nil
}

func (m *memRideRepo) ListByUser(_ context.Context, userID uuid.UUID, role types.UserRole, f models.RideFilters) ([]*models.Ride, models.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Ride
	for _, r := range m.rides {
		mine := r.CustomerID == userID
		if role == types.RoleRider {
			mine = r.IsRider(userID)
		}
		if mine && (f.Status == "" || r.Status == f.Status) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, models.CalculateMetadata(len(out), 1, max(len(out), 1)), nil
}

func (m *memRideRepo) exists(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rides[id]
	return ok
}

type memProfiles struct {
	mu          sync.Mutex
	profiles    map[uuid.UUID]*models.Profile
	invalidated map[uuid.UUID]int
}

func newMemProfiles() *memProfiles {
	return &memProfiles{
		profiles:    make(map[uuid.UUID]*models.Profile),
		invalidated: make(map[uuid.UUID]int),
	}
}

func (m *memProfiles) profile(id uuid.UUID) *models.Profile {
	p, ok := m.profiles[id]
	if !ok {
		p = &models.Profile{ID: id, Name: "user"}
		m.profiles[id] = p
	}
	return p
}

// ProfileRepo
func (m *memProfiles) ApplyRating(_ context.Context, id uuid.UUID, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile(id).ApplyRating(rating)
	return nil
}

func (m *memProfiles) IncrementTotalRides(_ context.Context, ids ...uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.profile(id).TotalRides++
	}
	return nil
}

// Profiles
func (m *memProfiles) Get(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *m.profile(id)
	return &p, nil
}

func (m *memProfiles) Invalidate(_ context.Context, id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated[id]++
}

func (m *memProfiles) snapshot(id uuid.UUID) models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.profile(id)
}

type memSafety struct {
	mu    sync.Mutex
	links map[string]models.ShareLink
	sos   []models.SOSEvent
}

func newMemSafety() *memSafety {
	return &memSafety{links: make(map[string]models.ShareLink)}
}

func (m *memSafety) CreateShareLink(_ context.Context, rideID uuid.UUID, l models.ShareLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[rideID.String()+l.TokenHash] = l
	return nil
}

func (m *memSafety) GetShareLink(_ context.Context, rideID uuid.UUID, hash string) (*models.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[rideID.String()+hash]
	if !ok {
		return nil, types.ErrShareLinkNotFound
	}
	return &l, nil
}

func (m *memSafety) AddSOS(_ context.Context, _ uuid.UUID, e models.SOSEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sos = append(m.sos, e)
	return nil
}

type published struct {
	room  string
	event string
	data  any
}

type recGateway struct {
	mu  sync.Mutex
	out []published
}

func (g *recGateway) Publish(room, event string, data any) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.out = append(g.out, published{room, event, data})
	return 1
}

func (g *recGateway) count(room, event string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, p := range g.out {
		if p.room == room && p.event == event {
			n++
		}
	}
	return n
}

type recPublisher struct {
	mu     sync.Mutex
	events []models.RideStatusEvent
}

func (p *recPublisher) PublishRideStatus(_ context.Context, e models.RideStatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recPublisher) has(event types.RideEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e.EventType == event {
			return true
		}
	}
	return false
}

type recSearch struct {
	mu      sync.Mutex
	started map[uuid.UUID]int
	stopped map[uuid.UUID]string
}

func newRecSearch() *recSearch {
	return &recSearch{started: make(map[uuid.UUID]int), stopped: make(map[uuid.UUID]string)}
}

func (s *recSearch) Start(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started[id] > 0 {
		if _, stopped := s.stopped[id]; !stopped {
			return types.ErrSearchInProgress
		}
	}
	s.started[id]++
	return nil
}

func (s *recSearch) Stop(id uuid.UUID, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped[id] = reason
	return true
}

func (s *recSearch) stopReason(id uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped[id]
}

type staticLocator struct {
	coords models.Coordinates
}

func (l staticLocator) Location(uuid.UUID) (models.Coordinates, error) {
	return l.coords, nil
}

// noTx runs fn without a transaction
type noTx struct{}

func (noTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	rides    *memRideRepo
	profiles *memProfiles
	safety   *memSafety
	gateway  *recGateway
	pub      *recPublisher
	search   *recSearch
}

func newFixture() *fixture {
	f := &fixture{
		rides:    newMemRideRepo(),
		profiles: newMemProfiles(),
		safety:   newMemSafety(),
		gateway:  &recGateway{},
		pub:      &recPublisher{},
		search:   newRecSearch(),
	}
	f.svc = New(f.rides, f.profiles, f.safety, f.profiles, f.pub, f.gateway,
		staticLocator{coords: models.Coordinates{Latitude: 27.70, Longitude: 85.32}},
		noTx{}, Config{ShareBaseURL: "https://rides.example.com/"}, logger.Nop())
	f.svc.UseSearch(f.search)
	return f
}

func customer() *models.User { return &models.User{ID: uuid.New(), Role: types.RoleCustomer} }
func rider() *models.User    { return &models.User{ID: uuid.New(), Role: types.RoleRider} }

// Kathmandu: Thamel -> Lalitpur, about 4.9 km
func kathmanduRide() CreateInput {
	return CreateInput{
		Vehicle:      types.VehicleCabEconomy,
		Pickup:       models.Place{Address: "Thamel", Latitude: 27.7172, Longitude: 85.3240},
		Drop:         models.Place{Address: "Lalitpur", Latitude: 27.6727, Longitude: 85.3248},
		ProposedFare: 60,
	}
}
