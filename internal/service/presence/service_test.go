package presence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	ws "github.com/Temutjin2k/ride-bidding/pkg/wsHub"
	"github.com/google/uuid"
)

type sent struct {
	target string // room or conn id
	event  string
	data   any
}

type fakeClient struct {
	id     string
	role   string
	values map[string]any
}

func (c *fakeClient) ID() string          { return c.id }
func (c *fakeClient) UserID() uuid.UUID   { return uuid.Nil }
func (c *fakeClient) Role() string        { return c.role }
func (c *fakeClient) SetValue(k string, v any) { c.values[k] = v }
func (c *fakeClient) Value(k string) (any, bool) {
	v, ok := c.values[k]
	return v, ok
}

type fakeGateway struct {
	mu      sync.Mutex
	rooms   map[string]map[string]bool
	out     []sent
	clients []*fakeClient
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{rooms: make(map[string]map[string]bool)}
}

func (g *fakeGateway) Join(connID, room string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rooms[room] == nil {
		g.rooms[room] = make(map[string]bool)
	}
	g.rooms[room][connID] = true
	return nil
}

func (g *fakeGateway) Leave(connID, room string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms[room], connID)
}

func (g *fakeGateway) Publish(room, event string, data any) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.out = append(g.out, sent{room, event, data})
	return len(g.rooms[room])
}

func (g *fakeGateway) SendTo(connID, event string, data any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.out = append(g.out, sent{connID, event, data})
	return nil
}

func (g *fakeGateway) Broadcast(build func(c ws.Client) (string, any, bool)) int {
	g.mu.Lock()
	clients := append([]*fakeClient(nil), g.clients...)
	g.mu.Unlock()

	n := 0
	for _, c := range clients {
		if event, data, ok := build(c); ok {
			_ = g.SendTo(c.id, event, data)
			n++
		}
	}
	return n
}

func (g *fakeGateway) last(target, event string) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.out) - 1; i >= 0; i-- {
		if g.out[i].target == target && g.out[i].event == event {
			return g.out[i].data, true
		}
	}
	return nil, false
}

type staticProfiles struct{}

func (staticProfiles) Get(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	return &models.Profile{ID: id, Name: "driver", Rating: models.DefaultRating}, nil
}

type recordingStream struct {
	mu    sync.Mutex
	pings []models.LocationPing
}

func (s *recordingStream) PublishLocation(_ context.Context, p models.LocationPing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pings = append(s.pings, p)
	return nil
}

func newTestService() (*Service, *fakeGateway, *recordingStream) {
	gw := newFakeGateway()
	stream := &recordingStream{}
	svc := NewService(NewRegistry(logger.Nop()), staticProfiles{}, gw, stream, 0, logger.Nop())
	return svc, gw, stream
}

func TestService_OnDutyOffDutyVisibility(t *testing.T) {
	ctx := context.Background()
	svc, gw, _ := newTestService()
	driver := uuid.New()

	if err := svc.GoOnDuty(ctx, driver, "conn-d", kathmandu); err != nil {
		t.Fatal(err)
	}
	if !gw.rooms[types.RoomOnDuty]["conn-d"] {
		t.Fatal("driver must join duty room")
	}

	got, _ := svc.Candidates(ctx, kathmandu)
	if len(got) != 1 || got[0].Profile.Name != "driver" {
		t.Fatalf("driver with profile snapshot expected, got %+v", got)
	}

	svc.GoOffDuty(ctx, driver, "conn-d")
	got, _ = svc.Candidates(ctx, kathmandu)
	if len(got) != 0 {
		t.Fatalf("off duty driver must not be a candidate")
	}
	if gw.rooms[types.RoomOnDuty]["conn-d"] {
		t.Fatal("driver must leave duty room")
	}
}

func TestService_GoOffDutyFromStaleConnection(t *testing.T) {
	ctx := context.Background()
	svc, gw, _ := newTestService()
	driver := uuid.New()

	_ = svc.GoOnDuty(ctx, driver, "conn-old", kathmandu)
	// driver reconnects, the new socket takes over the session
	if err := svc.GoOnDuty(ctx, driver, "conn-new", kathmandu); err != nil {
		t.Fatal(err)
	}

	svc.GoOffDuty(ctx, driver, "conn-old")
	if !svc.IsOnDuty(driver) {
		t.Fatal("late off duty from the old socket must not end the new session")
	}
	if !gw.rooms[types.RoomOnDuty]["conn-new"] {
		t.Fatal("new connection must stay in duty room")
	}

	svc.GoOffDuty(ctx, driver, "conn-new")
	if svc.IsOnDuty(driver) {
		t.Fatal("driver must be off duty")
	}
}

func TestService_UpdateLocationFansOut(t *testing.T) {
	ctx := context.Background()
	svc, gw, stream := newTestService()
	driver := uuid.New()

	if err := svc.UpdateLocation(ctx, driver, kathmandu); !errors.Is(err, types.ErrDriverNotOnDuty) {
		t.Fatalf("got %v want ErrDriverNotOnDuty", err)
	}

	_ = svc.GoOnDuty(ctx, driver, "conn-d", kathmandu)
	moved := offset(kathmandu, 0.005)
	if err := svc.UpdateLocation(ctx, driver, moved); err != nil {
		t.Fatal(err)
	}

	data, ok := gw.last(types.RiderRoom(driver), types.WSRiderLocationUpdate)
	if !ok {
		t.Fatal("location update must be published to rider room")
	}
	if ping := data.(models.LocationPing); ping.Coords != moved || ping.DriverID != driver.String() {
		t.Fatalf("unexpected ping %+v", ping)
	}
	if len(stream.pings) != 1 {
		t.Fatalf("ping must be mirrored once, got %d", len(stream.pings))
	}

	loc, err := svc.Location(driver)
	if err != nil || loc != moved {
		t.Fatalf("location: %v %v", loc, err)
	}
}

func TestService_ZoneWatchersGetRefreshed(t *testing.T) {
	ctx := context.Background()
	svc, gw, _ := newTestService()

	watcher := &fakeClient{id: "conn-p", role: string(types.RoleCustomer), values: map[string]any{}}
	idle := &fakeClient{id: "conn-idle", role: string(types.RoleCustomer), values: map[string]any{}}
	gw.clients = []*fakeClient{watcher, idle}

	if err := svc.SubscribeToZone(ctx, watcher, kathmandu); err != nil {
		t.Fatal(err)
	}
	if data, _ := gw.last("conn-p", types.WSNearbyDrivers); len(data.([]models.NearbyDriver)) != 0 {
		t.Fatal("no drivers expected yet")
	}

	_ = svc.GoOnDuty(ctx, uuid.New(), "conn-d", offset(kathmandu, 0.01))

	data, ok := gw.last("conn-p", types.WSNearbyDrivers)
	if !ok || len(data.([]models.NearbyDriver)) != 1 {
		t.Fatalf("watcher must receive refreshed list, got %v", data)
	}
	if _, ok := gw.last("conn-idle", types.WSNearbyDrivers); ok {
		t.Fatal("client without zone must not be refreshed")
	}
}

func TestService_DisconnectOnlyOwnConnection(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	driver := uuid.New()

	_ = svc.GoOnDuty(ctx, driver, "first", kathmandu)
	_ = svc.GoOnDuty(ctx, driver, "second", kathmandu)

	svc.Disconnect(ctx, driver, "first")
	if !svc.IsOnDuty(driver) {
		t.Fatal("late disconnect of old socket must keep driver on duty")
	}
	svc.Disconnect(ctx, driver, "second")
	if svc.IsOnDuty(driver) {
		t.Fatal("driver must be removed")
	}
}
