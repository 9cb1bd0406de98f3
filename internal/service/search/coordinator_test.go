package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	"github.com/google/uuid"
)

type fakeRides struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*models.Ride
}

func newFakeRides(rides ...*models.Ride) *fakeRides {
	f := &fakeRides{rides: make(map[uuid.UUID]*models.Ride)}
	for _, r := range rides {
		f.rides[r.ID] = r
	}
	return f
}

func (f *fakeRides) SearchSnapshot(_ context.Context, id uuid.UUID) (*models.Ride, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rides[id]
	if !ok || r.Status != types.StatusSearching {
		return nil, false, nil
	}
	return r.Clone(), true, nil
}

func (f *fakeRides) ExpireSearch(_ context.Context, id uuid.UUID) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rides[id]
	if !ok || r.Status != types.StatusSearching {
		return nil, nil
	}
	delete(f.rides, id)
	return r, nil
}

func (f *fakeRides) setStatus(id uuid.UUID, s types.RideStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rides[id].Status = s
}

func (f *fakeRides) exists(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rides[id]
	return ok
}

type fakeFinder struct {
	mu      sync.Mutex
	calls   int
	results func(call int) []models.NearbyDriver
}

func (f *fakeFinder) Candidates(context.Context, models.Coordinates) ([]models.NearbyDriver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.results == nil {
		return nil, nil
	}
	return f.results(f.calls), nil
}

func (f *fakeFinder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type event struct {
	target string
	name   string
}

type fakeGateway struct {
	mu     sync.Mutex
	events []event
	offer  chan string
}

func (g *fakeGateway) Publish(room, name string, _ any) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, event{room, name})
	return 1
}

func (g *fakeGateway) SendTo(connID, name string, _ any) error {
	g.mu.Lock()
	g.events = append(g.events, event{connID, name})
	g.mu.Unlock()

	if g.offer != nil && name == types.WSRideOffer {
		select {
		case g.offer <- connID:
		default:
		}
	}
	return nil
}

func (g *fakeGateway) count(target, name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, e := range g.events {
		if e.target == target && e.name == name {
			n++
		}
	}
	return n
}

// received counts events of the given names published to any of the targets
func (g *fakeGateway) received(targets []string, names ...string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, e := range g.events {
		for _, target := range targets {
			if e.target != target {
				continue
			}
			for _, name := range names {
				if e.name == name {
					n++
				}
			}
		}
	}
	return n
}

func newRide() *models.Ride {
	return &models.Ride{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Status:     types.StatusSearching,
		OTP:        "1234",
		Pickup:     models.Place{Address: "Thamel", Latitude: 27.7172, Longitude: 85.3240},
	}
}

var fastConfig = Config{Interval: 5 * time.Millisecond, MaxAttempts: 3}

func TestCoordinator_ExhaustsBudgetAndNotifiesOnce(t *testing.T) {
	ride := newRide()
	rides := newFakeRides(ride)
	finder := &fakeFinder{}
	gw := &fakeGateway{}
	c := New(fastConfig, finder, gw, rides, logger.Nop())

	if err := c.Start(context.Background(), ride.ID); err != nil {
		t.Fatal(err)
	}
	c.Wait(ride.ID)

	if got := finder.callCount(); got != fastConfig.MaxAttempts {
		t.Fatalf("attempts: got %d want %d", got, fastConfig.MaxAttempts)
	}
	if rides.exists(ride.ID) {
		t.Fatal("ride must be deleted after the budget is spent")
	}
	if n := gw.count(types.UserRoom(ride.CustomerID), types.WSError); n != 1 {
		t.Fatalf("terminal notifications: got %d want 1", n)
	}
	// requester listens on both its own room and the ride room
	requester := []string{types.UserRoom(ride.CustomerID), types.RideRoom(ride.ID)}
	if n := gw.received(requester, types.WSError, types.WSRideCanceled); n != 1 {
		t.Fatalf("terminal events reaching requester: got %d want 1", n)
	}
	if c.Active(ride.ID) {
		t.Fatal("session must be released")
	}
}

func TestCoordinator_StopsOnAcceptance(t *testing.T) {
	ride := newRide()
	rides := newFakeRides(ride)
	driver := models.NearbyDriver{DriverID: uuid.New(), ConnID: "conn-driver"}
	finder := &fakeFinder{results: func(int) []models.NearbyDriver { return []models.NearbyDriver{driver} }}
	gw := &fakeGateway{offer: make(chan string, 1)}

	c := New(Config{Interval: 20 * time.Millisecond, MaxAttempts: 50}, finder, gw, rides, logger.Nop())
	if err := c.Start(context.Background(), ride.ID); err != nil {
		t.Fatal(err)
	}

	select {
	case conn := <-gw.offer:
		if conn != "conn-driver" {
			t.Fatalf("offer sent to %q", conn)
		}
	case <-time.After(time.Second):
		t.Fatal("ride offer was not pushed")
	}

	rides.setStatus(ride.ID, types.StatusAccepted)
	if !c.Stop(ride.ID, "accepted") {
		t.Fatal("stop must find the session")
	}
	c.Wait(ride.ID)

	calls := finder.callCount()
	time.Sleep(60 * time.Millisecond)
	if finder.callCount() != calls {
		t.Fatal("no attempts expected after stop")
	}
	if !rides.exists(ride.ID) {
		t.Fatal("accepted ride must stay")
	}
	if n := gw.count(types.UserRoom(ride.CustomerID), types.WSError); n != 0 {
		t.Fatalf("no terminal error expected after acceptance, got %d", n)
	}
}

func TestCoordinator_EmptyAttemptsDoNotEndSearch(t *testing.T) {
	ride := newRide()
	rides := newFakeRides(ride)
	late := models.NearbyDriver{DriverID: uuid.New(), ConnID: "late-driver"}
	finder := &fakeFinder{results: func(call int) []models.NearbyDriver {
		if call < 3 {
			return nil
		}
		return []models.NearbyDriver{late}
	}}
	gw := &fakeGateway{offer: make(chan string, 1)}

	c := New(Config{Interval: 5 * time.Millisecond, MaxAttempts: 10}, finder, gw, rides, logger.Nop())
	_ = c.Start(context.Background(), ride.ID)

	select {
	case <-gw.offer:
	case <-time.After(time.Second):
		t.Fatal("driver appearing later must still get the ride")
	}
	c.Stop(ride.ID, "test")
	c.Wait(ride.ID)
}

func TestCoordinator_EndsWhenRideLeavesSearching(t *testing.T) {
	ride := newRide()
	rides := newFakeRides(ride)
	finder := &fakeFinder{}
	gw := &fakeGateway{}

	c := New(Config{Interval: 5 * time.Millisecond, MaxAttempts: 100}, finder, gw, rides, logger.Nop())
	_ = c.Start(context.Background(), ride.ID)

	rides.setStatus(ride.ID, types.StatusAccepted)
	c.Wait(ride.ID)

	if c.Active(ride.ID) {
		t.Fatal("session must end")
	}
	if n := gw.count(types.UserRoom(ride.CustomerID), types.WSError); n != 0 {
		t.Fatalf("no terminal error expected, got %d", n)
	}
}

func TestCoordinator_StartTwice(t *testing.T) {
	ride := newRide()
	c := New(Config{Interval: time.Hour, MaxAttempts: 2}, &fakeFinder{}, &fakeGateway{}, newFakeRides(ride), logger.Nop())

	if err := c.Start(context.Background(), ride.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(context.Background(), ride.ID); !errors.Is(err, types.ErrSearchInProgress) {
		t.Fatalf("got %v want ErrSearchInProgress", err)
	}

	c.Shutdown()
	if c.Active(ride.ID) {
		t.Fatal("shutdown must release every session")
	}
	if err := c.Start(context.Background(), ride.ID); err == nil {
		t.Fatal("start after shutdown must fail")
	}
}

func TestCoordinator_SkipsRequesterAsCandidate(t *testing.T) {
	ride := newRide()
	self := models.NearbyDriver{DriverID: ride.CustomerID, ConnID: "self"}
	finder := &fakeFinder{results: func(int) []models.NearbyDriver { return []models.NearbyDriver{self} }}
	gw := &fakeGateway{}

	c := New(Config{Interval: 5 * time.Millisecond, MaxAttempts: 2}, finder, gw, newFakeRides(ride), logger.Nop())
	_ = c.Start(context.Background(), ride.ID)
	c.Wait(ride.ID)

	if n := gw.count("self", types.WSRideOffer); n != 0 {
		t.Fatalf("requester must not get own ride, got %d", n)
	}
}
