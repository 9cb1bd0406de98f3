package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/metrics"
	"github.com/google/uuid"
)

const metricsLabel = string(types.RideService)

type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

func DefaultConfig() Config {
	return Config{Interval: 10 * time.Second, MaxAttempts: 20}
}

// Finder returns on-duty drivers around the pickup, nearest first.
type Finder interface {
	Candidates(ctx context.Context, origin models.Coordinates) ([]models.NearbyDriver, error)
}

type Gateway interface {
	Publish(room, event string, data any) int
	SendTo(connID, event string, data any) error
}

// Rides is the ride side of the search.
type Rides interface {
	// SearchSnapshot returns a copy of the ride while it is still searching, ok=false otherwise.
	SearchSnapshot(ctx context.Context, rideID uuid.UUID) (ride *models.Ride, ok bool, err error)
	// ExpireSearch deletes a ride that is still searching and returns it. Returns nil if the ride moved on.
	ExpireSearch(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
}

// Coordinator runs one bounded broadcast loop per searching ride.
type Coordinator struct {
	cfg     Config
	finder  Finder
	gateway Gateway
	rides   Rides

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	wg       sync.WaitGroup

	base     context.Context
	shutdown context.CancelFunc

	l logger.Logger
}

func New(cfg Config, finder Finder, gateway Gateway, rides Rides, l logger.Logger) *Coordinator {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}

	base, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		cfg:      cfg,
		finder:   finder,
		gateway:  gateway,
		rides:    rides,
		sessions: make(map[uuid.UUID]*session),
		base:     base,
		shutdown: cancel,
		l:        l,
	}
}

// Start launches the search for rideID. The first attempt runs right away.
// The loop outlives ctx, only log fields are taken from it.
func (c *Coordinator) Start(ctx context.Context, rideID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.base.Err() != nil {
		return errors.New("search coordinator is shut down")
	}
	if _, ok := c.sessions[rideID]; ok {
		return types.ErrSearchInProgress
	}

	s := newSession(c.base, rideID)
	c.sessions[rideID] = s

	logCtx, _ := ctx.Value(wrap.LogCtxKey).(wrap.LogCtx)
	logCtx.RideID = rideID.String()
	logCtx.Action = types.ActionSearchStarted
	runCtx := wrap.WithLogCtx(s.ctx, logCtx)

	metrics.SearchSessionsGauge.WithLabelValues(metricsLabel).Inc()
	c.wg.Go(func() { c.run(runCtx, s) })

	return nil
}

// Stop cancels the search. It does not wait for the loop, so it is safe to call under the ride lock.
func (c *Coordinator) Stop(rideID uuid.UUID, reason string) bool {
	c.mu.Lock()
	s, ok := c.sessions[rideID]
	c.mu.Unlock()

	if !ok {
		return false
	}
	s.stop(reason)
	return true
}

func (c *Coordinator) Active(rideID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.sessions[rideID]
	return ok
}

// Wait blocks until the session of rideID is finished
func (c *Coordinator) Wait(rideID uuid.UUID) {
	c.mu.Lock()
	s, ok := c.sessions[rideID]
	c.mu.Unlock()

	if ok {
		<-s.done
	}
}

// Shutdown stops every session and waits for all loops to return.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	for _, s := range c.sessions {
		s.stop(OutcomeShutdown)
	}
	c.shutdown()
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Coordinator) run(ctx context.Context, s *session) {
	outcome := OutcomeStopped
	defer func() {
		c.finish(s)
		metrics.SearchOutcomesTotal.WithLabelValues(metricsLabel, outcome).Inc()
		c.l.Info(wrap.WithAction(ctx, types.ActionSearchStopped), "search finished",
			"outcome", outcome, "reason", s.reason.Load(), "attempts", s.attempts.Load())
	}()

	c.l.Info(ctx, "search started", "interval", c.cfg.Interval.String(), "max_attempts", c.cfg.MaxAttempts)

	tick := time.NewTimer(c.cfg.Interval)
	defer tick.Stop()

	// первая попытка сразу
	if !c.attempt(ctx, s) {
		outcome = c.stoppedOutcome(s)
		return
	}
	resetTimer(tick, c.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			outcome = c.stoppedOutcome(s)
			return
		case <-tick.C:
		}

		// budget spent, the last broadcast had its interval to get answered
		if int(s.attempts.Load()) >= c.cfg.MaxAttempts {
			outcome = c.exhaust(ctx, s)
			return
		}

		if !c.attempt(ctx, s) {
			outcome = c.stoppedOutcome(s)
			return
		}
		resetTimer(tick, c.cfg.Interval)
	}
}

// attempt queries candidates once and pushes the ride to each of them.
// Returns false when the search must end.
func (c *Coordinator) attempt(ctx context.Context, s *session) bool {
	if ctx.Err() != nil {
		return false
	}

	ride, ok, err := c.rides.SearchSnapshot(ctx, s.rideID)
	if err != nil {
		// storage hiccup: the attempt is spent, the loop goes on
		s.attempts.Inc()
		c.l.Warn(wrap.WithAction(ctx, types.ActionSearchAttempt), "failed to load ride for search attempt", "error", err.Error())
		return true
	}
	if !ok {
		s.reason.CompareAndSwap("", OutcomeVanished)
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	n := s.attempts.Inc()
	metrics.SearchAttemptsTotal.WithLabelValues(metricsLabel).Inc()

	candidates, err := c.finder.Candidates(ctx, ride.Pickup.Coordinates())
	if err != nil {
		c.l.Warn(wrap.WithAction(ctx, types.ActionSearchAttempt), "candidate query failed", "error", err.Error(), "attempt", n)
		return true
	}

	c.gateway.Publish(types.UserRoom(ride.CustomerID), types.WSNearbyDrivers, candidates)

	offer := ride.Redacted()
	for _, d := range candidates {
		if d.DriverID == ride.CustomerID {
			continue
		}
		if err := c.gateway.SendTo(d.ConnID, types.WSRideOffer, offer); err != nil {
			c.l.Debug(ctx, "failed to push ride to driver", "driver_id", d.DriverID.String(), "error", err.Error())
		}
	}

	c.l.Debug(wrap.WithAction(ctx, types.ActionSearchAttempt), "search attempt done", "attempt", n, "candidates", len(candidates))
	return true
}

func (c *Coordinator) exhaust(ctx context.Context, s *session) string {
	ctx = wrap.WithAction(ctx, types.ActionSearchExhausted)

	ride, err := c.rides.ExpireSearch(ctx, s.rideID)
	if err != nil {
		c.l.Error(wrap.ErrorCtx(ctx, err), "failed to expire ride", err)
		return OutcomeExhausted
	}
	if ride == nil {
		// accepted or canceled between the last tick and now
		return OutcomeVanished
	}

	// the requester also sits in the ride room, so the user room gets the only terminal event
	c.gateway.Publish(types.UserRoom(ride.CustomerID), types.WSError, map[string]string{
		"message": types.ErrNoCandidates.Error(),
		"ride_id": ride.ID.String(),
	})

	c.l.Info(ctx, "no drivers accepted the ride, ride expired")
	return OutcomeExhausted
}

func (c *Coordinator) stoppedOutcome(s *session) string {
	if s.reason.Load() == OutcomeShutdown {
		return OutcomeShutdown
	}
	if s.reason.Load() == OutcomeVanished {
		return OutcomeVanished
	}
	return OutcomeStopped
}

func (c *Coordinator) finish(s *session) {
	c.mu.Lock()
	if cur, ok := c.sessions[s.rideID]; ok && cur == s {
		delete(c.sessions, s.rideID)
	}
	c.mu.Unlock()

	s.cancel()
	close(s.done)
	metrics.SearchSessionsGauge.WithLabelValues(metricsLabel).Dec()
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
