package profile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	"github.com/google/uuid"
)

type slowRepo struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (r *slowRepo) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	r.calls.Add(1)
	time.Sleep(r.delay)
	if r.err != nil {
		return nil, r.err
	}
	return &models.Profile{ID: id, Name: "Ram", Rating: models.DefaultRating}, nil
}

type mapCache struct {
	mu   sync.Mutex
	data map[uuid.UUID]models.Profile
}

func newMapCache() *mapCache { return &mapCache{data: make(map[uuid.UUID]models.Profile)} }

func (c *mapCache) Get(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.data[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *mapCache) Set(_ context.Context, p *models.Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[p.ID] = *p
	return nil
}

func (c *mapCache) Delete(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
	return nil
}

func TestService_ConcurrentMissesHitDatabaseOnce(t *testing.T) {
	repo := &slowRepo{delay: 50 * time.Millisecond}
	svc := New(repo, newMapCache(), logger.Nop())
	id := uuid.New()

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			if _, err := svc.Get(context.Background(), id); err != nil {
				t.Errorf("get: %v", err)
			}
		})
	}
	wg.Wait()

	if n := repo.calls.Load(); n != 1 {
		t.Fatalf("repo calls: got %d want 1", n)
	}

	// served from cache now
	if _, err := svc.Get(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if n := repo.calls.Load(); n != 1 {
		t.Fatalf("repo calls after cache fill: got %d want 1", n)
	}
}

func TestService_InvalidateForcesReload(t *testing.T) {
	repo := &slowRepo{}
	svc := New(repo, newMapCache(), logger.Nop())
	id := uuid.New()

	_, _ = svc.Get(context.Background(), id)
	svc.Invalidate(context.Background(), id)
	_, _ = svc.Get(context.Background(), id)

	if n := repo.calls.Load(); n != 2 {
		t.Fatalf("repo calls: got %d want 2", n)
	}
}

func TestService_NotFoundIsWrapped(t *testing.T) {
	svc := New(&slowRepo{err: types.ErrUserNotFound}, nil, logger.Nop())

	_, err := svc.Get(context.Background(), uuid.New())
	if !errors.Is(err, types.ErrUserNotFound) {
		t.Fatalf("got %v want ErrUserNotFound", err)
	}
}
