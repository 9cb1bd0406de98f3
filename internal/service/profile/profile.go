package profile

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type Repo interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Cache returns (nil, nil) on miss.
type Cache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Set(ctx context.Context, p *models.Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service reads user profiles through the cache. Concurrent misses for one id hit the database once.
type Service struct {
	repo  Repo
	cache Cache
	group singleflight.Group
	l     logger.Logger
}

// New creates profile service. cache may be nil.
func New(repo Repo, cache Cache, l logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, l: l}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	ctx = wrap.WithUserID(ctx, id.String())

	if s.cache != nil {
		p, err := s.cache.Get(ctx, id)
		if err != nil {
			// cache is an optimization, fall through to the database
			s.l.Warn(ctx, "profile cache read failed", "error", err.Error())
		} else if p != nil {
			return p, nil
		}
	}

	v, err, _ := s.group.Do(id.String(), func() (any, error) {
		p, err := s.repo.GetProfile(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, p); err != nil {
				s.l.Warn(ctx, "profile cache write failed", "error", err.Error())
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("get profile: %w", err))
	}

	p := *v.(*models.Profile)
	return &p, nil
}

// Invalidate drops cached profile after rating or ride counters change.
func (s *Service) Invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.l.Warn(wrap.WithUserID(ctx, id.String()), "profile cache invalidate failed", "error", err.Error())
	}
}
