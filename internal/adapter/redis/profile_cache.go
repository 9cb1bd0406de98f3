package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/metrics"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultProfileTTL = 5 * time.Minute

	profilePrefix = "cache:profile:"
)

// ProfileCache keeps profile snapshots as JSON blobs with TTL.
type ProfileCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewProfileCache(client *goredis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &ProfileCache{client: client, ttl: ttl}
}

// Get returns (nil, nil) on miss.
func (c *ProfileCache) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	data, err := c.client.Get(ctx, profileKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		metrics.RecordCacheLookup(string(types.RideService), false)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile cache: get: %w", err)
	}

	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		// битая запись, считаем промахом
		c.client.Del(ctx, profileKey(id))
		metrics.RecordCacheLookup(string(types.RideService), false)
		return nil, nil
	}

	metrics.RecordCacheLookup(string(types.RideService), true)
	return &p, nil
}

func (c *ProfileCache) Set(ctx context.Context, p *models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("profile cache: encode: %w", err)
	}
	if err := c.client.Set(ctx, profileKey(p.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("profile cache: set: %w", err)
	}
	return nil
}

func (c *ProfileCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, profileKey(id)).Err(); err != nil {
		return fmt.Errorf("profile cache: delete: %w", err)
	}
	return nil
}

func profileKey(id uuid.UUID) string {
	return profilePrefix + id.String()
}
