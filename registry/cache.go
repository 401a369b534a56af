package registry

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/idltd/CCTV-Log/models"
)

// CacheTTL is how long a cached registry snapshot stays usable offline.
const CacheTTL = 12 * time.Hour

const cacheKey = "registry:cameras"

// CachedSet is a snapshot of the registry camera list with its fetch time.
type CachedSet struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Cameras   []models.Camera `json:"cameras"`
}

// Fresh reports whether the snapshot is still young enough to serve
// offline searches from.
func (s *CachedSet) Fresh(now time.Time) bool {
	return now.Sub(s.FetchedAt) <= CacheTTL
}

// Cache stores the last good registry snapshot in redis so proximity
// search keeps working when the registry is unreachable.
type Cache struct {
	rdb *redis.Client
}

// NewCache wraps an existing redis client
func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Get returns the cached snapshot, or nil if there is none or it has
// expired. A stale snapshot is treated the same as a missing one.
func (c *Cache) Get(ctx context.Context) (*CachedSet, error) {
	data, err := c.rdb.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var set CachedSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, err
	}
	if !set.Fresh(time.Now()) {
		return nil, nil
	}
	return &set, nil
}

// Put replaces the cached snapshot. The redis expiry mirrors the
// FetchedAt check so the key cleans itself up.
func (c *Cache) Put(ctx context.Context, cameras []models.Camera) error {
	set := CachedSet{
		FetchedAt: time.Now().UTC(),
		Cameras:   cameras,
	}
	data, err := json.Marshal(set)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey, data, CacheTTL).Err()
}
