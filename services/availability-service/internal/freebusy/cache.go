package freebusy

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/slotgrid/slotgrid/services/availability-service/internal/model"
)

var ErrCacheMiss = errors.New("no cached busy intervals")

// BusyCache stores the last-known busy intervals per provider in Redis.
// Written by the calendar-sync event consumer; read as a fallback when the
// live free/busy lookup fails. Entries expire so stale calendar data cannot
// block slots indefinitely.
type BusyCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBusyCache(rdb *redis.Client, ttl time.Duration) *BusyCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &BusyCache{rdb: rdb, ttl: ttl}
}

type cachedInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func cacheKey(providerID string) string {
	return "freebusy:" + providerID
}

func (c *BusyCache) Put(ctx context.Context, providerID string, intervals []model.BusyInterval) error {
	entries := make([]cachedInterval, 0, len(intervals))
	for _, iv := range intervals {
		entries = append(entries, cachedInterval{Start: iv.Start.UTC(), End: iv.End.UTC()})
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(providerID), payload, c.ttl).Err()
}

func (c *BusyCache) Get(ctx context.Context, providerID string) ([]model.BusyInterval, error) {
	payload, err := c.rdb.Get(ctx, cacheKey(providerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var entries []cachedInterval
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, err
	}
	out := make([]model.BusyInterval, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.BusyInterval{Start: e.Start, End: e.End})
	}
	return out, nil
}

func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
