package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"weeromzet/models"
	"weeromzet/storage"
	"weeromzet/utils"
)

// CachedFetcher memoises per-day observations in an in-process LRU and,
// when configured, in Redis so restarts and replicas share lookups.
type CachedFetcher struct {
	next   Fetcher
	lru    *utils.LRU[models.WeatherObservation]
	redis  storage.RedisClient
	ttl    time.Duration
	logger *utils.Logger
}

// NewCachedFetcher wraps next. redis may be nil.
func NewCachedFetcher(next Fetcher, size int, ttl time.Duration, redis storage.RedisClient, logger *utils.Logger) *CachedFetcher {
	return &CachedFetcher{
		next:   next,
		lru:    utils.NewLRU[models.WeatherObservation](size, ttl),
		redis:  redis,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(loc models.Coordinates, date string) string {
	return fmt.Sprintf("weeromzet:weather:%.4f_%.4f_%s", loc.Lat, loc.Lon, date)
}

// FetchObservations serves cached days and asks the wrapped fetcher only
// for the rest. Redis failures degrade to cache misses.
func (c *CachedFetcher) FetchObservations(ctx context.Context, dates []string, loc models.Coordinates) ([]models.WeatherObservation, error) {
	var out []models.WeatherObservation
	var misses []string
	redisHits := 0

	for _, d := range uniqueDates(dates) {
		key := cacheKey(loc, d)
		if o, ok := c.lru.Get(key); ok {
			out = append(out, o)
			continue
		}
		if o, ok := c.fromRedis(ctx, key); ok {
			c.lru.Put(key, o)
			out = append(out, o)
			redisHits++
			continue
		}
		misses = append(misses, d)
	}

	c.logger.Debug("[cache] %d cached (%d from redis), %d to fetch, %d days in memory", len(out), redisHits, len(misses), c.Len())
	if len(misses) == 0 {
		sortByDate(out)
		return out, nil
	}

	fetched, err := c.next.FetchObservations(ctx, misses, loc)
	if err != nil {
		return nil, err
	}
	for _, o := range fetched {
		key := cacheKey(loc, o.Date)
		c.lru.Put(key, o)
		c.toRedis(ctx, key, o)
	}

	out = append(out, fetched...)
	sortByDate(out)
	return out, nil
}

func (c *CachedFetcher) fromRedis(ctx context.Context, key string) (models.WeatherObservation, bool) {
	var o models.WeatherObservation
	if c.redis == nil {
		return o, false
	}
	raw, err := c.redis.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrCacheMiss) {
			c.logger.Warn("[cache] Redis get failed: %v", err)
		}
		return o, false
	}
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		c.logger.Warn("[cache] Dropping corrupt entry %s: %v", key, err)
		_ = c.redis.Del(ctx, key)
		return o, false
	}
	return o, true
}

func (c *CachedFetcher) toRedis(ctx context.Context, key string, o models.WeatherObservation) {
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(o)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, string(raw), c.ttl); err != nil {
		c.logger.Warn("[cache] Redis set failed: %v", err)
	}
}

// Len reports the number of days held in memory.
func (c *CachedFetcher) Len() int {
	return c.lru.Len()
}
