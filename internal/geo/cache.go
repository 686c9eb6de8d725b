package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultCacheTTL = 30 * 24 * time.Hour

// CachedResolver caches successful geocoding results in Redis. The same area
// strings recur across registrations and Nominatim asks for a low request
// rate. An unavailable cache is bypassed, never surfaced to callers.
type CachedResolver struct {
	next   Resolver
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedResolver(next Resolver, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedResolver {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedResolver{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, prefecture, detail string) (Coordinates, error) {
	key := cacheKey(prefecture, detail)

	if coords, ok := r.lookup(ctx, key); ok {
		r.logger.Debug("geocode cache hit", zap.String("key", key))
		return coords, nil
	}

	coords, err := r.next.Resolve(ctx, prefecture, detail)
	if err != nil {
		return Coordinates{}, err
	}

	r.store(ctx, key, coords)
	return coords, nil
}

func (r *CachedResolver) lookup(ctx context.Context, key string) (Coordinates, bool) {
	if r.client == nil {
		return Coordinates{}, false
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Debug("geocode cache unavailable", zap.Error(err))
		}
		return Coordinates{}, false
	}

	var coords Coordinates
	if err := json.Unmarshal(data, &coords); err != nil {
		return Coordinates{}, false
	}
	return coords, true
}

func (r *CachedResolver) store(ctx context.Context, key string, coords Coordinates) {
	if r.client == nil {
		return
	}

	data, err := json.Marshal(coords)
	if err != nil {
		return
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Debug("geocode cache write failed", zap.Error(err))
	}
}

func cacheKey(prefecture, detail string) string {
	return fmt.Sprintf("geocode:%s:%s", prefecture, CleanArea(detail))
}
