package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Service caches forecasts in Redis and collapses concurrent misses for
// the same city into a single upstream call.
type Service struct {
	logger   *slog.Logger
	provider Provider
	cache    *redis.Client
	ttl      time.Duration
	group    singleflight.Group
}

// NewService constructs Service. cache may be nil, which disables caching.
func NewService(logger *slog.Logger, provider Provider, cache *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Service{logger: logger, provider: provider, cache: cache, ttl: ttl}
}

// cacheKey builds the redis key for a city. Every read and write path
// must use it so warmup entries stay visible to lookups.
func cacheKey(city string) string {
	return "weather:city:" + strings.ToLower(strings.TrimSpace(city))
}

// Geocode resolves a free-form city or address to coordinates.
func (s *Service) Geocode(ctx context.Context, city string) (Place, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return Place{}, fmt.Errorf("%w: empty city", ErrCityNotFound)
	}
	return s.provider.Geocode(ctx, city)
}

// ForecastByCity geocodes the city and returns its forecast, served from
// cache when fresh.
func (s *Service) ForecastByCity(ctx context.Context, city string) (Forecast, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return Forecast{}, fmt.Errorf("%w: empty city", ErrCityNotFound)
	}
	key := cacheKey(city)

	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		// Re-check after winning the flight; a peer may have filled it.
		if cached, ok := s.fromCache(ctx, key); ok {
			return cached, nil
		}
		place, err := s.provider.Geocode(ctx, city)
		if err != nil {
			return Forecast{}, err
		}
		entries, err := s.provider.Forecast(ctx, place.Lat, place.Lng)
		if err != nil {
			return Forecast{}, err
		}
		fc := Forecast{Place: place, Entries: entries}
		s.store(ctx, key, fc)
		return fc, nil
	})
	if err != nil {
		return Forecast{}, err
	}
	return result.(Forecast), nil
}

// Warm refreshes the cache entry for a city, ignoring any fresh copy.
// Used by the hourly warmup job.
func (s *Service) Warm(ctx context.Context, city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil
	}
	place, err := s.provider.Geocode(ctx, city)
	if err != nil {
		return err
	}
	entries, err := s.provider.Forecast(ctx, place.Lat, place.Lng)
	if err != nil {
		return err
	}
	s.store(ctx, cacheKey(city), Forecast{Place: place, Entries: entries})
	return nil
}

func (s *Service) fromCache(ctx context.Context, key string) (Forecast, bool) {
	if s.cache == nil {
		return Forecast{}, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Forecast{}, false
	}
	if err != nil {
		s.logger.Warn("weather cache read failed", "error", err, "key", key)
		return Forecast{}, false
	}
	var fc Forecast
	if err := json.Unmarshal(raw, &fc); err != nil {
		return Forecast{}, false
	}
	return fc, true
}

func (s *Service) store(ctx context.Context, key string, fc Forecast) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(fc)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("weather cache write failed", "error", err, "key", key)
	}
}
