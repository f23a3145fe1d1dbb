// README: Google Geocoding client with a Redis cache for job site addresses.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"googlemaps.github.io/maps"

	"crewtrack/internal/types"
)

const geocodeCachePrefix = "geocode:"

var ErrNoResults = errors.New("geocode returned no results")

// GeocodeService resolves site addresses to coordinates through the Google
// Geocoding API, caching hits in Redis.
type GeocodeService struct {
	client *maps.Client
	cache  *redis.Client
	ttl    time.Duration
	region string
}

// NewGeocodeService creates a GeocodeService with the given API key. cache may be nil.
func NewGeocodeService(apiKey string, cache *redis.Client) (*GeocodeService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocodeService{client: client, cache: cache, ttl: 24 * time.Hour, region: "uk"}, nil
}

// Geocode returns the first result for address.
func (s *GeocodeService) Geocode(ctx context.Context, address string) (types.Point, error) {
	key := geocodeCachePrefix + strings.ToLower(strings.TrimSpace(address))
	if p, ok := s.cached(ctx, key); ok {
		return p, nil
	}

	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  s.region,
	})
	if err != nil {
		return types.Point{}, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return types.Point{}, ErrNoResults
	}

	loc := results[0].Geometry.Location
	p := types.Point{Lat: loc.Lat, Lng: loc.Lng}
	s.store(ctx, key, p)
	return p, nil
}

func (s *GeocodeService) cached(ctx context.Context, key string) (types.Point, bool) {
	if s.cache == nil {
		return types.Point{}, false
	}
	val, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return types.Point{}, false
	}
	var p types.Point
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return types.Point{}, false
	}
	return p, true
}

func (s *GeocodeService) store(ctx context.Context, key string, p types.Point) {
	if s.cache == nil {
		return
	}
	b, _ := json.Marshal(p)
	_ = s.cache.Set(ctx, key, b, s.ttl).Err()
}
