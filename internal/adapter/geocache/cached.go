package geocache

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/jp-air-features/internal/domain"
	"github.com/couchcryptid/jp-air-features/internal/observability"
)

const (
	resultHit  = "hit"
	resultMiss = "miss"
)

// Cache is the coordinate-keyed lookup the CachedGeocoder reads through.
type Cache interface {
	Get(ctx context.Context, lat, lon float64) (domain.Address, bool, error)
	Put(ctx context.Context, lat, lon float64, addr domain.Address) error
}

// CachedGeocoder consults the cache before the inner geocoder. Successful
// lookups are cached, including "not found"; failed lookups are not, so a
// later run retries them. With a nil inner geocoder misses resolve to an
// empty address and nothing is written.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   Cache
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, cache Cache, metrics *observability.Metrics, logger *slog.Logger) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics, logger: logger}
}

// ReverseGeocode implements domain.Geocoder.
func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	addr, ok, err := c.cache.Get(ctx, lat, lon)
	if err != nil {
		c.logger.Warn("geocache read failed", "lat", lat, "lon", lon, "error", err)
	}
	if ok {
		c.metrics.GeocodeCache.WithLabelValues(resultHit).Inc()
		return domain.GeocodingResult{Address: addr, Found: !addr.IsZero()}, nil
	}
	c.metrics.GeocodeCache.WithLabelValues(resultMiss).Inc()

	if c.inner == nil {
		return domain.GeocodingResult{}, nil
	}

	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return result, err
	}
	if err := c.cache.Put(ctx, lat, lon, result.Address); err != nil {
		c.logger.Warn("geocache write failed", "lat", lat, "lon", lon, "error", err)
	}
	return result, nil
}
