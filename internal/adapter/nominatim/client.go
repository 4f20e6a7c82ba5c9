// Package nominatim implements domain.Geocoder against a Nominatim-compatible
// reverse geocoding endpoint. Requests are paced by a rate limiter and guarded
// by a circuit breaker.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/jp-air-features/internal/domain"
	"github.com/couchcryptid/jp-air-features/internal/observability"
)

const (
	outcomeFound    = "found"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// Options configures a Client.
type Options struct {
	BaseURL     string
	UserAgent   string
	Language    string
	Timeout     time.Duration
	MinInterval time.Duration
}

// Client implements domain.Geocoder using the Nominatim reverse API.
type Client struct {
	baseURL    string
	userAgent  string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim reverse geocoding client. At most one request
// is issued per MinInterval.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	return &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		language:   opts.Language,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    newBreaker(logger),
		metrics:    metrics,
		logger:     logger,
	}
}

func newBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nominatim",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("geocoder circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// ReverseGeocode resolves a coordinate to an address. A response carrying an
// "error" member is a successful lookup with no match. While the breaker is
// open calls fail immediately without waiting on the limiter.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	if c.breaker.State() != gobreaker.StateOpen {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.GeocodingResult{}, fmt.Errorf("reverse geocode: %w", err)
		}
	}

	params := url.Values{
		"format":          {"jsonv2"},
		"lat":             {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":             {strconv.FormatFloat(lon, 'f', -1, 64)},
		"zoom":            {"18"},
		"addressdetails":  {"1"},
		"accept-language": {c.language},
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, c.baseURL+"/reverse?"+params.Encode())
	})
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(outcomeError).Inc()
		return domain.GeocodingResult{}, fmt.Errorf("reverse geocode (%f, %f): %w", lat, lon, err)
	}

	result, err := decode(body.([]byte))
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(outcomeError).Inc()
		return domain.GeocodingResult{}, err
	}
	if result.Found {
		c.metrics.GeocodeRequests.WithLabelValues(outcomeFound).Inc()
	} else {
		c.metrics.GeocodeRequests.WithLabelValues(outcomeNotFound).Inc()
	}
	return result, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

// decode maps a jsonv2 reverse response to a result.
func decode(body []byte) (domain.GeocodingResult, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != "" || len(resp.Address) == 0 {
		return domain.GeocodingResult{}, nil
	}
	return domain.GeocodingResult{
		Address: domain.AddressFromComponents(resp.Address),
		Found:   true,
	}, nil
}

// Nominatim API response types.

type response struct {
	Error       string            `json:"error"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}
