package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/jp-air-features/internal/observability"
)

const (
	testUserAgent     = "jp-air-features-test/1.0"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) (*Client, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(Options{
		BaseURL:   baseURL,
		UserAgent: testUserAgent,
		Language:  "en",
		Timeout:   5 * time.Second,
	}, m, logger), m
}

func jsonHandler(t *testing.T, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, err := io.WriteString(w, body)
		require.NoError(t, err)
	}
}

func TestClient_ReverseGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "jsonv2", q.Get("format"))
		assert.Equal(t, "35.6895", q.Get("lat"))
		assert.Equal(t, "139.6917", q.Get("lon"))
		assert.Equal(t, "18", q.Get("zoom"))
		assert.Equal(t, "1", q.Get("addressdetails"))
		assert.Equal(t, "en", q.Get("accept-language"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, `{
			"display_name": "Shinjuku, Tokyo, 160-0023, Japan",
			"address": {
				"road": "Ome-kaido",
				"suburb": "Nishi-Shinjuku",
				"city": "Shinjuku",
				"province": "Tokyo",
				"postcode": "160-0023",
				"country": "Japan"
			}
		}`)
	}))
	defer srv.Close()

	c, m := testClient(srv.URL)
	result, err := c.ReverseGeocode(context.Background(), 35.6895, 139.6917)
	require.NoError(t, err)

	require.True(t, result.Found)
	assert.Equal(t, "Tokyo", *result.Address.Prefecture)
	assert.Equal(t, "Shinjuku", *result.Address.City)
	assert.Equal(t, "Ome-kaido", *result.Address.Street)
	assert.Equal(t, "160-0023", *result.Address.Postcode)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues(outcomeFound)), 0)
}

func TestClient_ReverseGeocode_ErrorMemberIsNotFound(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"error":"Unable to geocode"}`))
	defer srv.Close()

	c, m := testClient(srv.URL)
	result, err := c.ReverseGeocode(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Nil(t, result.Address.Prefecture)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues(outcomeNotFound)), 0)
}

func TestClient_ReverseGeocode_PartialAddress(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"address":{"state":"Hokkaido"}}`))
	defer srv.Close()

	c, _ := testClient(srv.URL)
	result, err := c.ReverseGeocode(context.Background(), 43, 141)
	require.NoError(t, err)
	require.True(t, result.Found)
	assert.Equal(t, "Hokkaido", *result.Address.Prefecture)
	assert.Nil(t, result.Address.City)
	assert.Nil(t, result.Address.Street)
	assert.Nil(t, result.Address.Postcode)
}

func TestClient_ReverseGeocode_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "overloaded")
	}))
	defer srv.Close()

	c, m := testClient(srv.URL)
	_, err := c.ReverseGeocode(context.Background(), 35, 139)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeRequests.WithLabelValues(outcomeError)), 0)
}

func TestClient_ReverseGeocode_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{not json`))
	defer srv.Close()

	c, _ := testClient(srv.URL)
	_, err := c.ReverseGeocode(context.Background(), 35, 139)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_ReverseGeocode_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{}`))
	defer srv.Close()

	c, _ := testClient(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ReverseGeocode(ctx, 35, 139)
	assert.Error(t, err)
}

func TestClient_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := testClient(srv.URL)
	for range 5 {
		_, err := c.ReverseGeocode(context.Background(), 35, 139)
		require.Error(t, err)
	}

	_, err := c.ReverseGeocode(context.Background(), 35, 139)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.EqualValues(t, 5, calls.Load())
}

func TestClient_MinIntervalPacesRequests(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"error":"none"}`))
	defer srv.Close()

	m := observability.NewMetricsForTesting()
	c := NewClient(Options{
		BaseURL:     srv.URL,
		UserAgent:   testUserAgent,
		Timeout:     time.Second,
		MinInterval: 50 * time.Millisecond,
	}, m, slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Now()
	for range 3 {
		_, err := c.ReverseGeocode(context.Background(), 35, 139)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}
