package domain

import "context"

// GeocodingResult is the outcome of one reverse-geocoding lookup. Found is
// false when the provider affirmatively reported no match.
type GeocodingResult struct {
	Address Address
	Found   bool
}

// Geocoder resolves coordinates to an administrative address.
type Geocoder interface {
	// ReverseGeocode returns an error only when the lookup itself failed
	// (transport, provider outage); "no match" is a successful empty result.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
