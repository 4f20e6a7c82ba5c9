package domain

import (
	"context"
	"log/slog"
)

// GeoState records how a station's address was obtained.
type GeoState string

const (
	GeoResolved      GeoState = "resolved"
	GeoNotFound      GeoState = "not_found"
	GeoFailed        GeoState = "failed"
	GeoNoCoordinates GeoState = "no_coordinates"
)

// ResolveAddress attempts to fill the station's address from its coordinates.
// Stations without coordinates are returned untouched. Lookup failures leave
// the address empty and mark the station as failed (graceful degradation); the
// pipeline continues with the next station.
func ResolveAddress(ctx context.Context, station Station, geocoder Geocoder, logger *slog.Logger) Station {
	if station.Location == nil {
		station.GeoState = GeoNoCoordinates
		return station
	}
	if geocoder == nil {
		return station
	}

	lat, lon := station.Location.Lat(), station.Location.Lon()
	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"station_id", station.ID,
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		station.Address = Address{}
		station.GeoState = GeoFailed
		return station
	}
	if !result.Found {
		station.Address = Address{}
		station.GeoState = GeoNotFound
		return station
	}

	station.Address = result.Address
	station.GeoState = GeoResolved
	return station
}
