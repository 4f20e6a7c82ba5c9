package domain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// geolocationRe matches two numbers separated by a comma, optionally wrapped
// in parentheses: "(35.68, 139.69)" or "139.69,35.68". Only the prefix has to match.
var geolocationRe = regexp.MustCompile(`^\(?\s*([-\d.]+)\s*,\s*([-\d.]+)\s*\)?`)

// Station is one monitoring station with its parsed coordinates and the
// administrative address resolved for them.
type Station struct {
	ID       string
	Name     string
	Location *orb.Point // nil when the geolocation text could not be parsed
	Address  Address
	GeoState GeoState
}

// Lat returns the station latitude, or nil without coordinates.
func (s Station) Lat() *float64 {
	if s.Location == nil {
		return nil
	}
	return Float(s.Location.Lat())
}

// Lon returns the station longitude, or nil without coordinates.
func (s Station) Lon() *float64 {
	if s.Location == nil {
		return nil
	}
	return Float(s.Location.Lon())
}

// Address holds the administrative fields resolved by reverse geocoding.
// Each field is independently nil when the provider did not supply it.
type Address struct {
	Prefecture *string
	City       *string
	Street     *string
	Postcode   *string
}

// IsZero reports whether no address field is set.
func (a Address) IsZero() bool {
	return a.Prefecture == nil && a.City == nil && a.Street == nil && a.Postcode == nil
}

// Fallback chains, first non-empty component wins.
var (
	prefectureKeys = []string{"state", "province", "region"}
	cityKeys       = []string{"city", "town", "village", "municipality", "county"}
	streetKeys     = []string{"road", "neighbourhood", "suburb"}
	postcodeKeys   = []string{"postcode"}
)

// AddressFromComponents extracts the address fields from a provider's
// component map (e.g. {"state": "Tokyo", "road": "..."}).
func AddressFromComponents(components map[string]string) Address {
	return Address{
		Prefecture: firstComponent(components, prefectureKeys),
		City:       firstComponent(components, cityKeys),
		Street:     firstComponent(components, streetKeys),
		Postcode:   firstComponent(components, postcodeKeys),
	}
}

func firstComponent(components map[string]string, keys []string) *string {
	for _, k := range keys {
		if v := components[k]; v != "" {
			return String(v)
		}
	}
	return nil
}

// ParseGeolocation parses a free-text geolocation field into a point.
//
// The two numbers are disambiguated by magnitude: when exactly one of them
// exceeds 90 in absolute value it is the longitude, otherwise the pair is read
// as (latitude, longitude). Text that does not parse yields nil.
func ParseGeolocation(raw string) *orb.Point {
	m := geolocationRe.FindStringSubmatch(strings.TrimSpace(raw))
	if len(m) != 3 {
		return nil
	}
	a, errA := strconv.ParseFloat(m[1], 64)
	b, errB := strconv.ParseFloat(m[2], 64)
	if errA != nil || errB != nil {
		return nil
	}

	lat, lon := a, b
	if abs(a) > 90 && abs(b) <= 90 {
		lon, lat = a, b
	}
	return &orb.Point{lon, lat}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// StationTableColumns is the header of the station address table.
var StationTableColumns = []string{
	"stationid", "stationname", "prefecture_en", "city_en", "street_en", "pincode", "lat", "lon",
}

// StationRecord is one row of the station address table, the join input of
// the feature engine. Every attribute except the identifier is nullable.
type StationRecord struct {
	ID         string
	Name       *string
	Prefecture *string
	City       *string
	Street     *string
	Pincode    *string
	Lat        *float64
	Lon        *float64
}

// Record flattens the station into its address table row.
func (s Station) Record() StationRecord {
	var name *string
	if s.Name != "" {
		name = String(s.Name)
	}
	return StationRecord{
		ID:         s.ID,
		Name:       name,
		Prefecture: s.Address.Prefecture,
		City:       s.Address.City,
		Street:     s.Address.Street,
		Pincode:    s.Address.Postcode,
		Lat:        s.Lat(),
		Lon:        s.Lon(),
	}
}
