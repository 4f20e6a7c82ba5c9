package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/jp-air-features/internal/domain"
)

// Raw station info columns.
const (
	colGeolocation = "geolocation"
	colStationName = "stationname"
)

// RawStation is one row of the raw station info file.
type RawStation struct {
	ID          string
	Name        string
	Geolocation string
}

// CheckStationInfo validates the header of a raw station file without
// reading any rows.
func CheckStationInfo(r io.Reader) error {
	_, err := stationInfoHeader(newReader(r))
	return err
}

func stationInfoHeader(cr *csv.Reader) (header, error) {
	h, err := readHeader(cr)
	if err != nil {
		return nil, fmt.Errorf("station info: %w", err)
	}
	if err := h.require(domain.ColumnStationID, colGeolocation); err != nil {
		return nil, fmt.Errorf("station info: %w", err)
	}
	return h, nil
}

// ReadStationInfo reads the raw station file. Headers are matched after
// trimming and lower-casing; stationid and geolocation are required and
// stationname is optional.
func ReadStationInfo(r io.Reader) ([]RawStation, error) {
	cr := newReader(r)
	h, err := stationInfoHeader(cr)
	if err != nil {
		return nil, err
	}

	var out []RawStation
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("station info line %d: %w", line, err)
		}
		out = append(out, RawStation{
			ID:          strings.TrimSpace(h.get(rec, domain.ColumnStationID)),
			Name:        strings.TrimSpace(h.get(rec, colStationName)),
			Geolocation: h.get(rec, colGeolocation),
		})
	}
}

// WriteStationInfo writes raw station rows, used to produce fixtures.
func WriteStationInfo(w io.Writer, stations []RawStation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{domain.ColumnStationID, colStationName, colGeolocation}); err != nil {
		return err
	}
	for _, s := range stations {
		if err := cw.Write([]string{s.ID, s.Name, s.Geolocation}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStationTable writes the station address table.
func WriteStationTable(w io.Writer, records []domain.StationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.StationTableColumns); err != nil {
		return err
	}
	for _, s := range records {
		row := []string{
			s.ID,
			cell(s.Name),
			cell(s.Prefecture),
			cell(s.City),
			cell(s.Street),
			cell(s.Pincode),
			formatFloat(s.Lat),
			formatFloat(s.Lon),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadStationTable reads the station address table. Empty cells are null.
func ReadStationTable(r io.Reader) ([]domain.StationRecord, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, fmt.Errorf("station table: %w", err)
	}
	if err := h.require(domain.StationTableColumns...); err != nil {
		return nil, fmt.Errorf("station table: %w", err)
	}

	var out []domain.StationRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("station table line %d: %w", line, err)
		}

		lat, err := parseCoordinate(h.get(rec, "lat"))
		if err != nil {
			return nil, fmt.Errorf("station table line %d lat: %w", line, err)
		}
		lon, err := parseCoordinate(h.get(rec, "lon"))
		if err != nil {
			return nil, fmt.Errorf("station table line %d lon: %w", line, err)
		}

		out = append(out, domain.StationRecord{
			ID:         strings.TrimSpace(h.get(rec, domain.ColumnStationID)),
			Name:       nullable(h.get(rec, colStationName)),
			Prefecture: nullable(h.get(rec, "prefecture_en")),
			City:       nullable(h.get(rec, "city_en")),
			Street:     nullable(h.get(rec, "street_en")),
			Pincode:    nullable(h.get(rec, "pincode")),
			Lat:        lat,
			Lon:        lon,
		})
	}
}

func parseCoordinate(s string) (*float64, error) {
	v, err := ParseMeasurement(s)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s, domain.ErrMalformedValue)
	}
	return v, nil
}
