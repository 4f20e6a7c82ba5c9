package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/jp-air-features/internal/domain"
)

// obsDateLayouts are the accepted raw timestamp formats, tried in order.
var obsDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02",
}

// ObservationReader streams raw hourly observations from delimited text.
type ObservationReader struct {
	r    *csv.Reader
	h    header
	line int
}

// NewObservationReader reads and validates the header. Every column of the
// fixed raw schema is required; the error lists all missing columns.
func NewObservationReader(r io.Reader) (*ObservationReader, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if err := h.require(domain.ObservationColumns()...); err != nil {
		return nil, fmt.Errorf("observations: %w", err)
	}
	return &ObservationReader{r: cr, h: h, line: 1}, nil
}

// Read returns the next observation, or io.EOF after the last one. A cell
// that cannot be normalized is an error wrapping domain.ErrMalformedValue.
func (rd *ObservationReader) Read() (domain.Observation, error) {
	rec, err := rd.r.Read()
	if errors.Is(err, io.EOF) {
		return domain.Observation{}, io.EOF
	}
	rd.line++
	if err != nil {
		return domain.Observation{}, fmt.Errorf("observations line %d: %w", rd.line, err)
	}
	return rd.parse(rec)
}

// ReadAll drains the reader.
func (rd *ObservationReader) ReadAll() ([]domain.Observation, error) {
	var out []domain.Observation
	for {
		o, err := rd.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
}

func (rd *ObservationReader) parse(rec []string) (domain.Observation, error) {
	id := strings.TrimSpace(rd.h.get(rec, domain.ColumnStationID))
	if id == "" {
		return domain.Observation{}, rd.malformed(domain.ColumnStationID, "")
	}
	raw := rd.h.get(rec, domain.ColumnObsDate)
	ts, err := ParseObsDate(raw)
	if err != nil {
		return domain.Observation{}, rd.malformed(domain.ColumnObsDate, raw)
	}

	o := domain.Observation{StationID: id, ObsDate: ts}
	for _, f := range domain.MeasurementFields {
		raw := rd.h.get(rec, string(f))
		v, err := ParseMeasurement(raw)
		if err != nil {
			return domain.Observation{}, rd.malformed(string(f), raw)
		}
		o.Set(f, v)
	}
	return o, nil
}

func (rd *ObservationReader) malformed(col, raw string) error {
	return fmt.Errorf("observations line %d column %s %q: %w", rd.line, col, raw, domain.ErrMalformedValue)
}

// ParseObsDate parses a raw wall-clock timestamp. The result carries no zone
// semantics and is returned as UTC.
func ParseObsDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range obsDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseMeasurement parses a nullable float. Empty cells, null tokens and any
// spelling of NaN are nil; infinities are malformed.
func ParseMeasurement(s string) (*float64, error) {
	if isNull(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	switch {
	case math.IsNaN(v):
		return nil, nil
	case math.IsInf(v, 0):
		return nil, fmt.Errorf("%q: %w", s, domain.ErrMalformedValue)
	}
	return &v, nil
}

// ObservationWriter writes raw observations in the input schema.
type ObservationWriter struct {
	w   *csv.Writer
	buf []string
}

// NewObservationWriter writes the header immediately.
func NewObservationWriter(w io.Writer) (*ObservationWriter, error) {
	cw := csv.NewWriter(w)
	cols := domain.ObservationColumns()
	if err := cw.Write(cols); err != nil {
		return nil, err
	}
	return &ObservationWriter{w: cw, buf: make([]string, len(cols))}, nil
}

// Write appends one observation.
func (ow *ObservationWriter) Write(o domain.Observation) error {
	ow.buf[0] = o.StationID
	ow.buf[1] = o.ObsDate.Format(obsDateLayouts[0])
	for i, f := range domain.MeasurementFields {
		ow.buf[i+2] = formatFloat(o.Value(f))
	}
	return ow.w.Write(ow.buf)
}

// Flush flushes buffered rows and reports any write error.
func (ow *ObservationWriter) Flush() error {
	ow.w.Flush()
	return ow.w.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
