package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/couchcryptid/jp-air-features/internal/domain"
)

const (
	colDate        = "date"
	colHolidayName = "holiday_name"
)

// WriteHolidays writes the holiday table as date,holiday_name.
func WriteHolidays(w io.Writer, holidays []domain.Holiday) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colDate, colHolidayName}); err != nil {
		return err
	}
	for _, h := range holidays {
		if err := cw.Write([]string{h.Date.Format(time.DateOnly), h.Name}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadHolidays reads the holiday table. Only the date column is required.
func ReadHolidays(r io.Reader) ([]domain.Holiday, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, fmt.Errorf("holidays: %w", err)
	}
	if err := h.require(colDate); err != nil {
		return nil, fmt.Errorf("holidays: %w", err)
	}

	var out []domain.Holiday
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("holidays line %d: %w", line, err)
		}
		raw := strings.TrimSpace(h.get(rec, colDate))
		d, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("holidays line %d date %q: %w", line, raw, domain.ErrMalformedValue)
		}
		out = append(out, domain.Holiday{Date: d, Name: h.get(rec, colHolidayName)})
	}
}
