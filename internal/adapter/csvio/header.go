// Package csvio reads and writes the pipeline's delimited-text files: raw
// observations, raw station info, the holiday table, the station address
// table and the flat export.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/jp-air-features/internal/domain"
)

// header maps normalized column names to their position.
type header map[string]int

// readHeader reads the first record of r. Names are trimmed and lower-cased.
func readHeader(r *csv.Reader) (header, error) {
	rec, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := make(header, len(rec))
	for i, name := range rec {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h, nil
}

// require returns an error naming every missing column at once.
func (h header) require(cols ...string) error {
	var result *multierror.Error
	for _, c := range cols {
		if _, ok := h[c]; !ok {
			result = multierror.Append(result, fmt.Errorf("%w: %q", domain.ErrMissingColumn, c))
		}
	}
	return result.ErrorOrNil()
}

// get returns the cell for col, or "" when the column is absent or the row is short.
func (h header) get(rec []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// nullable returns nil for empty cells and null tokens.
func nullable(s string) *string {
	if isNull(s) {
		return nil
	}
	return domain.String(s)
}

func isNull(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "NA", "NaN", "nan", "null", "NULL", "None":
		return true
	}
	return false
}

// cell renders a nullable value as a CSV field; nulls are empty.
func cell(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
