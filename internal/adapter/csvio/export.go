package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// TableWriter writes rows of nullable cells under a fixed header.
type TableWriter struct {
	w   *csv.Writer
	buf []string
	n   int
}

// NewTableWriter writes header immediately.
func NewTableWriter(w io.Writer, header []string) (*TableWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	return &TableWriter{w: cw, buf: make([]string, len(header))}, nil
}

// Write appends one row. Nil cells are written empty.
func (tw *TableWriter) Write(row []*string) error {
	if len(row) != len(tw.buf) {
		return fmt.Errorf("row has %d cells, header has %d", len(row), len(tw.buf))
	}
	for i, v := range row {
		tw.buf[i] = cell(v)
	}
	tw.n++
	return tw.w.Write(tw.buf)
}

// Rows returns the number of rows written so far.
func (tw *TableWriter) Rows() int { return tw.n }

// Flush flushes buffered rows and reports any write error.
func (tw *TableWriter) Flush() error {
	tw.w.Flush()
	return tw.w.Error()
}

// ReadTable reads a headered table, calling fn for each row with empty cells
// as nil. The header is returned as written, without normalization.
func ReadTable(r io.Reader, fn func(row []*string) error) ([]string, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	row := make([]*string, len(header))
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return header, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for i, v := range rec {
			if v == "" {
				row[i] = nil
				continue
			}
			s := v
			row[i] = &s
		}
		if err := fn(row); err != nil {
			return nil, err
		}
	}
}
