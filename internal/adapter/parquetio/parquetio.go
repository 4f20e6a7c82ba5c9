// Package parquetio reads and writes the pipeline's columnar artifacts with
// ZSTD compression. Writes are staged through the artifact package so a
// failed run never leaves a partial file behind.
package parquetio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/jp-air-features/internal/adapter/artifact"
	"github.com/couchcryptid/jp-air-features/internal/domain"
)

// DefaultBatchSize is the number of rows buffered per read call.
const DefaultBatchSize = 8192

// Emit appends rows to an open parquet writer.
type Emit[T any] func(rows ...T) error

// Write stages a parquet file of T at path. fill produces the rows through
// emit; the file is published only if fill and the footer write succeed.
// It returns the number of rows written.
func Write[T any](path, workDir string, fill func(emit Emit[T]) error) (int64, error) {
	var n int64
	err := artifact.Write(path, workDir, func(out io.Writer) error {
		w := parquet.NewGenericWriter[T](out, parquet.Compression(&parquet.Zstd))
		emit := func(rows ...T) error {
			written, err := w.Write(rows)
			n += int64(written)
			return err
		}
		if err := fill(emit); err != nil {
			return err
		}
		return w.Close()
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Read calls fn with successive batches of rows from path. The batch slice is
// reused between calls. It returns the number of rows read.
func Read[T any](path string, batchSize int, fn func(batch []T) error) (int64, error) {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := parquet.NewGenericReader[T](f)
	defer r.Close()

	var total int64
	buf := make([]T, batchSize)
	for {
		clear(buf)
		n, err := r.Read(buf)
		if n > 0 {
			total += int64(n)
			if ferr := fn(buf[:n]); ferr != nil {
				return total, ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("read %s: %w", path, err)
		}
	}
}

// ReadAll loads every row of path into memory.
func ReadAll[T any](path string) ([]T, error) {
	var out []T
	_, err := Read(path, DefaultBatchSize, func(batch []T) error {
		out = append(out, batch...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Info describes a parquet file without reading its rows.
type Info struct {
	Rows    int64
	Columns []string
}

// Stat reads the footer of path.
func Stat(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Info{}, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return Info{}, fmt.Errorf("open %s: %w", path, err)
	}
	fields := pf.Schema().Fields()
	cols := make([]string, len(fields))
	for i, fld := range fields {
		cols[i] = fld.Name()
	}
	return Info{Rows: pf.NumRows(), Columns: cols}, nil
}

// WriteObservations writes the normalized observation artifact.
func WriteObservations(path, workDir string, fill func(emit Emit[domain.Observation]) error) (int64, error) {
	return Write(path, workDir, fill)
}

// ReadObservations loads the normalized observation artifact.
func ReadObservations(path string) ([]domain.Observation, error) {
	return ReadAll[domain.Observation](path)
}

// WriteFeatures writes the wide feature artifact.
func WriteFeatures(path, workDir string, records []domain.FeatureRecord) (int64, error) {
	return Write(path, workDir, func(emit Emit[domain.FeatureRecord]) error {
		for start := 0; start < len(records); start += DefaultBatchSize {
			end := min(start+DefaultBatchSize, len(records))
			if err := emit(records[start:end]...); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadFeatures streams the wide feature artifact in batches.
func ReadFeatures(path string, fn func(batch []domain.FeatureRecord) error) (int64, error) {
	return Read(path, DefaultBatchSize, fn)
}
