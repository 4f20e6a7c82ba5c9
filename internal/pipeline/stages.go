package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/jp-air-features/internal/adapter/artifact"
	"github.com/couchcryptid/jp-air-features/internal/adapter/csvio"
	"github.com/couchcryptid/jp-air-features/internal/adapter/geocache"
	"github.com/couchcryptid/jp-air-features/internal/adapter/nominatim"
	"github.com/couchcryptid/jp-air-features/internal/adapter/parquetio"
	"github.com/couchcryptid/jp-air-features/internal/domain"
	"github.com/couchcryptid/jp-air-features/internal/export"
	"github.com/couchcryptid/jp-air-features/internal/features"
)

const (
	geocodeProgressEvery = 50
	convertBatchSize     = 4096
)

// runHolidays writes the holiday table for the configured year range.
func (r *Runner) runHolidays(_ context.Context) (result, error) {
	holidays := domain.JapaneseHolidays(r.cfg.StartYear, r.cfg.EndYear)
	err := artifact.Write(r.cfg.HolidaysCSV, r.cfg.WorkDir, func(w io.Writer) error {
		return csvio.WriteHolidays(w, holidays)
	})
	if err != nil {
		return result{}, err
	}
	r.logger.Info("holiday table written",
		"path", r.cfg.HolidaysCSV,
		"start_year", r.cfg.StartYear,
		"end_year", r.cfg.EndYear,
		"holidays", len(holidays),
	)
	return result{written: int64(len(holidays))}, nil
}

// runStations parses station coordinates, resolves addresses through the
// persistent cache and writes the station address table.
func (r *Runner) runStations(ctx context.Context) (result, error) {
	raw, err := readFile(r.cfg.StationInfoCSV, csvio.ReadStationInfo)
	if err != nil {
		return result{}, err
	}

	store, err := geocache.Open(r.cfg.GeocachePath)
	if err != nil {
		return result{}, err
	}
	defer store.Close()

	geocoder := geocache.NewCachedGeocoder(r.geocodeProvider(), store, r.metrics, r.logger)

	states := make(map[domain.GeoState]int)
	records := make([]domain.StationRecord, 0, len(raw))
	for i, rs := range raw {
		if err := ctx.Err(); err != nil {
			return result{}, err
		}
		st := domain.Station{ID: rs.ID, Name: rs.Name, Location: domain.ParseGeolocation(rs.Geolocation)}
		if st.Location == nil {
			r.logger.Warn("unparseable geolocation", "station_id", rs.ID, "geolocation", rs.Geolocation)
		}
		st = domain.ResolveAddress(ctx, st, geocoder, r.logger)
		states[st.GeoState]++
		records = append(records, st.Record())

		if (i+1)%geocodeProgressEvery == 0 {
			r.logger.Info("geocoding progress", "done", i+1, "total", len(raw))
		}
	}

	err = artifact.Write(r.cfg.StationENCSV, r.cfg.WorkDir, func(w io.Writer) error {
		return csvio.WriteStationTable(w, records)
	})
	if err != nil {
		return result{}, err
	}
	r.logger.Info("station table written",
		"path", r.cfg.StationENCSV,
		"resolved", states[domain.GeoResolved],
		"not_found", states[domain.GeoNotFound],
		"failed", states[domain.GeoFailed],
		"no_coordinates", states[domain.GeoNoCoordinates],
	)
	return result{read: int64(len(raw)), written: int64(len(records))}, nil
}

// geocodeProvider returns the geocoder consulted on cache misses, or nil when
// lookups are disabled.
func (r *Runner) geocodeProvider() domain.Geocoder {
	if !r.cfg.GeocodeEnabled {
		r.metrics.GeocodeEnabled.Set(0)
		r.logger.Info("geocoding disabled, using cache only", "cache", r.cfg.GeocachePath)
		return nil
	}
	r.metrics.GeocodeEnabled.Set(1)
	if r.provider != nil {
		return r.provider
	}
	r.logger.Info("geocoding enabled",
		"base_url", r.cfg.GeocodeBaseURL,
		"min_interval", r.cfg.GeocodeMinInterval,
		"timeout", r.cfg.GeocodeTimeout,
	)
	return nominatim.NewClient(nominatim.Options{
		BaseURL:     r.cfg.GeocodeBaseURL,
		UserAgent:   r.cfg.GeocodeUserAgent,
		Language:    r.cfg.GeocodeLanguage,
		Timeout:     r.cfg.GeocodeTimeout,
		MinInterval: r.cfg.GeocodeMinInterval,
	}, r.metrics, r.logger)
}

// runConvert streams the raw observations into the columnar store.
func (r *Runner) runConvert(ctx context.Context) (result, error) {
	f, err := os.Open(r.cfg.ObsCSV)
	if err != nil {
		return result{}, err
	}
	defer f.Close()

	rd, err := csvio.NewObservationReader(f)
	if err != nil {
		return result{}, err
	}

	var read int64
	written, err := parquetio.WriteObservations(r.cfg.ObsParquet, r.cfg.WorkDir, func(emit parquetio.Emit[domain.Observation]) error {
		batch := make([]domain.Observation, 0, convertBatchSize)
		for {
			o, err := rd.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			read++
			batch = append(batch, o)
			if len(batch) == convertBatchSize {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := emit(batch...); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		return emit(batch...)
	})
	if err != nil {
		return result{}, err
	}
	return result{read: read, written: written}, nil
}

// runFeatures joins the columnar store with the station and holiday tables
// and writes the wide feature artifact.
func (r *Runner) runFeatures(ctx context.Context) (result, error) {
	obs, err := parquetio.ReadObservations(r.cfg.ObsParquet)
	if err != nil {
		return result{}, err
	}
	stations, err := readFile(r.cfg.StationENCSV, csvio.ReadStationTable)
	if err != nil {
		return result{}, err
	}
	holidays, err := readFile(r.cfg.HolidaysCSV, csvio.ReadHolidays)
	if err != nil {
		return result{}, err
	}

	engine := features.New(r.cfg.Threads, r.logger, r.metrics)
	records, err := engine.Build(ctx, features.Inputs{
		Observations: obs,
		Stations:     stations,
		Holidays:     domain.NewHolidaySet(holidays),
	})
	if err != nil {
		return result{}, err
	}

	written, err := parquetio.WriteFeatures(r.cfg.FeaturedParquet, r.cfg.WorkDir, records)
	if err != nil {
		return result{}, err
	}
	return result{read: int64(len(obs)), written: written}, nil
}

// runProject flattens the feature artifact into the export table.
func (r *Runner) runProject(ctx context.Context) (result, error) {
	var read, written int64
	err := artifact.Write(r.cfg.FeatureTableCSV, r.cfg.WorkDir, func(w io.Writer) error {
		tw, err := csvio.NewTableWriter(w, export.Header())
		if err != nil {
			return err
		}
		n, err := parquetio.ReadFeatures(r.cfg.FeaturedParquet, func(batch []domain.FeatureRecord) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := range batch {
				if err := tw.Write(export.Project(&batch[i])); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		read, written = n, int64(tw.Rows())
		if read != written {
			return fmt.Errorf("projected %d rows from %d", written, read)
		}
		return nil
	})
	if err != nil {
		return result{}, err
	}
	return result{read: read, written: written}, nil
}

// readFile opens path and decodes it with read.
func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
