// Command genmock writes deterministic synthetic raw inputs for local runs:
// a station info file and an hourly observation file in the raw schemas the
// pipeline reads.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out-dir datasets \
//	  -stations 20 \
//	  -days 14 \
//	  -start 2024-04-26
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/jp-air-features/internal/adapter/csvio"
	"github.com/couchcryptid/jp-air-features/internal/domain"
)

// site is a seed location stations are scattered around.
type site struct {
	name     string
	lat, lon float64
}

var sites = []site{
	{"Chiyoda", 35.6940, 139.7536},
	{"Shinjuku", 35.6938, 139.7034},
	{"Yokohama", 35.4437, 139.6380},
	{"Osaka", 34.6937, 135.5023},
	{"Nagoya", 35.1815, 136.9066},
	{"Sapporo", 43.0618, 141.3545},
	{"Fukuoka", 33.5904, 130.4017},
	{"Sendai", 38.2682, 140.8694},
	{"Hiroshima", 34.3853, 132.4553},
	{"Naha", 26.2124, 127.6809},
}

// options controls the generated fixture.
type options struct {
	stations int
	days     int
	start    time.Time
	seed     uint64
	nullRate float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "datasets", "output directory")
	stations := flag.Int("stations", 20, "number of stations")
	days := flag.Int("days", 14, "days of hourly observations per station")
	start := flag.String("start", "2024-04-26", "first observation date (YYYY-MM-DD)")
	seed := flag.Uint64("seed", 42, "random seed")
	nullRate := flag.Float64("null-rate", 0.05, "fraction of measurements left empty")
	flag.Parse()

	startDate, err := time.ParseInLocation(time.DateOnly, *start, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	if *stations < 1 || *days < 1 {
		flag.Usage()
		return fmt.Errorf("-stations and -days must be positive")
	}
	opts := options{stations: *stations, days: *days, start: startDate, seed: *seed, nullRate: *nullRate}

	raw, obs := generate(opts)

	stationPath := filepath.Join(*outDir, "station_info.csv")
	if err := writeFile(stationPath, func(w io.Writer) error {
		return csvio.WriteStationInfo(w, raw)
	}); err != nil {
		return fmt.Errorf("writing station fixture: %w", err)
	}
	log.Printf("wrote %d stations: %s", len(raw), stationPath)

	obsPath := filepath.Join(*outDir, "hourly_observations.csv")
	if err := writeFile(obsPath, func(w io.Writer) error {
		ow, err := csvio.NewObservationWriter(w)
		if err != nil {
			return err
		}
		for _, o := range obs {
			if err := ow.Write(o); err != nil {
				return err
			}
		}
		return ow.Flush()
	}); err != nil {
		return fmt.Errorf("writing observation fixture: %w", err)
	}
	log.Printf("wrote %d observations: %s", len(obs), obsPath)
	return nil
}

// generate builds the station list and hourly observations. The same options
// always yield the same output.
func generate(opts options) ([]csvio.RawStation, []domain.Observation) {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))

	stations := make([]csvio.RawStation, opts.stations)
	for i := range stations {
		s := sites[i%len(sites)]
		lat := s.lat + (rng.Float64()-0.5)*0.2
		lon := s.lon + (rng.Float64()-0.5)*0.2
		geo := fmt.Sprintf("(%.4f, %.4f)", lat, lon)
		switch i % 7 {
		case 3:
			geo = fmt.Sprintf("%.4f,%.4f", lon, lat) // longitude first
		case 6:
			geo = "unknown"
		}
		stations[i] = csvio.RawStation{
			ID:          fmt.Sprintf("%08d", 13101000+i),
			Name:        fmt.Sprintf("%s %d", s.name, i/len(sites)+1),
			Geolocation: geo,
		}
	}

	hours := opts.days * 24
	obs := make([]domain.Observation, 0, len(stations)*hours)
	for _, st := range stations {
		base := 0.5 + rng.Float64()
		for h := range hours {
			// Skip a few hours so rolling windows see gaps.
			if rng.Float64() < 0.02 {
				continue
			}
			ts := opts.start.Add(time.Duration(h) * time.Hour)
			o := domain.Observation{StationID: st.ID, ObsDate: ts}
			diurnal := 1 + 0.5*math.Sin(2*math.Pi*float64(ts.Hour()-6)/24)
			for _, f := range domain.MeasurementFields {
				if rng.Float64() < opts.nullRate {
					continue
				}
				o.Set(f, domain.Float(round(sample(rng, f, base, diurnal), 3)))
			}
			obs = append(obs, o)
		}
	}
	return stations, obs
}

// sample draws a plausible reading for f in its native unit.
func sample(rng *rand.Rand, f domain.Field, base, diurnal float64) float64 {
	noise := 0.7 + 0.6*rng.Float64()
	switch f {
	case domain.SO2:
		return 0.002 * base * noise
	case domain.NO:
		return 0.005 * base * diurnal * noise
	case domain.NO2:
		return 0.015 * base * diurnal * noise
	case domain.NOx:
		return 0.02 * base * diurnal * noise
	case domain.CO:
		return 0.3 * base * diurnal * noise
	case domain.Ox:
		return 0.035 * base * (2 - diurnal) * noise
	case domain.NMHC:
		return 0.1 * base * noise
	case domain.CH4:
		return 1.9 + 0.1*noise
	case domain.THC:
		return 2.0 + 0.2*noise
	case domain.SPM:
		return 0.02 * base * noise
	case domain.PM25:
		return 12 * base * noise
	case domain.SP:
		return 1013 + 10*(noise-1)
	case domain.WD:
		return math.Floor(rng.Float64() * 360)
	case domain.WS:
		return 3 * noise * diurnal
	case domain.Temp:
		return 15 + 8*(diurnal-1) + 3*(noise-1)
	case domain.Hum:
		return math.Min(100, 60*noise*(2-diurnal))
	}
	return 0
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
