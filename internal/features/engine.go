// Package features builds the engineered feature table: it joins observations
// with station metadata and the holiday calendar, computes the trailing 8-hour
// and same-day aggregates, profiles each station's history into quantile
// breakpoints, and labels every row.
//
// The engine runs one task per station on a bounded worker pool. Each task
// writes only the output slots of its own rows, so output order always equals
// input order.
package features

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/jp-air-features/internal/domain"
	"github.com/couchcryptid/jp-air-features/internal/observability"
)

// RollingWindow is the trailing span of the CO rolling mean, inclusive of both ends.
const RollingWindow = 8 * time.Hour

// Inputs are the three upstream artifacts the engine joins.
type Inputs struct {
	Observations []domain.Observation
	Stations     []domain.StationRecord
	Holidays     domain.HolidaySet
}

// Engine computes feature records. It is safe for concurrent use.
type Engine struct {
	threads int
	rules   []domain.LabelRule
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Engine that processes up to threads stations at once.
func New(threads int, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	if threads < 1 {
		threads = 1
	}
	return &Engine{
		threads: threads,
		rules:   domain.LabelRules(),
		logger:  logger,
		metrics: metrics,
	}
}

// Build returns one feature record per observation, in observation order.
func (e *Engine) Build(ctx context.Context, in Inputs) ([]domain.FeatureRecord, error) {
	stations := e.indexStations(in.Stations)
	groups, order := groupByStation(in.Observations)

	e.logger.Info("building features",
		"observations", len(in.Observations),
		"stations", len(order),
		"threads", e.threads,
	)

	out := make([]domain.FeatureRecord, len(in.Observations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.threads)
	for _, id := range order {
		rows := groups[id]
		station, known := stations[id]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var sp *domain.StationRecord
			if known {
				sp = &station
			}
			counts := e.buildStation(in.Observations, rows, sp, in.Holidays, out)
			e.recordLabels(counts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build features: %w", err)
	}

	unmatched := 0
	for _, id := range order {
		if _, ok := stations[id]; !ok {
			unmatched++
		}
	}
	if unmatched > 0 {
		e.logger.Warn("observations reference unknown stations, station fields left null",
			"stations", unmatched)
	}
	return out, nil
}

// indexStations keys the station table by identifier. The first row for an
// identifier wins.
func (e *Engine) indexStations(records []domain.StationRecord) map[string]domain.StationRecord {
	idx := make(map[string]domain.StationRecord, len(records))
	for _, s := range records {
		if _, dup := idx[s.ID]; dup {
			e.logger.Warn("duplicate station in address table, keeping first", "station_id", s.ID)
			continue
		}
		idx[s.ID] = s
	}
	return idx
}

// groupByStation returns the row indices of each station and the station
// identifiers in first-seen order.
func groupByStation(obs []domain.Observation) (map[string][]int, []string) {
	groups := make(map[string][]int)
	var order []string
	for i := range obs {
		id := obs[i].StationID
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], i)
	}
	return groups, order
}

// labelCounts tallies assigned labels by field and level.
type labelCounts map[domain.Field]map[domain.Level]int

// buildStation fills out[i] for every i in rows.
func (e *Engine) buildStation(
	obs []domain.Observation,
	rows []int,
	station *domain.StationRecord,
	holidays domain.HolidaySet,
	out []domain.FeatureRecord,
) labelCounts {
	for _, i := range rows {
		rec := domain.NewFeatureRecord(obs[i])
		if station != nil {
			rec.ApplyStation(*station)
		}
		rec.ApplyCalendar(domain.DeriveCalendar(rec.ObsDate, holidays))
		rec.WDDir = domain.WindDirection8(rec.WD)
		out[i] = rec
	}

	sorted := make([]int, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(a, b int) bool {
		return out[sorted[a]].ObsDate.Before(out[sorted[b]].ObsDate)
	})

	rollingMean(out, sorted, domain.CO, domain.CORoll8h, RollingWindow)
	dailyMean(out, rows, domain.PM25, domain.PM25DailyMean)
	dailyMean(out, rows, domain.NO2, domain.NO2DailyMean)

	profile := Profile(out, rows)

	counts := make(labelCounts)
	for _, i := range rows {
		env := rowEnv{rec: &out[i], profile: profile}
		for _, r := range e.rules {
			l := r.Apply(env)
			out[i].SetLabel(r.Field, l)
			if l != nil {
				if counts[r.Field] == nil {
					counts[r.Field] = make(map[domain.Level]int)
				}
				counts[r.Field][domain.Level(*l)]++
			}
		}
	}
	return counts
}

func (e *Engine) recordLabels(counts labelCounts) {
	if e.metrics == nil {
		return
	}
	for f, levels := range counts {
		for l, n := range levels {
			e.metrics.FeatureLabels.WithLabelValues(string(f), string(l)).Add(float64(n))
		}
	}
}

// rowEnv evaluates label expressions against one row and its station profile.
type rowEnv struct {
	rec     *domain.FeatureRecord
	profile domain.QuantileProfile
}

func (r rowEnv) Value(f domain.Field) *float64 { return r.rec.Value(f) }

func (r rowEnv) Breakpoint(f domain.Field, i int) *float64 { return r.profile.Breakpoint(f, i) }
