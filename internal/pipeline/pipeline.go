// Package pipeline runs the batch stages in order. Each stage consumes the
// durable artifacts of the ones before it and publishes its own output only
// when it completes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/jp-air-features/internal/adapter/csvio"
	"github.com/couchcryptid/jp-air-features/internal/config"
	"github.com/couchcryptid/jp-air-features/internal/domain"
	"github.com/couchcryptid/jp-air-features/internal/observability"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageHolidays Stage = "holidays"
	StageStations Stage = "stations"
	StageConvert  Stage = "convert"
	StageFeatures Stage = "features"
	StageProject  Stage = "project"
)

// AllStages is the full run in dependency order.
var AllStages = []Stage{StageHolidays, StageStations, StageConvert, StageFeatures, StageProject}

// ParseStages resolves a command-line stage name. "all" selects every stage.
func ParseStages(name string) ([]Stage, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "all" {
		return AllStages, nil
	}
	for _, s := range AllStages {
		if string(s) == name {
			return []Stage{s}, nil
		}
	}
	return nil, fmt.Errorf("unknown stage %q", name)
}

// result counts the rows a stage consumed and produced.
type result struct {
	read    int64
	written int64
}

type stageFunc func(ctx context.Context) (result, error)

// Runner executes pipeline stages against one configuration.
type Runner struct {
	cfg      *config.Config
	provider domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	stages   map[Stage]stageFunc

	ready   atomic.Bool
	current atomic.Pointer[Stage]
}

// Option customizes a Runner.
type Option func(*Runner)

// WithProvider replaces the reverse geocoding provider used on cache misses.
// It has no effect when geocoding is disabled in the configuration.
func WithProvider(g domain.Geocoder) Option {
	return func(r *Runner) { r.provider = g }
}

// WithClock sets the time source used for stage timing.
func WithClock(c clockwork.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// New creates a Runner. cfg is read but never modified.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.stages = map[Stage]stageFunc{
		StageHolidays: r.runHolidays,
		StageStations: r.runStations,
		StageConvert:  r.runConvert,
		StageFeatures: r.runFeatures,
		StageProject:  r.runProject,
	}
	return r
}

// CheckReadiness returns nil while a run is in progress and no stage has
// failed, or an error describing why the runner is not ready.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("pipeline is not running")
	}
	return nil
}

// CurrentStage returns the stage being executed, or "" between runs.
func (r *Runner) CurrentStage() Stage {
	if s := r.current.Load(); s != nil {
		return *s
	}
	return ""
}

// Run executes stages sequentially. It stops at the first failing stage;
// artifacts of the stages that completed before it are kept.
func (r *Runner) Run(ctx context.Context, stages []Stage) error {
	r.logger.Info("pipeline started", "stages", stages)
	if err := ctx.Err(); err != nil {
		return err
	}
	if s, err := r.checkInputs(stages); err != nil {
		r.metrics.StageFailures.WithLabelValues(string(s)).Inc()
		r.logger.Error("input check failed", "stage", string(s), "error", err)
		return fmt.Errorf("stage %s: %w", s, err)
	}

	r.metrics.PipelineRunning.Set(1)
	r.ready.Store(true)
	defer func() {
		r.metrics.PipelineRunning.Set(0)
		r.ready.Store(false)
		r.current.Store(nil)
	}()

	start := r.clock.Now()
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			r.logger.Info("pipeline stopping", "reason", err)
			return err
		}
		if err := r.runStage(ctx, s); err != nil {
			return err
		}
	}
	r.logger.Info("pipeline finished", "duration", r.clock.Since(start))
	return nil
}

// checkInputs validates the headers of the raw files read by the selected
// stages, so a bad input fails the run before any artifact is written or any
// provider request is made.
func (r *Runner) checkInputs(stages []Stage) (Stage, error) {
	for _, s := range stages {
		var err error
		switch s {
		case StageStations:
			_, err = readFile(r.cfg.StationInfoCSV, func(rd io.Reader) (struct{}, error) {
				return struct{}{}, csvio.CheckStationInfo(rd)
			})
		case StageConvert:
			_, err = readFile(r.cfg.ObsCSV, csvio.NewObservationReader)
		}
		if err != nil {
			return s, err
		}
	}
	return "", nil
}

func (r *Runner) runStage(ctx context.Context, s Stage) error {
	fn, ok := r.stages[s]
	if !ok {
		return fmt.Errorf("unknown stage %q", s)
	}
	r.current.Store(&s)
	label := string(s)

	r.logger.Info("stage started", "stage", label)
	start := r.clock.Now()
	res, err := fn(ctx)
	elapsed := r.clock.Since(start)
	r.metrics.StageDuration.WithLabelValues(label).Observe(elapsed.Seconds())

	if err != nil {
		r.metrics.StageFailures.WithLabelValues(label).Inc()
		r.ready.Store(false)
		r.logger.Error("stage failed", "stage", label, "duration", elapsed, "error", err)
		return fmt.Errorf("stage %s: %w", s, err)
	}

	r.metrics.StageRowsRead.WithLabelValues(label).Add(float64(res.read))
	r.metrics.StageRowsWritten.WithLabelValues(label).Add(float64(res.written))
	r.logger.Info("stage finished",
		"stage", label,
		"rows_read", res.read,
		"rows_written", res.written,
		"duration", elapsed,
	)
	return nil
}
