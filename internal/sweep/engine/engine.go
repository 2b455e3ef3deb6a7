// Package engine orchestrates a complete sweep: planning, scheduled
// execution, result extraction, aggregation and reporting.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wesleyorama2/simsweep/internal/sweep/aggregate"
	"github.com/wesleyorama2/simsweep/internal/sweep/config"
	"github.com/wesleyorama2/simsweep/internal/sweep/extract"
	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
	"github.com/wesleyorama2/simsweep/internal/sweep/report"
	"github.com/wesleyorama2/simsweep/internal/sweep/runner"
	"github.com/wesleyorama2/simsweep/internal/sweep/scheduler"
	"github.com/wesleyorama2/simsweep/internal/sweep/store"
	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

// ErrPrecondition marks a sweep that cannot start: the model script is
// missing or the output directory cannot be created.
var ErrPrecondition = errors.New("precondition failed")

// ExtractionObserver is implemented by scheduler observers that also want
// the extracted sample of every task.
type ExtractionObserver interface {
	TaskExtracted(t *task.Task, s extract.Sample)
}

// Config contains the collaborators of an Engine. Only Sweep is required.
type Config struct {
	Sweep *config.SweepConfig

	// Runner executes tasks. Defaults to a runner.Shell.
	Runner scheduler.Runner

	// Renderer draws the comparison plot. Defaults to a report.Plotter;
	// the plot is skipped when Output.Plot is "-".
	Renderer report.Renderer

	// Logger receives structured sweep and task events.
	Logger *zap.Logger

	// Observers are notified of task events in addition to the built-in
	// logging and cleanup observers.
	Observers []scheduler.Observer

	// Stderr receives the simulator's standard error.
	Stderr io.Writer

	// Store overrides the database named by Output.Database.
	Store *store.Store
}

// Plan is the materialised task matrix of a sweep.
type Plan struct {
	Layouts []layout.Layout
	Levels  []int
	Tasks   []*task.Task

	// Order is the randomized execution order for Seed.
	Order []*task.Task
	Seed  uint64
}

// Result is the outcome of Run.
type Result struct {
	Plan    *Plan
	Report  *scheduler.Report
	Matrix  *aggregate.Matrix
	Files   report.Files
	SweepID int64
}

// Engine runs sweeps.
//
// Example usage:
//
//	cfg, _ := config.LoadConfig("sweep.yaml")
//	eng, _ := engine.New(engine.Config{Sweep: cfg})
//	result, err := eng.Run(context.Background())
type Engine struct {
	cfg       *config.SweepConfig
	runner    scheduler.Runner
	renderer  report.Renderer
	logger    *zap.Logger
	observers []scheduler.Observer
	store     *store.Store
	extractor *extract.Extractor
	seed      uint64
}

// New applies defaults to the sweep configuration, validates it and
// creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Sweep == nil {
		return nil, fmt.Errorf("sweep configuration cannot be nil")
	}
	sc := cfg.Sweep
	sc.ApplyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ex, err := extract.New(sc.ExtractConfig())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Engine{
		cfg:       sc,
		runner:    cfg.Runner,
		renderer:  cfg.Renderer,
		logger:    cfg.Logger,
		observers: cfg.Observers,
		store:     cfg.Store,
		extractor: ex,
		seed:      sc.Scheduler.Seed,
	}

	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.runner == nil {
		e.runner = &runner.Shell{Stderr: cfg.Stderr, Env: sc.Simulator.Env}
	}
	if e.renderer == nil {
		e.renderer = report.NewPlotter()
	}
	if e.seed == 0 {
		e.seed = rand.Uint64()
	}
	return e, nil
}

// Config returns the effective sweep configuration.
func (e *Engine) Config() *config.SweepConfig {
	return e.cfg
}

// Plan materialises the sweep's tasks without running anything.
func (e *Engine) Plan() (*Plan, error) {
	levels, err := e.cfg.Levels()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	layouts := e.cfg.Layouts()

	tasks := task.Plan(task.PlanConfig{
		Layouts:  layouts,
		Levels:   levels,
		Trials:   e.cfg.Trials,
		Dir:      e.cfg.OutputDir,
		StatsExt: extract.Shape(e.cfg.Stats.Format).StatsExt(),
		Inputs:   []string{e.cfg.App},
		Builder:  e.cfg.CommandBuilder(),
	})

	s := e.newScheduler(nil)
	if err := s.Validate(tasks); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Plan{
		Layouts: layouts,
		Levels:  levels,
		Tasks:   tasks,
		Order:   s.Order(tasks),
		Seed:    e.seed,
	}, nil
}

func (e *Engine) newScheduler(observers []scheduler.Observer) *scheduler.Scheduler {
	return scheduler.New(e.runner, scheduler.Config{
		Capacity:  e.cfg.Scheduler.Capacity,
		Seed:      e.seed,
		Observers: observers,
	})
}

// CheckPreconditions verifies that the model script is a regular file and
// that the output directory exists or can be created.
func (e *Engine) CheckPreconditions() error {
	info, err := os.Stat(e.cfg.App)
	if err != nil {
		return fmt.Errorf("%w: model script: %v", ErrPrecondition, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: model script %s is a directory", ErrPrecondition, e.cfg.App)
	}
	if err := os.MkdirAll(e.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("%w: output directory: %v", ErrPrecondition, err)
	}
	return nil
}

// Run executes the sweep. Any task or extraction failure fails the sweep;
// reports are only written when every task produced a valid sample. The
// returned Result is non-nil whenever scheduling started, so callers can
// summarize partial runs.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if err := e.CheckPreconditions(); err != nil {
		return nil, err
	}

	plan, err := e.Plan()
	if err != nil {
		return nil, err
	}
	result := &Result{Plan: plan}

	log := e.logger.With(zap.String("app", e.cfg.App), zap.String("dir", e.cfg.OutputDir))
	log.Info("sweep planned",
		zap.Int("layouts", len(plan.Layouts)),
		zap.Ints("levels", plan.Levels),
		zap.Int("trials", e.cfg.Trials),
		zap.Int("tasks", len(plan.Tasks)),
		zap.Int("capacity", e.cfg.Scheduler.Capacity),
		zap.Uint64("seed", plan.Seed))

	st, closeStore, err := e.openStore()
	if err != nil {
		return nil, err
	}
	defer closeStore()

	if st != nil {
		result.SweepID, err = st.BeginSweep(ctx, store.Sweep{
			App:       e.cfg.App,
			Dir:       e.cfg.OutputDir,
			Mode:      e.cfg.Mode,
			Seed:      plan.Seed,
			Trials:    e.cfg.Trials,
			StartedAt: time.Now(),
		})
		if err != nil {
			return nil, err
		}
	}

	runErr := e.run(ctx, plan, result, log, st)

	if st != nil {
		status := store.StatusSucceeded
		if runErr != nil {
			status = store.StatusFailed
		}
		// The sweep outcome is already decided; a bookkeeping failure is
		// only reported when the sweep itself succeeded.
		if err := st.FinishSweep(context.WithoutCancel(ctx), result.SweepID, status); err != nil && runErr == nil {
			runErr = err
		}
	}

	if runErr != nil {
		log.Error("sweep failed", zap.Error(runErr))
		return result, runErr
	}
	log.Info("sweep completed",
		zap.Duration("duration", result.Report.Elapsed),
		zap.Int("ran", result.Report.Succeeded),
		zap.Int("skipped", result.Report.Skipped))
	return result, nil
}

func (e *Engine) run(ctx context.Context, plan *Plan, result *Result, log *zap.Logger, st *store.Store) error {
	observers := []scheduler.Observer{&scheduler.LogObserver{Logger: e.logger, ShowCommand: e.cfg.Output.Verbose}}
	if !e.cfg.Scheduler.KeepFailedOutputs {
		observers = append(observers, &scheduler.CleanupObserver{Logger: e.logger})
	}
	observers = append(observers, e.observers...)

	rep, err := e.newScheduler(observers).Run(ctx, plan.Tasks)
	result.Report = rep
	if err != nil {
		return err
	}

	collector := aggregate.NewCollector()
	for _, t := range plan.Tasks {
		s, err := e.extractor.Sample(t)
		if err != nil {
			return err
		}
		log.Debug("sample extracted",
			zap.String("task", t.Name),
			zap.Float64("elapsed", s.Elapsed),
			zap.Int64("events", s.Events),
			zap.Float64("rate", s.Rate))
		e.notifyExtracted(t, s)

		collector.Add(t.Layout, t.Concurrency, s.Rate)
		if st != nil {
			err := st.RecordSample(ctx, result.SweepID, store.Sample{
				Task:        t.Name,
				Layout:      t.Layout,
				Concurrency: t.Concurrency,
				Trial:       t.Trial,
				Elapsed:     s.Elapsed,
				Events:      s.Events,
				Rate:        s.Rate,
			})
			if err != nil {
				return err
			}
		}
	}

	m, err := collector.Build(plan.Layouts, plan.Levels)
	if err != nil {
		return fmt.Errorf("aggregate results: %w", err)
	}
	result.Matrix = m

	opts := report.Options{
		Mode:     task.Mode(e.cfg.Mode),
		Title:    e.cfg.Output.Title,
		PlotFile: e.cfg.Output.Plot,
	}
	files, err := report.Write(e.cfg.OutputDir, opts, m, e.renderer)
	result.Files = files
	if err != nil {
		return err
	}
	log.Info("reports written", zap.String("summary", files.Summary), zap.String("plot", files.Plot))
	return nil
}

func (e *Engine) notifyExtracted(t *task.Task, s extract.Sample) {
	for _, o := range e.observers {
		if eo, ok := o.(ExtractionObserver); ok {
			eo.TaskExtracted(t, s)
		}
	}
}

// openStore returns the configured result store, opening the database
// named in the output settings when no store was injected.
func (e *Engine) openStore() (*store.Store, func(), error) {
	if e.store != nil {
		return e.store, func() {}, nil
	}
	if e.cfg.Output.Database == "" {
		return nil, func() {}, nil
	}
	st, err := store.Open(e.cfg.Output.Database)
	if err != nil {
		return nil, nil, err
	}
	return st, func() {
		if err := st.Close(); err != nil {
			e.logger.Warn("could not close result store", zap.Error(err))
		}
	}, nil
}
