package sweep

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wesleyorama2/simsweep/internal/sweep/config"
	"github.com/wesleyorama2/simsweep/internal/sweep/engine"
	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
	"github.com/wesleyorama2/simsweep/internal/sweep/scheduler"
	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

// Config is the configuration of a sweep.
type Config = config.SweepConfig

// Range is an inclusive range of concurrency levels.
type Range = layout.Range

// Task is one simulation run.
type Task = task.Task

// TaskRunner executes one task to completion, writing its output files.
type TaskRunner = scheduler.RunnerFunc

// LoadConfig loads a sweep configuration from a YAML, JSON or TOML file.
func LoadConfig(path string) (*Config, error) {
	return config.LoadConfig(path)
}

// Benchmark is the row of one layout in the result matrix.
type Benchmark struct {
	// Layout is the layout label, e.g. "128x8"
	Layout string `json:"layout"`

	// Means holds the mean events per second for each concurrency level
	Means []float64 `json:"means"`
}

// Result contains the outcome of a sweep.
type Result struct {
	Levels     []int       `json:"levels"`
	Benchmarks []Benchmark `json:"benchmarks"`

	// Ran and Skipped count executed and already up-to-date tasks
	Ran     int `json:"ran"`
	Skipped int `json:"skipped"`

	Duration time.Duration `json:"duration"`

	// Summary and Plot are the written report files
	Summary string `json:"summary,omitempty"`
	Plot    string `json:"plot,omitempty"`
}

// Runner provides a high-level API for running sweeps.
//
//	runner := sweep.NewRunner(cfg).WithLogger(logger)
//	result, _ := runner.Run(context.Background())
type Runner struct {
	config     *Config
	logger     *zap.Logger
	taskRunner TaskRunner
}

// NewRunner creates a new sweep runner with the given configuration.
func NewRunner(cfg *Config) *Runner {
	return &Runner{config: cfg}
}

// WithLogger sets the structured logger for sweep events.
func (r *Runner) WithLogger(logger *zap.Logger) *Runner {
	r.logger = logger
	return r
}

// WithTaskRunner replaces the shell runner, e.g. to drive a simulator
// through an API instead of a command line.
func (r *Runner) WithTaskRunner(fn TaskRunner) *Runner {
	r.taskRunner = fn
	return r
}

// Run executes the sweep. It fails on the first failing task or
// unreadable result, in which case no reports are written.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := engine.Config{Sweep: r.config, Logger: r.logger}
	if r.taskRunner != nil {
		cfg.Runner = r.taskRunner
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	res, err := eng.Run(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Levels:   res.Matrix.Levels,
		Ran:      res.Report.Succeeded,
		Skipped:  res.Report.Skipped,
		Duration: res.Report.Elapsed,
		Summary:  res.Files.Summary,
		Plot:     res.Files.Plot,
	}
	for i, l := range res.Matrix.Layouts {
		result.Benchmarks = append(result.Benchmarks, Benchmark{
			Layout: l.Label(),
			Means:  res.Matrix.Row(i),
		})
	}
	return result, nil
}

// Run executes a sweep with the default shell runner.
func Run(ctx context.Context, cfg *Config) (*Result, error) {
	return NewRunner(cfg).Run(ctx)
}
