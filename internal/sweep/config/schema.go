// Package config provides configuration parsing and validation for sweeps.
package config

import (
	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
)

// SweepConfig is the root configuration of a sweep.
//
// Example YAML:
//
//	app: models/benchmark.py
//	outputDir: results/threads
//	mode: threads
//	trials: 3
//	range:
//	  start: 1
//	  stop: 16
//	  step: 1
//	layout:
//	  components: 128
//	  eventsPerComponent: 8
//	simulator:
//	  topology: ring
//	  cycles: 200000
//	stats:
//	  format: csv
type SweepConfig struct {
	// App is the simulator model configuration script
	App string `json:"app,omitempty" yaml:"app,omitempty" toml:"app,omitempty"`

	// OutputDir receives task logs, statistics files and reports
	OutputDir string `json:"outputDir,omitempty" yaml:"outputDir,omitempty" toml:"outputDir,omitempty"`

	// Mode is "threads" or "processes"
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty" toml:"mode,omitempty"`

	// Trials is the number of repetitions per (layout, concurrency) pair
	Trials int `json:"trials,omitempty" yaml:"trials,omitempty" toml:"trials,omitempty"`

	// Range of concurrency levels. Defaults to one level per host CPU.
	Range *layout.Range `json:"range,omitempty" yaml:"range,omitempty" toml:"range,omitempty"`

	Layout    LayoutConfig    `json:"layout,omitempty" yaml:"layout,omitempty" toml:"layout,omitempty"`
	Simulator SimulatorConfig `json:"simulator,omitempty" yaml:"simulator,omitempty" toml:"simulator,omitempty"`
	Stats     StatsConfig     `json:"stats,omitempty" yaml:"stats,omitempty" toml:"stats,omitempty"`
	Scheduler SchedulerConfig `json:"scheduler,omitempty" yaml:"scheduler,omitempty" toml:"scheduler,omitempty"`
	Output    OutputConfig    `json:"output,omitempty" yaml:"output,omitempty" toml:"output,omitempty"`
}

// LayoutConfig is the first layout of the generated sequence and the
// component bound that ends it.
type LayoutConfig struct {
	Components         int `json:"components,omitempty" yaml:"components,omitempty" toml:"components,omitempty"`
	EventsPerComponent int `json:"eventsPerComponent,omitempty" yaml:"eventsPerComponent,omitempty" toml:"eventsPerComponent,omitempty"`

	// Bound defaults to the stop of the concurrency range
	Bound int `json:"bound,omitempty" yaml:"bound,omitempty" toml:"bound,omitempty"`
}

// SimulatorConfig describes how the simulator is invoked.
type SimulatorConfig struct {
	Command  string `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty"`
	Launcher string `json:"launcher,omitempty" yaml:"launcher,omitempty" toml:"launcher,omitempty"`
	Topology string `json:"topology,omitempty" yaml:"topology,omitempty" toml:"topology,omitempty"`

	// RemoteProbability is the chance that an event targets another
	// component. Nil means the default; zero is a valid setting.
	RemoteProbability *float64 `json:"remoteProbability,omitempty" yaml:"remoteProbability,omitempty" toml:"remoteProbability,omitempty"`

	Cycles    int      `json:"cycles,omitempty" yaml:"cycles,omitempty" toml:"cycles,omitempty"`
	ExtraArgs []string `json:"extraArgs,omitempty" yaml:"extraArgs,omitempty" toml:"extraArgs,omitempty"`

	// Env entries ("KEY=value") are added to every task's environment
	Env []string `json:"env,omitempty" yaml:"env,omitempty" toml:"env,omitempty"`
}

// StatsConfig controls result extraction.
type StatsConfig struct {
	// Format is "csv", "json" or "log"
	Format      string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"`
	TimeMarker  string `json:"timeMarker,omitempty" yaml:"timeMarker,omitempty" toml:"timeMarker,omitempty"`
	CountColumn string `json:"countColumn,omitempty" yaml:"countColumn,omitempty" toml:"countColumn,omitempty"`

	// RowsPath is the gjson path of the row array in JSON statistics
	RowsPath string `json:"rowsPath,omitempty" yaml:"rowsPath,omitempty" toml:"rowsPath,omitempty"`
}

// SchedulerConfig controls task admission.
type SchedulerConfig struct {
	// Capacity is the CPU budget; defaults to the number of host CPUs
	Capacity int `json:"capacity,omitempty" yaml:"capacity,omitempty" toml:"capacity,omitempty"`

	// Seed fixes the task order; zero picks a random seed
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty" toml:"seed,omitempty"`

	// KeepFailedOutputs disables removal of a failed task's files
	KeepFailedOutputs bool `json:"keepFailedOutputs,omitempty" yaml:"keepFailedOutputs,omitempty" toml:"keepFailedOutputs,omitempty"`
}

// OutputConfig controls reporting.
type OutputConfig struct {
	// Verbose shows task commands and per-task rates
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty" toml:"verbose,omitempty"`

	// Database is an optional SQLite file that accumulates results
	Database string `json:"database,omitempty" yaml:"database,omitempty" toml:"database,omitempty"`

	// Plot is the plot file name inside OutputDir; its extension selects
	// the image format
	Plot string `json:"plot,omitempty" yaml:"plot,omitempty" toml:"plot,omitempty"`

	Title string `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
}
