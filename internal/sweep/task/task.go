// Package task describes single simulation runs and the conditions under
// which a run is already done.
package task

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
)

// Task is one simulation invocation. A task is created once per
// (layout, concurrency, trial) combination and never modified afterwards.
type Task struct {
	// Name is unique within a sweep and derived from layout, concurrency
	// and trial.
	Name string

	// Command is the shell command line that runs the simulator.
	Command string

	// Capacity is the number of CPUs the run may use.
	Capacity int

	// OutputPath receives the captured standard output.
	OutputPath string

	// StatsPath is the statistics file name handed to the simulator.
	// Empty when the sweep only reads the consolidated log.
	StatsPath string

	Layout      layout.Layout
	Concurrency int
	Trial       int

	// Condition reports whether the task's outputs are already up to date.
	// A nil Condition means the task always runs.
	Condition Condition
}

// Name builds the task name for a layout, concurrency level and trial.
func Name(l layout.Layout, concurrency, trial int) string {
	return fmt.Sprintf("%d_%d_%d_%d", l.Components, l.EventsPerComponent, concurrency, trial)
}

// Satisfied evaluates the task's completion condition.
func (t *Task) Satisfied() (bool, error) {
	if t.Condition == nil {
		return false, nil
	}
	ok, err := t.Condition.Satisfied()
	if err != nil {
		return false, fmt.Errorf("task %s: condition: %w", t.Name, err)
	}
	return ok, nil
}

// Outputs lists the files the task produces, for cleanup after failures.
func (t *Task) Outputs() []string {
	outputs := []string{t.OutputPath}
	if t.StatsPath != "" {
		ext := filepath.Ext(t.StatsPath)
		base := t.StatsPath[:len(t.StatsPath)-len(ext)]
		outputs = append(outputs, t.StatsPath)
		if matches, err := filepath.Glob(base + "_*" + ext); err == nil {
			outputs = append(outputs, matches...)
		}
	}
	return outputs
}

func (t *Task) String() string {
	return t.Name
}

// Condition is a pure predicate over a task's output files.
type Condition interface {
	Satisfied() (bool, error)
}

// FileModification is satisfied when every output exists and none is older
// than the newest input. Without inputs, existence is enough.
type FileModification struct {
	Inputs  []string
	Outputs []string
}

// Satisfied implements Condition.
func (c FileModification) Satisfied() (bool, error) {
	if len(c.Outputs) == 0 {
		return false, nil
	}

	var newestInput time.Time
	for _, in := range c.Inputs {
		info, err := os.Stat(in)
		if err != nil {
			return false, fmt.Errorf("stat input %s: %w", in, err)
		}
		if info.ModTime().After(newestInput) {
			newestInput = info.ModTime()
		}
	}

	for _, out := range c.Outputs {
		info, err := os.Stat(out)
		if os.IsNotExist(err) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("stat output %s: %w", out, err)
		}
		if info.ModTime().Before(newestInput) {
			return false, nil
		}
	}
	return true, nil
}
