package config

import (
	"fmt"
	"strings"

	"github.com/wesleyorama2/simsweep/internal/sweep/extract"
	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate validates the sweep configuration. Call ApplyDefaults first.
//
// Returns nil if valid, or a ValidationErrors containing all validation errors.
func (c *SweepConfig) Validate() error {
	errs := &ValidationErrors{}

	if c.App == "" {
		errs.Add("app", "simulator model script is required")
	}
	if c.OutputDir == "" {
		errs.Add("outputDir", "output directory is required")
	}
	if _, err := task.ParseMode(c.Mode); err != nil {
		errs.Add("mode", err.Error())
	}
	if c.Trials < 1 {
		errs.Add("trials", "trials must be at least 1")
	}

	validateRange(c, errs)
	validateLayout(&c.Layout, errs)
	validateSimulator(&c.Simulator, task.Mode(c.Mode), errs)
	validateStats(&c.Stats, errs)

	if c.Scheduler.Capacity < 1 {
		errs.Add("scheduler.capacity", "capacity must be at least 1")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// validateRange checks the concurrency range and that every level fits the
// scheduler capacity.
func validateRange(c *SweepConfig, errs *ValidationErrors) {
	if c.Range == nil {
		errs.Add("range", "concurrency range is required")
		return
	}
	levels, err := c.Range.Levels()
	if err != nil {
		errs.Add("range", err.Error())
		return
	}
	if c.Scheduler.Capacity >= 1 {
		if top := levels[len(levels)-1]; top > c.Scheduler.Capacity {
			errs.Add("range.stop", fmt.Sprintf("concurrency %d exceeds scheduler capacity %d", top, c.Scheduler.Capacity))
		}
	}
}

func validateLayout(l *LayoutConfig, errs *ValidationErrors) {
	if l.Components < 1 {
		errs.Add("layout.components", "components must be at least 1")
	}
	if l.EventsPerComponent < 1 {
		errs.Add("layout.eventsPerComponent", "eventsPerComponent must be at least 1")
	}
	if l.Bound < 1 {
		errs.Add("layout.bound", "bound must be at least 1")
	}
}

func validateSimulator(s *SimulatorConfig, mode task.Mode, errs *ValidationErrors) {
	if s.Command == "" {
		errs.Add("simulator.command", "simulator command is required")
	}
	if mode == task.ModeProcesses && s.Launcher == "" {
		errs.Add("simulator.launcher", "launcher is required in processes mode")
	}
	if p := s.RemoteProbability; p != nil && (*p < 0 || *p > 1) {
		errs.Add("simulator.remoteProbability", fmt.Sprintf("must be between 0 and 1, got %g", *p))
	}
	if s.Cycles < 0 {
		errs.Add("simulator.cycles", "cycles cannot be negative")
	}
	for i, kv := range s.Env {
		if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
			errs.Add(fmt.Sprintf("simulator.env[%d]", i), fmt.Sprintf("expected KEY=value, got %q", kv))
		}
	}
}

func validateStats(s *StatsConfig, errs *ValidationErrors) {
	if _, err := extract.ParseShape(s.Format); err != nil {
		errs.Add("stats.format", err.Error())
	}
	if s.TimeMarker == "" {
		errs.Add("stats.timeMarker", "time marker is required")
	}
	if s.CountColumn == "" {
		errs.Add("stats.countColumn", "count column is required")
	}
}
