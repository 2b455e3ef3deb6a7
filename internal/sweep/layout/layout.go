// Package layout generates the workload layouts and concurrency levels a
// sweep benchmarks.
package layout

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrEmptyRange is returned when a concurrency range yields no levels.
var ErrEmptyRange = errors.New("empty concurrency range")

// Layout pairs a simulated component count with the number of events each
// component starts with.
type Layout struct {
	Components         int `json:"components" yaml:"components"`
	EventsPerComponent int `json:"eventsPerComponent" yaml:"eventsPerComponent"`
}

// Work returns the total initial work of the layout.
func (l Layout) Work() int {
	return l.Components * l.EventsPerComponent
}

// Label identifies the layout in summaries and plot legends, e.g. "128x8".
func (l Layout) Label() string {
	return fmt.Sprintf("%dx%d", l.Components, l.EventsPerComponent)
}

func (l Layout) String() string {
	return l.Label()
}

// Generate derives layouts from start by halving the component count and
// doubling the events per component while the component count is above
// bound. The first layout at or below bound is included.
//
// start.Components must be at least 1.
func Generate(start Layout, bound int) []Layout {
	layouts := []Layout{start}
	for {
		last := layouts[len(layouts)-1]
		if last.Components <= bound || last.Components <= 1 {
			return layouts
		}
		layouts = append(layouts, Layout{
			Components:         last.Components / 2,
			EventsPerComponent: last.EventsPerComponent * 2,
		})
	}
}

// Range is an inclusive concurrency range with a fixed step.
type Range struct {
	Start int `json:"start" yaml:"start" toml:"start"`
	Stop  int `json:"stop" yaml:"stop" toml:"stop"`
	Step  int `json:"step" yaml:"step" toml:"step"`
}

// HostRange is the implicit range used when none is given: one level per
// available CPU.
func HostRange() Range {
	return Range{Start: 1, Stop: runtime.NumCPU(), Step: 1}
}

// Validate reports whether the range yields at least one level.
func (r Range) Validate() error {
	switch {
	case r.Start < 1:
		return fmt.Errorf("%w: start must be >= 1, got %d", ErrEmptyRange, r.Start)
	case r.Step < 1:
		return fmt.Errorf("%w: step must be >= 1, got %d", ErrEmptyRange, r.Step)
	case r.Start > r.Stop:
		return fmt.Errorf("%w: start %d is greater than stop %d", ErrEmptyRange, r.Start, r.Stop)
	}
	return nil
}

// Levels expands the range into its concurrency levels.
func (r Range) Levels() ([]int, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	levels := make([]int, 0, (r.Stop-r.Start)/r.Step+1)
	for level := r.Start; level <= r.Stop; level += r.Step {
		levels = append(levels, level)
	}
	return levels, nil
}

func (r Range) String() string {
	return fmt.Sprintf("[%d..%d step %d]", r.Start, r.Stop, r.Step)
}
