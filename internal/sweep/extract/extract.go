// Package extract turns a finished simulation run's artifacts into a single
// events-per-second rate.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

// Default markers of the SST simulator's output.
const (
	DefaultTimeMarker  = "Simulation time:"
	DefaultCountColumn = "Count.u64"
)

var (
	ErrMissingTime       = errors.New("elapsed simulation time not found")
	ErrMalformedTime     = errors.New("malformed elapsed simulation time")
	ErrNonPositiveTime   = errors.New("elapsed simulation time must be positive")
	ErrColumnMissing     = errors.New("count column not found")
	ErrMalformedRow      = errors.New("malformed statistics row")
	ErrComponentMismatch = errors.New("component count mismatch")
	ErrNoStatsFiles      = errors.New("no statistics files found")
)

// Error is an extraction failure for one task. Extraction failures are
// fatal to the sweep: a malformed sample invalidates the aggregate.
type Error struct {
	Task string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("extract %s: %v", e.Task, e.Err)
	}
	return fmt.Sprintf("extract %s (%s): %v", e.Task, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Shape selects which artifacts carry the event counts.
type Shape string

const (
	// ShapeLog reads per-component counts from the consolidated log.
	ShapeLog Shape = "log"
	// ShapeCSV reads counts from CSV statistics files.
	ShapeCSV Shape = "csv"
	// ShapeJSON reads counts from JSON statistics files.
	ShapeJSON Shape = "json"
)

// ParseShape validates a shape name. Empty selects ShapeCSV.
func ParseShape(s string) (Shape, error) {
	switch Shape(s) {
	case ShapeLog, ShapeCSV, ShapeJSON:
		return Shape(s), nil
	case "":
		return ShapeCSV, nil
	}
	return "", fmt.Errorf("unknown statistics format %q (want log, csv or json)", s)
}

// StatsExt is the statistics file extension for the shape, empty for
// ShapeLog.
func (s Shape) StatsExt() string {
	switch s {
	case ShapeCSV:
		return ".csv"
	case ShapeJSON:
		return ".json"
	}
	return ""
}

// Config controls extraction.
type Config struct {
	Shape Shape

	// TimeMarker starts the log line holding the elapsed simulation time.
	TimeMarker string

	// CountColumn names the per-component event count statistic.
	CountColumn string

	// RowsPath is the gjson path of the row array inside JSON statistics
	// files. Empty means the document itself is the array.
	RowsPath string
}

// Sample is the raw data behind one extracted rate.
type Sample struct {
	Elapsed    float64
	Events     int64
	Components int
	Rate       float64
}

// Extractor computes rates from task artifacts.
type Extractor struct {
	cfg       Config
	countLine *regexp.Regexp
}

// New creates an Extractor, filling in default markers.
func New(cfg Config) (*Extractor, error) {
	if cfg.Shape == "" {
		cfg.Shape = ShapeCSV
	}
	if _, err := ParseShape(string(cfg.Shape)); err != nil {
		return nil, err
	}
	if cfg.TimeMarker == "" {
		cfg.TimeMarker = DefaultTimeMarker
	}
	if cfg.CountColumn == "" {
		cfg.CountColumn = DefaultCountColumn
	}

	// Console statistics lines look like
	//   Worker_0.events : Accumulator : Sum.u64 = 10; Count.u64 = 10;
	re, err := regexp.Compile(`^\s*\S+\.\S+\s*:.*[\s;:]` + regexp.QuoteMeta(cfg.CountColumn) + `\s*=\s*([^;\s]+)`)
	if err != nil {
		return nil, fmt.Errorf("compile count pattern: %w", err)
	}

	return &Extractor{cfg: cfg, countLine: re}, nil
}

// Config returns the effective configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Rate returns the events per second of a finished task.
func (e *Extractor) Rate(t *task.Task) (float64, error) {
	s, err := e.Sample(t)
	if err != nil {
		return 0, err
	}
	return s.Rate, nil
}

// Sample extracts elapsed time, event count and component count of a
// finished task and checks them against the task's layout.
func (e *Extractor) Sample(t *task.Task) (Sample, error) {
	scan, err := e.scanLog(t.OutputPath)
	if err != nil {
		return Sample{}, &Error{Task: t.Name, Path: t.OutputPath, Err: err}
	}

	s := Sample{Elapsed: scan.elapsed}
	path := t.OutputPath

	switch e.cfg.Shape {
	case ShapeLog:
		s.Events, s.Components = scan.events, scan.components
	case ShapeCSV, ShapeJSON:
		files, err := statsFiles(t.StatsPath)
		if err != nil {
			return Sample{}, &Error{Task: t.Name, Path: t.StatsPath, Err: err}
		}
		for _, f := range files {
			var events int64
			var rows int
			if e.cfg.Shape == ShapeCSV {
				events, rows, err = e.readCSV(f)
			} else {
				events, rows, err = e.readJSON(f)
			}
			if err != nil {
				return Sample{}, &Error{Task: t.Name, Path: f, Err: err}
			}
			s.Events += events
			s.Components += rows
		}
		path = t.StatsPath
	}

	if s.Components != t.Layout.Components {
		return Sample{}, &Error{Task: t.Name, Path: path, Err: fmt.Errorf("%w: found %d, expected %d",
			ErrComponentMismatch, s.Components, t.Layout.Components)}
	}
	if s.Elapsed <= 0 {
		return Sample{}, &Error{Task: t.Name, Path: t.OutputPath, Err: fmt.Errorf("%w: got %g", ErrNonPositiveTime, s.Elapsed)}
	}

	s.Rate = float64(s.Events) / s.Elapsed
	return s, nil
}

// statsFiles finds the statistics files written for statsPath: the file
// itself plus per-rank files named "<base>_<rank><ext>".
func statsFiles(statsPath string) ([]string, error) {
	if statsPath == "" {
		return nil, ErrNoStatsFiles
	}
	ext := filepath.Ext(statsPath)
	base := statsPath[:len(statsPath)-len(ext)]

	var files []string
	if _, err := os.Stat(statsPath); err == nil {
		files = append(files, statsPath)
	}
	ranks, err := filepath.Glob(base + "_*" + ext)
	if err != nil {
		return nil, fmt.Errorf("glob statistics files: %w", err)
	}
	files = append(files, ranks...)

	if len(files) == 0 {
		return nil, ErrNoStatsFiles
	}
	sort.Strings(files)
	return files, nil
}
