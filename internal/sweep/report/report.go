// Package report renders the aggregated sweep matrix as a CSV summary,
// a comparison plot, a JSON export and an HTML page.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wesleyorama2/simsweep/internal/sweep/aggregate"
	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

// Default artifact names inside the output directory.
const (
	DefaultSummaryFile = "performance.csv"
	DefaultPlotFile    = "performance.png"
	DefaultJSONFile    = "performance.json"
	DefaultHTMLFile    = "performance.html"
)

// DefaultTitle is the plot and page title.
const DefaultTitle = "SST-Benchmark performance"

// Options controls which artifacts are written and how they are labelled.
// Empty file names select the defaults; a "-" disables the artifact.
type Options struct {
	Mode  task.Mode
	Title string

	SummaryFile string
	PlotFile    string
	JSONFile    string
	HTMLFile    string
}

// Files lists the paths written by Write.
type Files struct {
	Summary string
	Plot    string
	JSON    string
	HTML    string
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Mode == "" {
		o.Mode = task.ModeThreads
	}
	if o.SummaryFile == "" {
		o.SummaryFile = DefaultSummaryFile
	}
	if o.PlotFile == "" {
		o.PlotFile = DefaultPlotFile
	}
	if o.JSONFile == "" {
		o.JSONFile = DefaultJSONFile
	}
	if o.HTMLFile == "" {
		o.HTMLFile = DefaultHTMLFile
	}
	return o
}

// XLabel is the concurrency axis label for the execution mode.
func XLabel(mode task.Mode) string {
	if mode == task.ModeProcesses {
		return "Number of processes"
	}
	return "Number of threads"
}

// Write renders all enabled artifacts of m into dir. A nil renderer skips
// the plot.
func Write(dir string, opts Options, m *aggregate.Matrix, r Renderer) (Files, error) {
	if m == nil {
		return Files{}, fmt.Errorf("matrix cannot be nil")
	}
	opts = opts.withDefaults()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return Files{}, fmt.Errorf("failed to create report directory: %w", err)
	}

	var files Files

	if opts.SummaryFile != "-" {
		files.Summary = filepath.Join(dir, opts.SummaryFile)
		if err := writeFile(files.Summary, func(f *os.File) error { return WriteSummary(f, m) }); err != nil {
			return files, err
		}
	}

	if opts.PlotFile != "-" && r != nil {
		files.Plot = filepath.Join(dir, opts.PlotFile)
		if err := r.Render(files.Plot, NewChart(m, opts)); err != nil {
			return files, fmt.Errorf("failed to render plot: %w", err)
		}
	}

	if opts.JSONFile != "-" {
		files.JSON = filepath.Join(dir, opts.JSONFile)
		if err := writeFile(files.JSON, func(f *os.File) error { return WriteJSON(f, m, opts.Mode) }); err != nil {
			return files, err
		}
	}

	if opts.HTMLFile != "-" {
		files.HTML = filepath.Join(dir, opts.HTMLFile)
		page := Page{Title: opts.Title, Mode: opts.Mode, Matrix: m}
		if files.Plot != "" {
			page.PlotFile = filepath.Base(files.Plot)
		}
		if err := writeFile(files.HTML, func(f *os.File) error { return WriteHTML(f, page) }); err != nil {
			return files, err
		}
	}

	return files, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
