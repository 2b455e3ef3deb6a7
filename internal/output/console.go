// Package output provides human-readable console output for sweeps.
package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/perf/benchunit"

	"github.com/wesleyorama2/simsweep/internal/sweep/aggregate"
	"github.com/wesleyorama2/simsweep/internal/sweep/extract"
	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
	"github.com/wesleyorama2/simsweep/internal/sweep/report"
	"github.com/wesleyorama2/simsweep/internal/sweep/scheduler"
	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

const (
	boxHorizontal = "━"
	ruleWidth     = 56
)

// SweepInfo describes a sweep before it starts.
type SweepInfo struct {
	App       string
	OutputDir string
	Mode      task.Mode
	Layouts   []layout.Layout
	Levels    []int
	Trials    int
	Tasks     int
	Capacity  int
	Seed      uint64
}

// Summary is the outcome of a sweep.
type Summary struct {
	Report *scheduler.Report
	Matrix *aggregate.Matrix
	Files  report.Files
	Err    error
}

// Console prints sweep progress and results. It implements
// scheduler.Observer.
type Console struct {
	writer    io.Writer
	isTTY     bool
	useColors bool
	quiet     bool
	verbose   bool
	scheme    *ColorScheme

	mu       sync.Mutex
	total    int
	finished int
}

// ConsoleConfig contains configuration for Console.
type ConsoleConfig struct {
	Writer      io.Writer
	Quiet       bool
	Verbose     bool
	NoColor     bool
	ForceColors bool
	ForceTTY    bool
}

// NewConsole creates a new console output handler.
func NewConsole(config ConsoleConfig) *Console {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	isTTY := config.ForceTTY || isTerminal(config.Writer)
	useColors := !config.NoColor && (config.ForceColors || (isTTY && supportsColors()))

	scheme := NoColorScheme()
	if useColors {
		scheme = ForcedColorScheme()
	}

	return &Console{
		writer:    config.Writer,
		isTTY:     isTTY,
		useColors: useColors,
		quiet:     config.Quiet,
		verbose:   config.Verbose,
		scheme:    scheme,
	}
}

// IsTTY returns whether the output is a terminal.
func (c *Console) IsTTY() bool {
	return c.isTTY
}

// PrintHeader prints the sweep header.
func (c *Console) PrintHeader(info SweepInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total = info.Tasks
	c.finished = 0
	if c.quiet {
		return
	}

	line := c.scheme.Rule.Sprint(strings.Repeat(boxHorizontal, ruleWidth))
	c.writeln(line)
	c.writeln(fmt.Sprintf("%s - %s [%s]", c.scheme.Title.Sprint("simsweep"), info.App, info.Mode))
	c.writeln(line)

	labels := make([]string, len(info.Layouts))
	for i, l := range info.Layouts {
		labels[i] = l.Label()
	}
	levels := make([]string, len(info.Levels))
	for i, level := range info.Levels {
		levels[i] = strconv.Itoa(level)
	}

	c.writeln(fmt.Sprintf("%s %s", c.scheme.Label.Sprint("Layouts: "), strings.Join(labels, ", ")))
	c.writeln(fmt.Sprintf("%s %s", c.scheme.Label.Sprint("Levels:  "), strings.Join(levels, ", ")))
	c.writeln(fmt.Sprintf("%s %s   %s %s   %s %s   %s %d",
		c.scheme.Label.Sprint("Trials:  "), c.scheme.Value.Sprint(info.Trials),
		c.scheme.Label.Sprint("Tasks:"), c.scheme.Value.Sprint(formatNumber(int64(info.Tasks))),
		c.scheme.Label.Sprint("Capacity:"), c.scheme.Value.Sprint(info.Capacity),
		c.scheme.Label.Sprint("Seed:"), info.Seed))
	c.writeln(fmt.Sprintf("%s %s", c.scheme.Label.Sprint("Output:  "), info.OutputDir))
	c.writeln("")
}

// TaskStarted implements scheduler.Observer.
func (c *Console) TaskStarted(t *task.Task) {
	if c.quiet || !c.verbose {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writeln(fmt.Sprintf("  %s %s %s", c.scheme.Value.Sprint("ℹ"), c.scheme.Task.Sprint(t.Name),
		c.scheme.Command.Sprint(t.Command)))
}

// TaskSkipped implements scheduler.Observer.
func (c *Console) TaskSkipped(t *task.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finished++
	if c.quiet {
		return
	}
	c.writeln(fmt.Sprintf("  %s %s up to date %s", c.scheme.Skipped.Sprint("↷"), t.Name, c.progress()))
}

// TaskSucceeded implements scheduler.Observer.
func (c *Console) TaskSucceeded(t *task.Task, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finished++
	if c.quiet {
		return
	}
	c.writeln(fmt.Sprintf("  %s %s (%s) %s", c.scheme.Success.Sprint("✓"), t.Name,
		formatDurationShort(elapsed), c.progress()))
}

// TaskFailed implements scheduler.Observer. Failures are shown even in
// quiet mode.
func (c *Console) TaskFailed(t *task.Task, elapsed time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finished++
	c.writeln(fmt.Sprintf("  %s %s (%s): %s", c.scheme.Error.Sprint("✗"), t.Name,
		formatDurationShort(elapsed), c.scheme.Error.Sprint(err)))
}

// TaskExtracted prints the rate of one task in verbose mode.
func (c *Console) TaskExtracted(t *task.Task, s extract.Sample) {
	if c.quiet || !c.verbose {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writeln(fmt.Sprintf("%s -> %s", t.Name, strconv.FormatFloat(s.Rate, 'f', -1, 64)))
}

func (c *Console) progress() string {
	if c.total == 0 {
		return ""
	}
	return c.scheme.Command.Sprintf("[%d/%d]", c.finished, c.total)
}

// PrintSummary prints the final sweep summary.
func (c *Console) PrintSummary(s Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	passed := s.Err == nil && (s.Report == nil || s.Report.Success())

	if c.quiet {
		// In quiet mode, just print passed/failed status
		if passed {
			c.writeln(c.scheme.Success.Sprint("PASSED"))
		} else {
			c.writeln(c.scheme.Error.Sprint("FAILED"))
		}
		return
	}

	line := c.scheme.Rule.Sprint(strings.Repeat(boxHorizontal, ruleWidth))
	status := c.scheme.Success.Sprint("Completed ✓")
	if !passed {
		status = c.scheme.Error.Sprint("Failed ✗")
	}

	c.writeln("")
	c.writeln(line)
	c.writeln(fmt.Sprintf("%s - %s", c.scheme.Title.Sprint("Sweep"), status))
	c.writeln(line)
	c.writeln("")

	if r := s.Report; r != nil {
		c.writeln(fmt.Sprintf("Duration:      %s", c.scheme.Value.Sprint(formatDuration(r.Elapsed))))
		c.writeln(fmt.Sprintf("Tasks:         %s run, %s skipped, %s failed, %s not started",
			c.scheme.Value.Sprint(r.Succeeded), c.scheme.Value.Sprint(r.Skipped),
			c.colorCount(r.Failed), c.colorCount(r.NotStarted)))
		c.writeln(fmt.Sprintf("Peak capacity: %s", c.scheme.Value.Sprint(r.PeakCapacity)))
		c.writeln("")

		if r.Succeeded+r.Failed > 0 {
			c.writeln(c.scheme.Title.Sprint("Task Durations:"))
			c.writeln(fmt.Sprintf("  P50:       %s", formatDurationShort(r.DurationPercentile(50))))
			c.writeln(fmt.Sprintf("  P95:       %s", formatDurationShort(r.DurationPercentile(95))))
			c.writeln(fmt.Sprintf("  Mean:      %s", formatDurationShort(r.MeanDuration())))
			c.writeln(fmt.Sprintf("  Max:       %s", formatDurationShort(r.MaxDuration())))
			c.writeln("")
		}
	}

	if s.Matrix != nil {
		c.writeln(c.scheme.Title.Sprint("Events per second:"))
		for _, row := range rateTable(s.Matrix) {
			c.writeln("  " + row)
		}
		c.writeln("")
	}

	for _, path := range []string{s.Files.Summary, s.Files.Plot, s.Files.JSON, s.Files.HTML} {
		if path != "" {
			c.writeln(fmt.Sprintf("Wrote %s", c.scheme.Highlight.Sprint(path)))
		}
	}

	if s.Err != nil {
		c.writeln(fmt.Sprintf("%s %s", c.scheme.Error.Sprint("Error:"), s.Err))
	}
}

// PrintError prints an error line.
func (c *Console) PrintError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeln(fmt.Sprintf("%s %v", c.scheme.Error.Sprint("Error:"), err))
}

func (c *Console) colorCount(n int) string {
	if n > 0 {
		return c.scheme.Error.Sprint(n)
	}
	return c.scheme.Value.Sprint(n)
}

// rateTable renders the mean rate matrix as aligned text rows.
func rateTable(m *aggregate.Matrix) []string {
	cells := make([][]string, 0, len(m.Layouts)+1)

	header := []string{"Benchmark"}
	for _, level := range m.Levels {
		header = append(header, strconv.Itoa(level))
	}
	cells = append(cells, header)

	for i, l := range m.Layouts {
		row := []string{l.Label()}
		for _, v := range m.Row(i) {
			row = append(row, benchunit.Scale(v, benchunit.Decimal))
		}
		cells = append(cells, row)
	}

	widths := make([]int, len(header))
	for _, row := range cells {
		for j, cell := range row {
			widths[j] = max(widths[j], len(cell))
		}
	}

	lines := make([]string, len(cells))
	for i, row := range cells {
		var sb strings.Builder
		for j, cell := range row {
			if j == 0 {
				sb.WriteString(cell + strings.Repeat(" ", widths[j]-len(cell)))
				continue
			}
			sb.WriteString("  " + strings.Repeat(" ", widths[j]-len(cell)) + cell)
		}
		lines[i] = sb.String()
	}
	return lines
}

// writeln writes to the output with a newline.
func (c *Console) writeln(s string) {
	fmt.Fprintln(c.writer, s)
}

// Helper functions

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
}

// formatDurationShort formats a duration in a short format.
func formatDurationShort(d time.Duration) string {
	if d < time.Microsecond {
		return "0ms"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// formatNumber formats a number with thousands separators.
func formatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	offset := len(str) % 3
	if offset > 0 {
		result.WriteString(str[:offset])
	}
	for i := offset; i < len(str); i += 3 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(str[i : i+3])
	}
	return result.String()
}
