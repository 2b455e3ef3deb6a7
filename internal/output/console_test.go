package output

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/simsweep/internal/sweep/aggregate"
	"github.com/wesleyorama2/simsweep/internal/sweep/extract"
	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
	"github.com/wesleyorama2/simsweep/internal/sweep/report"
	"github.com/wesleyorama2/simsweep/internal/sweep/scheduler"
	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

var _ scheduler.Observer = (*Console)(nil)

func newTestConsole(verbose, quiet bool) (*Console, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewConsole(ConsoleConfig{Writer: &buf, Verbose: verbose, Quiet: quiet, NoColor: true}), &buf
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{500 * time.Millisecond, "500ms"},
		{1 * time.Second, "1.0s"},
		{1*time.Minute + 30*time.Second, "1m 30s"},
		{1*time.Hour + 2*time.Minute + 3*time.Second, "1h 02m 03s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := formatDuration(tt.duration)
			if result != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, result, tt.expected)
			}
		})
	}
}

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "0ms"},
		{500 * time.Microsecond, "500µs"},
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := formatDurationShort(tt.duration)
			if result != tt.expected {
				t.Errorf("formatDurationShort(%v) = %q, want %q", tt.duration, result, tt.expected)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		number   int64
		expected string
	}{
		{0, "0"},
		{100, "100"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := formatNumber(tt.number); result != tt.expected {
				t.Errorf("formatNumber(%d) = %q, want %q", tt.number, result, tt.expected)
			}
		})
	}
}

func TestColorSchemes(t *testing.T) {
	plain := NoColorScheme()
	assert.Equal(t, "ok", plain.Success.Sprint("ok"))

	forced := ForcedColorScheme()
	assert.NotEqual(t, "ok", forced.Success.Sprint("ok"))
	assert.Contains(t, forced.Success.Sprint("ok"), "ok")

	assert.Equal(t, "✓", SuccessIcon(true))
	assert.Equal(t, "✗", ErrorIcon(true))
	assert.Equal(t, "ℹ", InfoIcon(true))
	assert.Equal(t, "↷", SkipIcon(true))
}

func TestConsole_NotTTYForBuffer(t *testing.T) {
	c, _ := newTestConsole(false, false)
	assert.False(t, c.IsTTY())
}

func TestConsole_Header(t *testing.T) {
	c, buf := newTestConsole(false, false)
	c.PrintHeader(SweepInfo{
		App:       "bench.py",
		OutputDir: "out",
		Mode:      task.ModeThreads,
		Layouts:   []layout.Layout{{Components: 4, EventsPerComponent: 2}, {Components: 2, EventsPerComponent: 4}},
		Levels:    []int{1, 2},
		Trials:    2,
		Tasks:     8,
		Capacity:  2,
		Seed:      7,
	})

	out := buf.String()
	assert.Contains(t, out, "simsweep - bench.py [threads]")
	assert.Contains(t, out, "4x2, 2x4")
	assert.Contains(t, out, "1, 2")
	assert.Contains(t, out, "Seed: 7")
}

func TestConsole_TaskEvents(t *testing.T) {
	c, buf := newTestConsole(true, false)
	c.PrintHeader(SweepInfo{Tasks: 3})
	buf.Reset()

	tk := &task.Task{Name: "4_2_1_0", Command: "sst -v -n 1 bench.py -- 4"}
	c.TaskStarted(tk)
	c.TaskSucceeded(tk, 1500*time.Millisecond)
	c.TaskExtracted(tk, extract.Sample{Rate: 200})
	c.TaskSkipped(&task.Task{Name: "4_2_1_1"})
	c.TaskFailed(&task.Task{Name: "4_2_2_0"}, time.Second, errors.New("exit status 1"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "sst -v -n 1 bench.py -- 4")
	assert.Contains(t, lines[1], "✓ 4_2_1_0 (1.50s) [1/3]")
	assert.Equal(t, "4_2_1_0 -> 200", lines[2])
	assert.Contains(t, lines[3], "↷ 4_2_1_1 up to date [2/3]")
	assert.Contains(t, lines[4], "✗ 4_2_2_0 (1.00s): exit status 1")
}

func TestConsole_QuietShowsOnlyFailures(t *testing.T) {
	c, buf := newTestConsole(true, true)
	tk := &task.Task{Name: "t"}
	c.PrintHeader(SweepInfo{Tasks: 1})
	c.TaskStarted(tk)
	c.TaskSucceeded(tk, time.Second)
	c.TaskExtracted(tk, extract.Sample{Rate: 1})
	assert.Empty(t, buf.String())

	c.TaskFailed(tk, time.Second, errors.New("boom"))
	assert.Contains(t, buf.String(), "boom")
}

func TestConsole_NonVerboseHidesCommands(t *testing.T) {
	c, buf := newTestConsole(false, false)
	tk := &task.Task{Name: "t", Command: "secret-command"}
	c.TaskStarted(tk)
	c.TaskExtracted(tk, extract.Sample{Rate: 1})
	assert.Empty(t, buf.String())
}

func runReport(t *testing.T, fail bool) *scheduler.Report {
	t.Helper()
	tasks := []*task.Task{
		{Name: "a", Capacity: 1},
		{Name: "b", Capacity: 1},
	}
	s := scheduler.New(scheduler.RunnerFunc(func(ctx context.Context, tk *task.Task) error {
		if fail && tk.Name == "b" {
			return errors.New("exit status 2")
		}
		return nil
	}), scheduler.Config{Capacity: 1, Seed: 1})
	rep, _ := s.Run(context.Background(), tasks)
	return rep
}

func sampleMatrix(t *testing.T) *aggregate.Matrix {
	t.Helper()
	l := layout.Layout{Components: 4, EventsPerComponent: 2}
	m, err := aggregate.Build([]layout.Layout{l}, []int{1, 2}, map[aggregate.Key][]float64{
		{Layout: l, Concurrency: 1}: {1500},
		{Layout: l, Concurrency: 2}: {2_500_000},
	})
	require.NoError(t, err)
	return m
}

func TestConsole_Summary(t *testing.T) {
	c, buf := newTestConsole(false, false)
	c.PrintSummary(Summary{
		Report: runReport(t, false),
		Matrix: sampleMatrix(t),
		Files:  report.Files{Summary: "out/performance.csv"},
	})

	out := buf.String()
	assert.Contains(t, out, "Sweep - Completed ✓")
	assert.Contains(t, out, "2 run, 0 skipped, 0 failed, 0 not started")
	assert.Contains(t, out, "Task Durations:")
	assert.Contains(t, out, "Benchmark")
	assert.Contains(t, out, "4x2")
	assert.Contains(t, out, "2.50M")
	assert.Contains(t, out, "Wrote out/performance.csv")
}

func TestConsole_SummaryFailed(t *testing.T) {
	c, buf := newTestConsole(false, false)
	rep := runReport(t, true)
	c.PrintSummary(Summary{Report: rep, Err: errors.New("task b failed")})

	out := buf.String()
	assert.Contains(t, out, "Sweep - Failed ✗")
	assert.Contains(t, out, "Error: task b failed")
	assert.NotContains(t, out, "Events per second")
}

func TestConsole_SummaryQuiet(t *testing.T) {
	c, buf := newTestConsole(false, true)
	c.PrintSummary(Summary{Report: runReport(t, false)})
	assert.Equal(t, "PASSED\n", buf.String())

	buf.Reset()
	c.PrintSummary(Summary{Err: errors.New("x")})
	assert.Equal(t, "FAILED\n", buf.String())
}

func TestRateTable(t *testing.T) {
	lines := rateTable(sampleMatrix(t))
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Benchmark"))
	assert.True(t, strings.HasPrefix(lines[1], "4x2"))
	assert.Equal(t, len(lines[0]), len(lines[1]))
}
