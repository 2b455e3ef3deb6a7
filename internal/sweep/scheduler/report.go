package scheduler

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Task durations are recorded in milliseconds, from 1ms up to one week.
const (
	histogramMin     = 1
	histogramMax     = int64(7 * 24 * time.Hour / time.Millisecond)
	histogramSigFigs = 3
)

// Report summarizes one scheduler run.
type Report struct {
	Total      int
	Started    int
	Skipped    int
	Succeeded  int
	Failed     int
	NotStarted int

	// PeakCapacity is the largest capacity held at once.
	PeakCapacity int

	// Elapsed is the wall time of the whole run.
	Elapsed time.Duration

	// Failures lists every failed task, first failure first.
	Failures []*TaskError

	durations *hdrhistogram.Histogram
}

func newReport(total int) *Report {
	return &Report{
		Total:     total,
		durations: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
	}
}

// Success reports whether every task either ran successfully or was
// already up to date.
func (r *Report) Success() bool {
	return r.Failed == 0 && r.NotStarted == 0 && r.Succeeded+r.Skipped == r.Total
}

func (r *Report) recordSuccess(elapsed time.Duration) {
	r.Succeeded++
	r.recordDuration(elapsed)
}

func (r *Report) recordFailure(elapsed time.Duration, err *TaskError) {
	r.Failed++
	r.Failures = append(r.Failures, err)
	if elapsed > 0 {
		r.recordDuration(elapsed)
	}
}

func (r *Report) recordDuration(d time.Duration) {
	ms := d.Milliseconds()
	if ms < histogramMin {
		ms = histogramMin
	}
	if ms > histogramMax {
		ms = histogramMax
	}
	// Values are clamped into range, so recording cannot fail.
	_ = r.durations.RecordValue(ms)
}

// DurationPercentile returns the q-th percentile (0-100) of executed task
// durations.
func (r *Report) DurationPercentile(q float64) time.Duration {
	if r.durations.TotalCount() == 0 {
		return 0
	}
	return time.Duration(r.durations.ValueAtQuantile(q)) * time.Millisecond
}

// MaxDuration returns the longest executed task duration.
func (r *Report) MaxDuration() time.Duration {
	if r.durations.TotalCount() == 0 {
		return 0
	}
	return time.Duration(r.durations.Max()) * time.Millisecond
}

// MeanDuration returns the mean executed task duration.
func (r *Report) MeanDuration() time.Duration {
	if r.durations.TotalCount() == 0 {
		return 0
	}
	return time.Duration(r.durations.Mean() * float64(time.Millisecond))
}
