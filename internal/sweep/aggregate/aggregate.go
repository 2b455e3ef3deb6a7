// Package aggregate reduces repeated trial rates into the layout by
// concurrency matrix that the reports are drawn from.
package aggregate

import (
	"errors"
	"fmt"

	"golang.org/x/perf/benchmath"

	"github.com/wesleyorama2/simsweep/internal/sweep/layout"
)

// Confidence is the confidence level of the per-cell summary interval.
const Confidence = 0.95

// ErrNoTrials is returned when a cell has no measurements to average.
var ErrNoTrials = errors.New("no trials to aggregate")

// Key identifies one cell of the matrix.
type Key struct {
	Layout      layout.Layout
	Concurrency int
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%d", k.Layout.Label(), k.Concurrency)
}

// Cell holds the trial rates of one (layout, concurrency) pair.
type Cell struct {
	Key
	Rates []float64
	Mean  float64

	// Summary is a distribution-free median with a confidence interval.
	// With few trials the interval degenerates to the sample range.
	Summary benchmath.Summary
}

// Matrix is the aggregated sweep result: rows are layouts in generation
// order, columns are concurrency levels in ascending order.
type Matrix struct {
	Layouts []layout.Layout
	Levels  []int
	Cells   [][]Cell
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNoTrials
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// Summarize computes the mean and benchmath summary of a cell's rates.
func Summarize(key Key, rates []float64) (Cell, error) {
	mean, err := Mean(rates)
	if err != nil {
		return Cell{}, fmt.Errorf("cell %s: %w", key, err)
	}

	thresholds := benchmath.DefaultThresholds
	// NewSample sorts its input.
	sample := benchmath.NewSample(append([]float64(nil), rates...), &thresholds)

	return Cell{
		Key:     key,
		Rates:   append([]float64(nil), rates...),
		Mean:    mean,
		Summary: benchmath.AssumeNothing.Summary(sample, Confidence),
	}, nil
}

// Build assembles the matrix. Every (layout, level) pair must have at
// least one rate in samples.
func Build(layouts []layout.Layout, levels []int, samples map[Key][]float64) (*Matrix, error) {
	m := &Matrix{
		Layouts: append([]layout.Layout(nil), layouts...),
		Levels:  append([]int(nil), levels...),
		Cells:   make([][]Cell, len(layouts)),
	}
	for i, l := range layouts {
		m.Cells[i] = make([]Cell, len(levels))
		for j, level := range levels {
			key := Key{Layout: l, Concurrency: level}
			rates, ok := samples[key]
			if !ok {
				return nil, fmt.Errorf("cell %s: %w", key, ErrNoTrials)
			}
			cell, err := Summarize(key, rates)
			if err != nil {
				return nil, err
			}
			m.Cells[i][j] = cell
		}
	}
	return m, nil
}

// Row returns the mean rates of the i-th layout, one per level.
func (m *Matrix) Row(i int) []float64 {
	row := make([]float64, len(m.Levels))
	for j := range m.Levels {
		row[j] = m.Cells[i][j].Mean
	}
	return row
}

// Collector accumulates trial rates as tasks are extracted.
type Collector struct {
	samples map[Key][]float64
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{samples: make(map[Key][]float64)}
}

// Add records one trial rate.
func (c *Collector) Add(l layout.Layout, concurrency int, rate float64) {
	k := Key{Layout: l, Concurrency: concurrency}
	c.samples[k] = append(c.samples[k], rate)
}

// Len returns the number of recorded rates.
func (c *Collector) Len() int {
	n := 0
	for _, rates := range c.samples {
		n += len(rates)
	}
	return n
}

// Build is Build over the collected rates.
func (c *Collector) Build(layouts []layout.Layout, levels []int) (*Matrix, error) {
	return Build(layouts, levels, c.samples)
}
