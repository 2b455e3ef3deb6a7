package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/wesleyorama2/simsweep/internal/sweep/aggregate"
	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

// WriteSummary writes the mean rate matrix as CSV: a "Benchmark" header
// followed by the concurrency levels, then one row per layout.
func WriteSummary(w io.Writer, m *aggregate.Matrix) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(m.Levels)+1)
	header = append(header, "Benchmark")
	for _, level := range m.Levels {
		header = append(header, strconv.Itoa(level))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, l := range m.Layouts {
		row := make([]string, 0, len(m.Levels)+1)
		row = append(row, l.Label())
		for _, v := range m.Row(i) {
			row = append(row, formatRate(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExportCell is one cell of the JSON export.
type ExportCell struct {
	Concurrency int       `json:"concurrency"`
	Rates       []float64 `json:"rates"`
	Mean        float64   `json:"mean"`
	Median      *float64  `json:"median,omitempty"`
	Low         *float64  `json:"low,omitempty"`
	High        *float64  `json:"high,omitempty"`
	Confidence  float64   `json:"confidence"`
}

// ExportRow is one layout of the JSON export.
type ExportRow struct {
	Label              string       `json:"label"`
	Components         int          `json:"components"`
	EventsPerComponent int          `json:"eventsPerComponent"`
	Cells              []ExportCell `json:"cells"`
}

// Export is the machine-readable form of a sweep result.
type Export struct {
	Mode    task.Mode   `json:"mode"`
	Levels  []int       `json:"levels"`
	Layouts []ExportRow `json:"layouts"`
}

// NewExport converts the matrix into its JSON export form. Interval
// bounds that are not finite are omitted.
func NewExport(m *aggregate.Matrix, mode task.Mode) Export {
	out := Export{Mode: mode, Levels: m.Levels, Layouts: make([]ExportRow, len(m.Layouts))}
	for i, l := range m.Layouts {
		row := ExportRow{
			Label:              l.Label(),
			Components:         l.Components,
			EventsPerComponent: l.EventsPerComponent,
			Cells:              make([]ExportCell, len(m.Levels)),
		}
		for j, c := range m.Cells[i] {
			row.Cells[j] = ExportCell{
				Concurrency: c.Concurrency,
				Rates:       c.Rates,
				Mean:        c.Mean,
				Median:      finite(c.Summary.Center),
				Low:         finite(c.Summary.Lo),
				High:        finite(c.Summary.Hi),
				Confidence:  c.Summary.Confidence,
			}
		}
		out.Layouts[i] = row
	}
	return out
}

// WriteJSON writes the matrix as indented JSON.
func WriteJSON(w io.Writer, m *aggregate.Matrix, mode task.Mode) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExport(m, mode))
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
