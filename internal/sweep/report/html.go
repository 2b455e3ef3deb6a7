package report

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"strconv"

	"golang.org/x/perf/benchunit"

	"github.com/wesleyorama2/simsweep/internal/sweep/aggregate"
	"github.com/wesleyorama2/simsweep/internal/sweep/task"
)

// Page contains all data needed to render the HTML report.
type Page struct {
	Title    string
	Mode     task.Mode
	PlotFile string
	Matrix   *aggregate.Matrix
}

// WriteHTML renders the HTML report of a sweep.
func WriteHTML(w io.Writer, page Page) error {
	if page.Matrix == nil {
		return fmt.Errorf("matrix cannot be nil")
	}
	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	if err := tmpl.Execute(w, page); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatRate":     formatScaledRate,
		"formatInterval": formatInterval,
		"xLabel":         XLabel,
		"trials":         func(c aggregate.Cell) int { return len(c.Rates) },
	}
}

// formatScaledRate formats a rate with an SI prefix, e.g. 1.23M.
func formatScaledRate(v float64) string {
	return benchunit.Scale(v, benchunit.Decimal)
}

// formatInterval formats the median and confidence interval of a cell.
func formatInterval(c aggregate.Cell) string {
	s := c.Summary
	if math.IsNaN(s.Center) {
		return "-"
	}
	if math.IsInf(s.Lo, 0) || math.IsInf(s.Hi, 0) || s.Lo == s.Hi {
		return formatScaledRate(s.Center)
	}
	return fmt.Sprintf("%s [%s, %s] @%s%%", formatScaledRate(s.Center), formatScaledRate(s.Lo),
		formatScaledRate(s.Hi), strconv.FormatFloat(s.Confidence*100, 'f', -1, 64))
}
