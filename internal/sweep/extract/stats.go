package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// readCSV sums the count column of one statistics file and returns the
// number of data rows. Every row is one simulated component.
func (e *Extractor) readCSV(path string) (int64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open statistics: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return 0, 0, fmt.Errorf("%w: empty file", ErrColumnMissing)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("%w: header: %v", ErrMalformedRow, err)
	}

	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == e.cfg.CountColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return 0, 0, fmt.Errorf("%w: %q not in header %v", ErrColumnMissing, e.cfg.CountColumn, header)
	}

	var sum int64
	rows := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %v", ErrMalformedRow, err)
		}
		rows++
		n, err := strconv.ParseInt(strings.TrimSpace(record[col]), 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: row %d: %s = %q", ErrMalformedRow, rows, e.cfg.CountColumn, record[col])
		}
		sum += n
	}
	return sum, rows, nil
}

// readJSON is readCSV for statistics written as a JSON array of row
// objects keyed by column name.
func (e *Extractor) readJSON(path string) (int64, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open statistics: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return 0, 0, fmt.Errorf("%w: invalid JSON", ErrMalformedRow)
	}

	rows := gjson.ParseBytes(data)
	if e.cfg.RowsPath != "" {
		rows = rows.Get(e.cfg.RowsPath)
	}
	if !rows.IsArray() {
		return 0, 0, fmt.Errorf("%w: %q is not an array", ErrMalformedRow, e.cfg.RowsPath)
	}

	key := escapePath(e.cfg.CountColumn)
	var sum int64
	n := 0
	var rowErr error
	rows.ForEach(func(_, row gjson.Result) bool {
		n++
		v := row.Get(key)
		switch {
		case !v.Exists():
			rowErr = fmt.Errorf("%w: row %d has no %q", ErrColumnMissing, n, e.cfg.CountColumn)
		case v.Type != gjson.Number:
			rowErr = fmt.Errorf("%w: row %d: %s = %s", ErrMalformedRow, n, e.cfg.CountColumn, v.Raw)
		default:
			sum += v.Int()
		}
		return rowErr == nil
	})
	if rowErr != nil {
		return 0, 0, rowErr
	}
	return sum, n, nil
}

// escapePath quotes gjson path syntax so that a column name such as
// "Count.u64" is looked up as a single key.
func escapePath(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
