package extract

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// maxLineSize bounds a single simulator log line.
const maxLineSize = 1 << 20

type logScan struct {
	elapsed    float64
	events     int64
	components int
}

// scanLog reads the captured output. The elapsed time comes from the last
// line that starts with the time marker; per-component count statistics
// are summed along the way.
func (e *Extractor) scanLog(path string) (logScan, error) {
	f, err := os.Open(path)
	if err != nil {
		return logScan{}, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	var res logScan
	found := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if strings.HasPrefix(line, e.cfg.TimeMarker) {
			fields := strings.Fields(line[len(e.cfg.TimeMarker):])
			if len(fields) == 0 {
				return logScan{}, fmt.Errorf("%w: line %d has no value", ErrMalformedTime, lineNo)
			}
			v, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return logScan{}, fmt.Errorf("%w: line %d: %q", ErrMalformedTime, lineNo, fields[0])
			}
			res.elapsed = v
			found = true
			continue
		}

		if e.cfg.Shape != ShapeLog {
			continue
		}
		if m := e.countLine.FindStringSubmatch(line); m != nil {
			n, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return logScan{}, fmt.Errorf("%w: line %d: %s = %q", ErrMalformedRow, lineNo, e.cfg.CountColumn, m[1])
			}
			res.events += n
			res.components++
		}
	}
	if err := scanner.Err(); err != nil {
		return logScan{}, fmt.Errorf("read log: %w", err)
	}

	if !found {
		return logScan{}, fmt.Errorf("%w: no line starts with %q", ErrMissingTime, e.cfg.TimeMarker)
	}
	return res, nil
}
