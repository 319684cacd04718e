package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/tau/internal/engine"
	"github.com/roach88/tau/internal/store"
)

// ReadCSV parses "time,value" rows into ticks, in file order.
//
// The time column is either epoch milliseconds or a date-time in
// engine.DateTimeLayout interpreted in loc (UTC when nil). A first row whose
// value column is not a number is treated as a header and skipped. Blank
// lines are ignored.
func ReadCSV(r io.Reader, loc *time.Location) ([]store.Tick, error) {
	if loc == nil {
		loc = time.UTC
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	ticks := []store.Tick{}
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return ticks, nil
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			if row == 1 {
				continue
			}
			line, _ := cr.FieldPos(1)
			return nil, fmt.Errorf("csv line %d: invalid value %q", line, rec[1])
		}

		at, err := parseTime(strings.TrimSpace(rec[0]), loc)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		ticks = append(ticks, store.Tick{TimeMillis: at, Value: value})
	}
}

func parseTime(s string, loc *time.Location) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.ParseInLocation(engine.DateTimeLayout, s, loc)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: want epoch millis or %s", s, engine.DateTimeLayout)
	}
	return t.UnixMilli(), nil
}
