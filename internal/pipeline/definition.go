package pipeline

import (
	"fmt"
	"slices"
	"time"

	"github.com/roach88/tau/internal/engine"
)

// Definition is a decoded pipeline.
type Definition struct {
	Name     string            `json:"name"`
	Location string            `json:"location,omitempty"`
	Window   Window            `json:"window"`
	Sources  map[string]Source `json:"sources"`
	Nodes    []Node            `json:"nodes"`
	Outputs  []string          `json:"outputs"`

	// Text is the CUE source the definition was compiled from. It is kept
	// so a recorded run can be rebuilt exactly.
	Text string `json:"-"`
}

// Window bounds a historical run, either in epoch millis (Start, End) or as
// engine.DateTimeLayout strings (From, To) in the definition's location.
type Window struct {
	Start *int64 `json:"start,omitempty"`
	End   *int64 `json:"end,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// Source is one input of a pipeline. Exactly one of Values, Series or
// Interval is set.
type Source struct {
	// Values are emitted in order, Period millis apart starting at the
	// window start. A zero Period emits them all at the start instant.
	Values []float64 `json:"values,omitempty"`
	Period int64     `json:"period,omitempty"`

	// Series names a stored tick series (historical) or a feed series (live).
	Series string `json:"series,omitempty"`

	// Interval emits 1, 2, 3, ... every Interval millis.
	Interval int64 `json:"interval,omitempty"`
}

// SourceKind identifies which field of a Source is set.
type SourceKind string

const (
	SourceValues   SourceKind = "values"
	SourceSeries   SourceKind = "series"
	SourceInterval SourceKind = "interval"
	SourceInvalid  SourceKind = ""
)

// Kind returns the kind of src, or SourceInvalid unless exactly one kind is set.
func (src Source) Kind() SourceKind {
	var kinds []SourceKind
	if src.Values != nil {
		kinds = append(kinds, SourceValues)
	}
	if src.Series != "" {
		kinds = append(kinds, SourceSeries)
	}
	if src.Interval > 0 {
		kinds = append(kinds, SourceInterval)
	}
	if len(kinds) != 1 {
		return SourceInvalid
	}
	return kinds[0]
}

// Node is one operator of a pipeline.
type Node struct {
	Name   string   `json:"name"`
	Op     string   `json:"op"`
	Input  string   `json:"input"`
	Fn     string   `json:"fn,omitempty"`
	Arg    *float64 `json:"arg,omitempty"`
	Count  int      `json:"count,omitempty"`
	Millis int64    `json:"millis,omitempty"`
	Reduce string   `json:"reduce,omitempty"`
}

// Op names.
const (
	OpMap         = "map"
	OpFilter      = "filter"
	OpScan        = "scan"
	OpBufferCount = "buffer_count"
	OpWindowCount = "window_count"
	OpBufferTime  = "buffer_time"
	OpPipe        = "pipe"
)

// TimeLocation resolves Location. An empty location is UTC, so that a
// definition means the same thing on every machine.
func (d *Definition) TimeLocation() (*time.Location, error) {
	if d.Location == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(d.Location)
	if err != nil {
		return nil, fmt.Errorf("location %q: %w", d.Location, err)
	}
	return loc, nil
}

// Bounds returns the window in epoch millis.
func (d *Definition) Bounds() (start, end int64, err error) {
	w := d.Window
	switch {
	case w.Start != nil && w.End != nil && w.From == "" && w.To == "":
		return *w.Start, *w.End, nil
	case w.Start == nil && w.End == nil && w.From != "" && w.To != "":
		loc, err := d.TimeLocation()
		if err != nil {
			return 0, 0, err
		}
		from, err := time.ParseInLocation(engine.DateTimeLayout, w.From, loc)
		if err != nil {
			return 0, 0, fmt.Errorf("window from: %w", err)
		}
		to, err := time.ParseInLocation(engine.DateTimeLayout, w.To, loc)
		if err != nil {
			return 0, 0, fmt.Errorf("window to: %w", err)
		}
		return from.UnixMilli(), to.UnixMilli(), nil
	}
	return 0, 0, fmt.Errorf("window needs either start and end, or from and to")
}

// SourceNames returns the source names in sorted order.
func (d *Definition) SourceNames() []string {
	names := make([]string, 0, len(d.Sources))
	for name := range d.Sources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
