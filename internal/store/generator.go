package store

import (
	"context"
	"fmt"

	"github.com/roach88/tau/internal/core"
	"github.com/roach88/tau/internal/engine"
)

// SeriesGenerator replays a stored series into a historical run.
//
// On Generate it reads the ticks that fall inside the scheduler's window and
// schedules one absolute-time update per tick, in (time_millis, seq) order,
// so that ties run in import order.
type SeriesGenerator struct {
	store  *Store
	series string
	signal core.Settable[float64]
}

var _ engine.Generator = (*SeriesGenerator)(nil)

// NewSeriesGenerator creates a generator feeding series into signal.
func NewSeriesGenerator(st *Store, series string, signal core.Settable[float64]) *SeriesGenerator {
	return &SeriesGenerator{store: st, series: series, signal: signal}
}

// Series returns the name of the replayed series.
func (g *SeriesGenerator) Series() string {
	return g.series
}

// Generate implements engine.Generator.
func (g *SeriesGenerator) Generate(s core.Scheduler) error {
	// Generators have no context of their own; the read is bounded by the
	// store's busy timeout.
	ticks, err := g.store.ReadTicks(context.Background(), g.series, s.StartTime(), s.EndTime())
	if err != nil {
		return fmt.Errorf("series %q: %w", g.series, err)
	}
	for _, t := range ticks {
		if err := core.ScheduleUpdateAt(s, g.signal, t.Value, t.TimeMillis); err != nil {
			return fmt.Errorf("series %q: schedule tick %d: %w", g.series, t.Seq, err)
		}
	}
	return nil
}
