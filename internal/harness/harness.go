package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/tau/internal/pipeline"
	"github.com/roach88/tau/internal/store"
)

// Harness is the test execution engine.
type Harness struct {
	logger *slog.Logger
}

// New creates a harness. A nil logger discards engine logs.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{logger: logger}
}

// Run executes a test scenario with a silent harness.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(context.Background(), scenario)
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load and compile the pipeline
// 2. Seed ticks into a fresh in-memory database, if any
// 3. Run the pipeline over its window on the historical scheduler
// 4. Evaluate assertions against the recorded trace
//
// An error means the scenario could not run; failed assertions are
// reported in the result instead.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	def, err := pipeline.Load(scenario.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}

	cfg := pipeline.RunConfig{
		Logger:    h.logger,
		MaxEvents: scenario.MaxEvents,
	}

	if len(scenario.Ticks) > 0 {
		// Each scenario seeds its own in-memory database for isolation.
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()

		if err := seedTicks(ctx, st, scenario.Ticks); err != nil {
			return nil, err
		}
		cfg.Store = st
	}

	h.logger.Debug("running scenario", "scenario", scenario.Name, "pipeline", def.Name)

	run, err := pipeline.RunHistoric(ctx, def, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to run pipeline: %w", err)
	}

	result := NewResult()
	result.Records = run.Records
	result.Digest = run.Digest
	for _, name := range nodeNames(def) {
		if v, ok := run.Graph.Value(name); ok {
			result.Final[name] = v
		}
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// seedTicks writes the scenario ticks, one series at a time in name order.
func seedTicks(ctx context.Context, st *store.Store, ticks map[string][]TickSpec) error {
	series := make([]string, 0, len(ticks))
	for name := range ticks {
		series = append(series, name)
	}
	slices.Sort(series)

	for _, name := range series {
		batch := make([]store.Tick, len(ticks[name]))
		for i, t := range ticks[name] {
			batch[i] = store.Tick{TimeMillis: t.Time, Value: t.Value}
		}
		if _, err := st.WriteTicks(ctx, name, batch); err != nil {
			return fmt.Errorf("failed to seed series %q: %w", name, err)
		}
	}
	return nil
}

// nodeNames returns every source and node name of def.
func nodeNames(def *pipeline.Definition) []string {
	names := def.SourceNames()
	for _, n := range def.Nodes {
		names = append(names, n.Name)
	}
	return names
}
