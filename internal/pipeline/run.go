package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/tau/internal/engine"
	"github.com/roach88/tau/internal/store"
	"github.com/roach88/tau/internal/trace"
)

// RunConfig configures RunHistoric. The zero value runs without a store,
// logs to slog.Default and has no event quota.
type RunConfig struct {
	Store     *store.Store
	Logger    *slog.Logger
	Metrics   *engine.Metrics
	MaxEvents int
}

// Result is the outcome of one historical run.
type Result struct {
	Graph   *Graph
	Start   int64
	End     int64
	Records []trace.Record
	Digest  string
}

// RunHistoric builds def on a fresh historical scheduler over its window,
// runs it to completion and digests the recorded trace.
func RunHistoric(ctx context.Context, def *Definition, cfg RunConfig) (*Result, error) {
	start, end, err := def.Bounds()
	if err != nil {
		return nil, err
	}
	loc, err := def.TimeLocation()
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{
		engine.WithLocation(loc),
		engine.WithLogger(cfg.Logger),
		engine.WithMetrics(cfg.Metrics),
		engine.WithMaxEvents(cfg.MaxEvents),
	}
	h := engine.NewHistoric(start, end, opts...)

	var buildOpts []BuildOption
	if cfg.Store != nil {
		buildOpts = append(buildOpts, WithStore(cfg.Store))
	}
	g, err := Build(def, h, buildOpts...)
	if err != nil {
		return nil, err
	}

	if err := h.Run(ctx); err != nil {
		return nil, fmt.Errorf("run %s: %w", def.Name, err)
	}
	if err := g.Err(); err != nil {
		return nil, fmt.Errorf("run %s: %w", def.Name, err)
	}

	records := g.Records()
	digest, err := trace.Digest(records)
	if err != nil {
		return nil, err
	}

	return &Result{
		Graph:   g,
		Start:   start,
		End:     end,
		Records: records,
		Digest:  digest,
	}, nil
}
