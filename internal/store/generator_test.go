package store

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/roach88/tau/internal/core"
	"github.com/roach88/tau/internal/engine"
)

func TestSeriesGenerator_ReplaysWindow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.WriteTicks(ctx, "prices", ticksAt(
		-5, 100,
		500, 1,
		0, 0,
		500, 2,
		1500, 100,
		1000, 3,
	))
	if err != nil {
		t.Fatalf("WriteTicks() failed: %v", err)
	}

	signal := core.NewMutableSignal[float64]()
	gen := NewSeriesGenerator(s, "prices", signal)
	h := engine.NewHistoric(0, 1000,
		engine.WithGenerators(gen),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	var times []int64
	var values []float64
	h.Network().Connect(signal, core.NewEventFunc(func() bool {
		times = append(times, h.Time())
		values = append(values, signal.Value())
		return true
	}))

	if err := h.Run(ctx); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if want := []int64{0, 500, 500, 1000}; !reflect.DeepEqual(times, want) {
		t.Errorf("times = %v, want %v", times, want)
	}
	if want := []float64{0, 1, 2, 3}; !reflect.DeepEqual(values, want) {
		t.Errorf("values = %v, want %v", values, want)
	}
	if gen.Series() != "prices" {
		t.Errorf("Series() = %q", gen.Series())
	}
}

func TestSeriesGenerator_ClosedStoreFails(t *testing.T) {
	s := createTestStore(t)
	s.Close()

	signal := core.NewMutableSignal[float64]()
	h := engine.NewHistoric(0, 1000,
		engine.WithGenerators(NewSeriesGenerator(s, "prices", signal)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	h.Network().Attach(signal)

	if err := h.Run(context.Background()); err == nil {
		t.Fatal("Run() with a closed store should fail")
	}
}
