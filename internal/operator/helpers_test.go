package operator

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tau/internal/engine"
)

func newHistoric(t *testing.T, start, end int64, opts ...engine.Option) *engine.Historic {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return engine.NewHistoric(start, end, append([]engine.Option{engine.WithLogger(logger)}, opts...)...)
}

func run(t *testing.T, h *engine.Historic) {
	t.Helper()
	require.NoError(t, h.Run(context.Background()))
}

// collect records every value its input emits.
func collect[T any](t *testing.T, h *engine.Historic, in interface {
	OnActivate() bool
	Value() T
}) *[]T {
	t.Helper()
	var got []T
	NewDo(h.Network(), in, func() { got = append(got, in.Value()) })
	return &got
}
