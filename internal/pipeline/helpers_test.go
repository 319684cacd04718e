package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tau/internal/trace"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func compile(t *testing.T, src string) *Definition {
	t.Helper()
	def, err := Compile([]byte(src), "test.cue")
	require.NoError(t, err)
	return def
}

func runDef(t *testing.T, def *Definition, cfg RunConfig) *Result {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	res, err := RunHistoric(context.Background(), def, cfg)
	require.NoError(t, err)
	return res
}

// valuesOf returns the values recorded for node, in order.
func valuesOf(records []trace.Record, node string) []float64 {
	var out []float64
	for _, r := range records {
		if r.Node == node {
			out = append(out, r.Value)
		}
	}
	return out
}

// timesOf returns the times recorded for node, in order.
func timesOf(records []trace.Record, node string) []int64 {
	var out []int64
	for _, r := range records {
		if r.Node == node {
			out = append(out, r.Time)
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }
