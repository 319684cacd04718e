package engine

import (
	"io"
	"log/slog"
)

// quietLogger keeps scheduler logs out of test output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// timeRecorder is an event that records the scheduler time of every
// activation.
type timeRecorder struct {
	now   func() int64
	times []int64
}

func (r *timeRecorder) OnActivate() bool {
	r.times = append(r.times, r.now())
	return true
}
