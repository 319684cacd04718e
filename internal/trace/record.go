package trace

import (
	"strconv"

	"github.com/roach88/tau/internal/core"
)

// Record is one observed emission.
type Record struct {
	// Seq is the 1-based position of the record in its trace.
	Seq int64 `json:"seq"`

	// Time is the scheduler time of the emission in epoch millis.
	Time int64 `json:"time"`

	// Node is the name of the emitting node.
	Node string `json:"node"`

	// Value is the emitted value.
	Value float64 `json:"value"`
}

// FormatValue renders v the way the canonical encoding does.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Recorder accumulates records in emission order.
//
// Thread-safety: Recorder is not safe for concurrent use. It is written from
// inside activation cycles, which are single-writer by construction.
type Recorder struct {
	clock   core.TimeSource
	records []Record
}

// NewRecorder creates a recorder stamping records with clock's time.
func NewRecorder(clock core.TimeSource) *Recorder {
	return &Recorder{clock: clock}
}

// Add appends a record for node at the current time.
func (r *Recorder) Add(node string, value float64) {
	r.records = append(r.records, Record{
		Seq:   int64(len(r.records)) + 1,
		Time:  r.clock.Time(),
		Node:  node,
		Value: value,
	})
}

// Watch connects a tap to v that records every emission under name.
func (r *Recorder) Watch(n *core.Network, name string, v core.Valuer[float64]) {
	n.Connect(v, &tap{recorder: r, name: name, source: v})
}

// Records returns the records so far. The slice is shared; do not modify.
func (r *Recorder) Records() []Record {
	return r.records
}

// Len returns the number of records.
func (r *Recorder) Len() int {
	return len(r.records)
}

type tap struct {
	recorder *Recorder
	name     string
	source   core.Valuer[float64]
}

func (t *tap) OnActivate() bool {
	if t.source.IsValid() {
		t.recorder.Add(t.name, t.source.Value())
	}
	return true
}
