package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tau/internal/trace"
)

func ptr[T any](v T) *T { return &v }

// sampleRecords is a small trace: a running sum and its input, interleaved.
func sampleRecords() []trace.Record {
	return []trace.Record{
		{Seq: 1, Time: 0, Node: "in", Value: 1},
		{Seq: 2, Time: 0, Node: "sum", Value: 1},
		{Seq: 3, Time: 100, Node: "in", Value: 2.5},
		{Seq: 4, Time: 100, Node: "sum", Value: 3.5},
		{Seq: 5, Time: 200, Node: "in", Value: -1},
		{Seq: 6, Time: 200, Node: "sum", Value: 2.5},
	}
}

func TestAssertFinalValue(t *testing.T) {
	final := map[string]float64{"sum": 2.5}

	assert.NoError(t, assertFinalValue(final, nil, Assertion{Type: AssertFinalValue, Node: "sum", Value: ptr(2.5)}))
	assert.NoError(t, assertFinalValue(final, nil, Assertion{Type: AssertFinalValue, Node: "sum", Value: ptr(2.49), Tolerance: 0.02}))

	err := assertFinalValue(final, nil, Assertion{Type: AssertFinalValue, Node: "sum", Value: ptr(3.0)})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "sum = 3", ae.Expected)
	assert.Equal(t, "sum = 2.5", ae.Actual)

	err = assertFinalValue(final, nil, Assertion{Type: AssertFinalValue, Node: "missing", Value: ptr(0.0)})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "node has no value", ae.Actual)
}

func TestAssertTraceCount(t *testing.T) {
	records := sampleRecords()

	assert.NoError(t, assertTraceCount(records, Assertion{Node: "sum", Count: 3}))
	assert.NoError(t, assertTraceCount(records, Assertion{Node: "other", Count: 0}))

	err := assertTraceCount(records, Assertion{Node: "in", Count: 2})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "3 records", ae.Actual)
}

func TestAssertTraceOrder(t *testing.T) {
	records := sampleRecords()

	assert.NoError(t, assertTraceOrder(records, Assertion{Nodes: []string{"in", "sum"}}))
	assert.NoError(t, assertTraceOrder(records, Assertion{Nodes: []string{"sum"}}))

	err := assertTraceOrder(records, Assertion{Nodes: []string{"sum", "in"}})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Actual, "sum (pos 2) should be before in (pos 1)")

	err = assertTraceOrder(records, Assertion{Nodes: []string{"in", "ghost"}})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "missing node: ghost", ae.Actual)
}

func TestAssertTraceContains(t *testing.T) {
	records := sampleRecords()

	assert.NoError(t, assertTraceContains(records, Assertion{Node: "sum", Value: ptr(3.5)}))
	assert.NoError(t, assertTraceContains(records, Assertion{Node: "sum", Value: ptr(3.5), Time: ptr(int64(100))}))
	assert.NoError(t, assertTraceContains(records, Assertion{Node: "in", Value: ptr(2.4), Tolerance: 0.15}))

	err := assertTraceContains(records, Assertion{Node: "sum", Value: ptr(3.5), Time: ptr(int64(200))})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "sum = 3.5 at t=200", ae.Expected)
	assert.Equal(t, "not found in trace", ae.Actual)

	assert.Error(t, assertTraceContains(records, Assertion{Node: "in", Value: ptr(3.5)}))
}

func TestAssertTraceValues(t *testing.T) {
	records := sampleRecords()

	assert.NoError(t, assertTraceValues(records, Assertion{Node: "in", Values: []float64{1, 2.5, -1}}))
	assert.NoError(t, assertTraceValues(records, Assertion{Node: "ghost"}))

	err := assertTraceValues(records, Assertion{Node: "sum", Values: []float64{1, 3.5}})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "sum values [1, 3.5]", ae.Expected)
	assert.Equal(t, "sum values [1, 3.5, 2.5]", ae.Actual)

	assert.Error(t, assertTraceValues(records, Assertion{Node: "sum", Values: []float64{1, 3.5, 2.6}}))
	assert.NoError(t, assertTraceValues(records, Assertion{Node: "sum", Values: []float64{1, 3.5, 2.6}, Tolerance: 0.2}))
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertFinalValue,
		Expected: "sum = 3",
		Actual:   "sum = 2.5",
		Trace:    sampleRecords()[:2],
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: final_value")
	assert.Contains(t, msg, "Expected: sum = 3")
	assert.Contains(t, msg, "Actual: sum = 2.5")
	assert.Contains(t, msg, "[1] t=0 in = 1")
	assert.Contains(t, msg, "[2] t=0 sum = 1")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Records = sampleRecords()
	result.Final["sum"] = 2.5

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertFinalValue, Node: "sum", Value: ptr(2.5)},
		{Type: AssertTraceCount, Node: "sum", Count: 3},
		{Type: AssertTraceOrder, Nodes: []string{"in", "sum"}},
		{Type: AssertTraceContains, Node: "in", Value: ptr(-1.0)},
		{Type: AssertTraceValues, Node: "sum", Values: []float64{1, 3.5, 2.5}},
	})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Node: "sum", Count: 1},
		{Type: "bogus"},
		{Type: AssertFinalValue, Node: "sum", Value: ptr(2.5)},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "trace_count")
	assert.Contains(t, errs[1], `assertion[1]: unknown assertion type "bogus"`)
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	assert.NotNil(t, r.Records)
	assert.NotNil(t, r.Errors)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
