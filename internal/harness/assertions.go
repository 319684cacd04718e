package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/tau/internal/trace"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Trace    []trace.Record // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, r := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] t=%d %s = %s\n", r.Seq, r.Time, r.Node, trace.FormatValue(r.Value))
		}
	}

	return buf.String()
}

func closeEnough(a, b, tolerance float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= tolerance
}

// assertFinalValue checks the value a node holds after the run.
func assertFinalValue(final map[string]float64, records []trace.Record, assertion Assertion) error {
	actual, ok := final[assertion.Node]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s = %s", assertion.Node, trace.FormatValue(*assertion.Value)),
			Actual:   "node has no value",
			Trace:    records,
		}
	}
	if !closeEnough(actual, *assertion.Value, assertion.Tolerance) {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s = %s", assertion.Node, trace.FormatValue(*assertion.Value)),
			Actual:   fmt.Sprintf("%s = %s", assertion.Node, trace.FormatValue(actual)),
			Trace:    records,
		}
	}
	return nil
}

// assertTraceCount checks the node was recorded exactly the specified number of times.
func assertTraceCount(records []trace.Record, assertion Assertion) error {
	count := 0
	for _, r := range records {
		if r.Node == assertion.Node {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d records of %s", assertion.Count, assertion.Node),
			Actual:   fmt.Sprintf("%d records", count),
			Trace:    records,
		}
	}
	return nil
}

// assertTraceOrder checks nodes are first recorded in the specified order.
// Records need not be consecutive (intervening records are allowed).
func assertTraceOrder(records []trace.Record, assertion Assertion) error {
	// Step 1: Find first position of each expected node
	positions := make(map[string]int)
	for i, r := range records {
		if positions[r.Node] == 0 {
			positions[r.Node] = i + 1 // 1-indexed for readability
		}
	}

	// Step 2: Verify all nodes found
	for _, node := range assertion.Nodes {
		if positions[node] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all nodes present: %v", assertion.Nodes),
				Actual:   fmt.Sprintf("missing node: %s", node),
				Trace:    records,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.Nodes); i++ {
		prev := assertion.Nodes[i-1]
		curr := assertion.Nodes[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("nodes in order: %v", assertion.Nodes),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: records,
			}
		}
	}
	return nil
}

// assertTraceContains checks the node was recorded with the value, at the
// given time if one is set.
func assertTraceContains(records []trace.Record, assertion Assertion) error {
	for _, r := range records {
		if r.Node != assertion.Node {
			continue
		}
		if assertion.Time != nil && r.Time != *assertion.Time {
			continue
		}
		if closeEnough(r.Value, *assertion.Value, assertion.Tolerance) {
			return nil
		}
	}

	expected := fmt.Sprintf("%s = %s", assertion.Node, trace.FormatValue(*assertion.Value))
	if assertion.Time != nil {
		expected += fmt.Sprintf(" at t=%d", *assertion.Time)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    records,
	}
}

// assertTraceValues checks the node's full recorded value sequence.
func assertTraceValues(records []trace.Record, assertion Assertion) error {
	var actual []float64
	for _, r := range records {
		if r.Node == assertion.Node {
			actual = append(actual, r.Value)
		}
	}

	match := len(actual) == len(assertion.Values)
	for i := 0; match && i < len(actual); i++ {
		match = closeEnough(actual[i], assertion.Values[i], assertion.Tolerance)
	}
	if !match {
		return &AssertionError{
			Type:     AssertTraceValues,
			Expected: fmt.Sprintf("%s values %s", assertion.Node, formatValues(assertion.Values)),
			Actual:   fmt.Sprintf("%s values %s", assertion.Node, formatValues(actual)),
			Trace:    records,
		}
	}
	return nil
}

func formatValues(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = trace.FormatValue(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFinalValue:
			err = assertFinalValue(result.Final, result.Records, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Records, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Records, assertion)
		case AssertTraceContains:
			err = assertTraceContains(result.Records, assertion)
		case AssertTraceValues:
			err = assertTraceValues(result.Records, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
