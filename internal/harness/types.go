package harness

import "github.com/roach88/tau/internal/trace"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// Records is the trace recorded from the pipeline outputs.
	Records []trace.Record `json:"records"`

	// Digest is the trace digest.
	Digest string `json:"digest"`

	// Final holds the value of every source and node that has one after
	// the run.
	Final map[string]float64 `json:"final,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Records: []trace.Record{},
		Final:   make(map[string]float64),
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
