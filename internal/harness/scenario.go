package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Pipeline is the path of the CUE pipeline to run.
	// Relative paths are resolved against the scenario file's directory.
	Pipeline string `yaml:"pipeline"`

	// Ticks seeds stored series before the run, keyed by series name.
	Ticks map[string][]TickSpec `yaml:"ticks,omitempty"`

	// MaxEvents caps the run. Zero means unlimited.
	MaxEvents int `yaml:"max_events,omitempty"`

	// Assertions validate the recorded trace and final values.
	Assertions []Assertion `yaml:"assertions"`
}

// TickSpec is one seeded tick.
type TickSpec struct {
	Time  int64   `yaml:"time"`
	Value float64 `yaml:"value"`
}

// Assertion validates the trace or a final value.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_value": node's value after the run equals Value (within Tolerance)
	// - "trace_count": node was recorded exactly Count times
	// - "trace_order": Nodes are first recorded in this order
	// - "trace_contains": node was recorded with Value (and at Time, if set)
	// - "trace_values": node's recorded values are exactly Values
	Type string `yaml:"type"`

	// Node is the node name (all types but trace_order).
	Node string `yaml:"node,omitempty"`

	// Value is the expected value (final_value, trace_contains).
	Value *float64 `yaml:"value,omitempty"`

	// Time restricts trace_contains to one instant, in epoch millis.
	Time *int64 `yaml:"time,omitempty"`

	// Tolerance is the allowed absolute difference for value comparisons.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Count is the expected number of records (trace_count).
	Count int `yaml:"count,omitempty"`

	// Nodes is the expected first-appearance order (trace_order).
	Nodes []string `yaml:"nodes,omitempty"`

	// Values is the expected value sequence (trace_values).
	Values []float64 `yaml:"values,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalValue    = "final_value"
	AssertTraceCount    = "trace_count"
	AssertTraceOrder    = "trace_order"
	AssertTraceContains = "trace_contains"
	AssertTraceValues   = "trace_values"
)

// LoadScenario reads and parses a scenario YAML file, resolving the
// pipeline path relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the pipeline path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the pipeline path BEFORE validation
	if scenario.Pipeline != "" && !filepath.IsAbs(scenario.Pipeline) && basePath != "" {
		scenario.Pipeline = filepath.Join(basePath, scenario.Pipeline)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file
// name. Loading stops at the first invalid scenario.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Pipeline == "" {
		return fmt.Errorf("pipeline is required")
	}
	if _, err := os.Stat(s.Pipeline); os.IsNotExist(err) {
		return fmt.Errorf("pipeline file not found: %s", s.Pipeline)
	}

	if s.MaxEvents < 0 {
		return fmt.Errorf("max_events must be non-negative")
	}

	for series := range s.Ticks {
		if series == "" {
			return fmt.Errorf("ticks: series name is required")
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalValue, AssertTraceContains:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for %s", index, a.Type)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
	case AssertTraceCount:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Nodes) == 0 {
			return fmt.Errorf("assertions[%d]: nodes list is required for trace_order", index)
		}
	case AssertTraceValues:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for trace_values", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}
	return nil
}
