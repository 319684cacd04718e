package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tau/internal/trace"
)

// GoldenSuffix is the file extension of golden traces.
const GoldenSuffix = ".golden"

// ErrGoldenMismatch is wrapped by CheckGolden when a trace differs from its
// golden file.
var ErrGoldenMismatch = errors.New("trace differs from golden file")

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := trace.MarshalCanonical(result.Records)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}

// GoldenPath returns the golden file of a scenario inside dir.
func GoldenPath(dir, scenarioName string) string {
	return filepath.Join(dir, scenarioName+GoldenSuffix)
}

// CheckGolden compares a result's trace against its golden file in dir,
// outside of a test binary. A missing golden file is an error.
func CheckGolden(dir, scenarioName string, result *Result) error {
	want, err := os.ReadFile(GoldenPath(dir, scenarioName))
	if err != nil {
		return fmt.Errorf("read golden: %w", err)
	}
	got, err := trace.MarshalCanonical(result.Records)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: %s", ErrGoldenMismatch, GoldenPath(dir, scenarioName))
	}
	return nil
}

// UpdateGolden writes a result's trace as the golden file of a scenario,
// creating dir if needed.
func UpdateGolden(dir, scenarioName string, result *Result) error {
	data, err := trace.MarshalCanonical(result.Records)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create golden dir: %w", err)
	}
	return os.WriteFile(GoldenPath(dir, scenarioName), data, 0o644)
}
