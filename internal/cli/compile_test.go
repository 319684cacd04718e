package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeNames(c CompiledPipeline) []string {
	names := make([]string, len(c.Nodes))
	for i, n := range c.Nodes {
		names[i] = n.Name
	}
	return names
}

func TestCompile_PrintsResolvedJSON(t *testing.T) {
	dir := t.TempDir()
	// Nodes declared out of order are printed in evaluation order.
	path := writeFile(t, dir, "p.cue", `name: "ordered"
location: "America/New_York"
window: {from: "2024-01-02T09:30:00", to: "2024-01-02T16:00:00"}
sources: px: {values: [1, 2]}
nodes: [
	{name: "total", op: "scan", input: "abs"},
	{name: "abs", op: "map", input: "px", fn: "abs"},
]
outputs: ["total"]
`)

	out, _, err := execute(t, "compile", path)
	require.NoError(t, err)

	var compiled CompiledPipeline
	require.NoError(t, json.Unmarshal([]byte(out), &compiled))
	assert.Equal(t, "ordered", compiled.Name)
	assert.Equal(t, "America/New_York", compiled.Location)
	assert.Equal(t, int64(1704205800000), compiled.Start)
	assert.Equal(t, int64(1704229200000), compiled.End)
	assert.Equal(t, []string{"abs", "total"}, nodeNames(compiled))
	assert.Equal(t, []string{"total"}, compiled.Outputs)
}

func TestCompile_JSONFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "p.cue", runningSumCUE)

	out, _, err := execute(t, "--format", "json", "compile", path)
	require.NoError(t, err)

	var compiled CompiledPipeline
	assert.Equal(t, "ok", decodeData(t, out, &compiled))
	assert.Equal(t, "UTC", compiled.Location)
	assert.Equal(t, []string{"rounded", "sum"}, nodeNames(compiled))
}

func TestCompile_OutputFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "p.cue", runningSumCUE)
	outPath := filepath.Join(dir, "out.json")

	out, _, err := execute(t, "compile", path, "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Compiled running-sum: 1 source(s), 2 node(s), 1 output(s)")
	assert.Contains(t, out, "Order: rounded -> sum")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var compiled CompiledPipeline
	require.NoError(t, json.Unmarshal(data, &compiled))
	assert.Equal(t, int64(30000), compiled.End)
}

func TestCompile_Errors(t *testing.T) {
	dir := t.TempDir()
	invalid := writeFile(t, dir, "broken.cue", unknownInputCUE)
	syntax := writeFile(t, dir, "syntax.cue", "name: \"x\"\nnodes: [\n")

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantOut  string
	}{
		{"missing file", filepath.Join(dir, "nope.cue"), ExitCommandError, "E005"},
		{"validation error", invalid, ExitFailure, "E206"},
		{"syntax error", syntax, ExitFailure, "E004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "compile", tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}
