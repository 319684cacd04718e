package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tau/internal/trace"
)

const runningSumCUE = `name: "running-sum"
window: {start: 0, end: 30000}
sources: prices: {values: [0.0, 3.2, 2.1, 2.9, 8.3, 5.7]}
nodes: [
	{name: "rounded", op: "map", input: "prices", fn: "round"},
	{name: "sum", op: "scan", input: "rounded"},
]
outputs: ["sum"]
`

const seriesSumCUE = `name: "series-sum"
window: {start: 0, end: 10000}
sources: prices: {series: "prices"}
nodes: [
	{name: "sum", op: "scan", input: "prices"},
]
outputs: ["sum"]
`

const unknownInputCUE = `name: "broken"
window: {start: 0, end: 10}
sources: x: {values: [1]}
nodes: [
	{name: "y", op: "map", input: "nope", fn: "abs"},
]
outputs: ["y"]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// testCommand returns a bare command wired to buf, for calling run
// functions directly with injected options.
func testCommand(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(context.Background())
	return cmd
}

// decodeData unmarshals the data payload of a JSON CLIResponse into v and
// returns the response status.
func decodeData(t *testing.T, out string, v any) string {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if v != nil {
		require.NoError(t, json.Unmarshal(resp.Data, v))
	}
	return resp.Status
}

func sampleTrace() []trace.Record {
	return []trace.Record{
		{Seq: 1, Time: 1000, Node: "sum", Value: 1},
		{Seq: 2, Time: 2000, Node: "sum", Value: 3},
		{Seq: 3, Time: 3000, Node: "sum", Value: 6},
	}
}
