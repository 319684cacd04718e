package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tau/internal/store"
)

func TestImport_AppendAndReplace(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tau.db")
	csvPath := writeFile(t, dir, "prices.csv", "time_millis,value\n1000,1.5\n2000,2.5\n3000,3.5\n")

	out, _, err := execute(t, "import", csvPath, "--db", dbPath, "--series", "prices")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 tick(s) into prices")
	assert.Contains(t, out, "Series prices: 3 tick(s) in [1000, 3000]")

	out, _, err = execute(t, "import", csvPath, "--db", dbPath, "--series", "prices")
	require.NoError(t, err)
	assert.Contains(t, out, "Series prices: 6 tick(s)")

	out, _, err = execute(t, "--format", "json", "import", csvPath, "--db", dbPath, "--series", "prices", "--replace")
	require.NoError(t, err)
	var result ImportResult
	require.Equal(t, "ok", decodeData(t, out, &result))
	assert.Equal(t, int64(6), result.Deleted)
	assert.Equal(t, 3, result.Count)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	ticks, err := st.ReadTicks(context.Background(), "prices", 0, 5000)
	require.NoError(t, err)
	require.Len(t, ticks, 3)
	assert.Equal(t, 2.5, ticks[1].Value)
}

func TestImport_DateTimesInLocation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tau.db")
	csvPath := writeFile(t, dir, "prices.csv", "2024-01-02T09:30:00,100\n")

	out, _, err := execute(t, "--format", "json", "import", csvPath,
		"--db", dbPath, "--series", "px", "--location", "America/New_York")
	require.NoError(t, err)

	var result ImportResult
	decodeData(t, out, &result)
	assert.Equal(t, int64(1704205800000), result.FirstTime)
}

func TestImport_Errors(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tau.db")
	good := writeFile(t, dir, "good.csv", "1000,1\n")
	bad := writeFile(t, dir, "bad.csv", "1000,1\n2000,abc\n")

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"missing file", []string{"import", filepath.Join(dir, "nope.csv"), "--db", dbPath, "--series", "s"}, ExitCommandError, "failed to open CSV"},
		{"bad csv", []string{"import", bad, "--db", dbPath, "--series", "s"}, ExitFailure, "invalid value"},
		{"bad location", []string{"import", good, "--db", dbPath, "--series", "s", "--location", "Mars/Olympus"}, ExitCommandError, "invalid location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, _, err := execute(t, "import", good, "--db", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "series")
}
