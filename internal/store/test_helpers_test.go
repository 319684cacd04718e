package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ticksAt builds ticks from alternating (time, value) pairs.
func ticksAt(pairs ...float64) []Tick {
	ticks := make([]Tick, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		ticks = append(ticks, Tick{TimeMillis: int64(pairs[i]), Value: pairs[i+1]})
	}
	return ticks
}
