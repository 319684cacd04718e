package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycles_Next(t *testing.T) {
	c := NewCycles(0)
	assert.Zero(t, c.Last())

	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Last())
}

func TestCycles_ContinuesAfter(t *testing.T) {
	c := NewCycles(41)
	assert.Equal(t, int64(41), c.Last())
	assert.Equal(t, int64(42), c.Next())
}

func TestCycles_ConcurrentNextIsUnique(t *testing.T) {
	c := NewCycles(0)
	const goroutines = 16
	const perGoroutine = 200

	var mu sync.Mutex
	seen := make(map[int64]bool, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				v := c.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine)
	assert.Equal(t, int64(goroutines*perGoroutine), c.Last())
}

func TestHistoric_SharedCyclesKeepNumbering(t *testing.T) {
	cycles := NewCycles(0)
	var seen []int64
	obs := ObserverFunc(func(_ int64, cycle int64) { seen = append(seen, cycle) })

	first := NewHistoric(0, 10, WithCycles(cycles), WithObserver(obs))
	require.NoError(t, first.Schedule(func() error { return nil }, 0))
	require.NoError(t, first.Run(t.Context()))

	second := NewHistoric(0, 10, WithCycles(cycles), WithObserver(obs))
	require.NoError(t, second.Schedule(func() error { return nil }, 0))
	require.NoError(t, second.Run(t.Context()))

	assert.Equal(t, []int64{1, 2}, seen)
}
