package operator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelloWorld(t *testing.T) {
	h := newHistoric(t, 0, 30_000)
	signal, err := NewFrom(h, []string{"world"})
	require.NoError(t, err)

	var greeting string
	NewDo(h.Network(), signal, func() { greeting = "Hello, " + signal.Value() + "!" })

	run(t, h)
	assert.Equal(t, "Hello, world!", greeting)
}

func TestRoundThenRunningSum(t *testing.T) {
	h := newHistoric(t, 0, 30_000)
	values, err := NewFrom(h, []float64{0.0, 3.2, 2.1, 2.9, 8.3, 5.7})
	require.NoError(t, err)

	rounded := NewMap(h.Network(), values, math.RoundToEven)
	total := NewSum(h.Network(), rounded)
	sums := collect[float64](t, h, total)

	run(t, h)

	assert.Equal(t, 22.0, total.Value())
	assert.Equal(t, []float64{0, 3, 5, 8, 16, 22}, *sums)
}

func TestNonNegativeFilter(t *testing.T) {
	h := newHistoric(t, 0, 30_000)
	values, err := NewFrom(h, []float64{0.0, -3.2, 2.1, -2.9, 8.3, -5.7})
	require.NoError(t, err)

	filtered := NewFilter(h.Network(), values, func(v float64) bool { return v >= 0 })
	seen := collect[float64](t, h, filtered)

	run(t, h)

	assert.Equal(t, 8.3, filtered.Value())
	assert.Equal(t, []float64{0.0, 2.1, 8.3}, *seen)
}
