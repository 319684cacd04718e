package operator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tau/internal/core"
)

func TestLambda_ReceivesParams(t *testing.T) {
	n := core.NewNetwork()
	a := core.NewMutableSignal[int]()
	b := core.NewMutableSignal[int]()

	var sum int
	NewLambda(n, []core.Event{a, b}, func(params []core.Event) bool {
		sum = 0
		for _, p := range params {
			sum += p.(*core.MutableSignal[int]).Value()
		}
		return true
	})

	a.SetValue(2)
	b.SetValue(5)
	require.NoError(t, n.Activate(a))
	assert.Equal(t, 7, sum)
}

func TestAllActivated(t *testing.T) {
	n := core.NewNetwork()
	a := core.NewMutableSignal[int]()
	b := core.NewMutableSignal[int]()
	all := NewAllActivated(n, a, b)

	fired := 0
	NewDo(n, all, func() { fired++ })

	a.SetValue(1)
	require.NoError(t, n.Activate(a))
	assert.Zero(t, fired, "b has not fired yet")

	b.SetValue(1)
	require.NoError(t, n.Activate(b))
	assert.Equal(t, 1, fired)

	a.SetValue(2)
	require.NoError(t, n.Activate(a))
	assert.Equal(t, 2, fired, "activation record latches")
}

func TestAnyActivated(t *testing.T) {
	n := core.NewNetwork()
	a := core.NewMutableSignal[int]()
	b := core.NewMutableSignal[int]()
	anyOf := NewAnyActivated(n, a, b)

	fired := 0
	NewDo(n, anyOf, func() { fired++ })

	require.NoError(t, n.Activate(a))
	assert.Zero(t, fired, "a was not modified, so nothing propagated")

	b.SetValue(1)
	require.NoError(t, n.Activate(b))
	assert.Equal(t, 1, fired)
}
