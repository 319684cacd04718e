package operator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tau/internal/engine"
)

func TestRepeatingTimer(t *testing.T) {
	h := newHistoric(t, 0, 10_000)
	timer, err := NewRepeatingTimer(h, 3*time.Second)
	require.NoError(t, err)

	var ticks []int64
	NewDo(h.Network(), timer, func() { ticks = append(ticks, h.Time()) })

	run(t, h)
	assert.Equal(t, []int64{3_000, 6_000, 9_000}, ticks)
}

func TestRepeatingTimer_RejectsZeroInterval(t *testing.T) {
	h := newHistoric(t, 0, 10_000)
	_, err := NewRepeatingTimer(h, 0)
	assert.Error(t, err)
}

func TestInterval(t *testing.T) {
	h := newHistoric(t, 0, 2_500)
	iv, err := NewInterval(h, time.Second)
	require.NoError(t, err)

	acc := NewSum(h.Network(), iv)
	var at []int64
	NewDo(h.Network(), iv, func() { at = append(at, h.Time()) })

	run(t, h)

	assert.Equal(t, []int64{0, 1_000, 2_000}, at)
	assert.Equal(t, int64(6), acc.Value())
}

func TestAlarm_DailyWakeUps(t *testing.T) {
	day := int64(24 * time.Hour / time.Millisecond)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	h := newHistoric(t, start, start+3*day, engine.WithLocation(time.UTC))

	alarm, err := NewAlarm(h, TimeOfDay{Hour: 9, Minute: 30}, nil)
	require.NoError(t, err)

	var rang []time.Time
	NewDo(h.Network(), alarm, func() { rang = append(rang, h.Clock().Time(nil)) })

	run(t, h)

	require.Len(t, rang, 3)
	assert.Equal(t, time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC), rang[0])
	assert.Equal(t, time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC), rang[2])
}

func TestAlarm_Next(t *testing.T) {
	a := &Alarm{wakeUp: TimeOfDay{Hour: 6}, loc: time.UTC}

	before := time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)
	exact := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)

	assert.Equal(t, exact, a.Next(before))
	assert.Equal(t, exact.AddDate(0, 0, 1), a.Next(exact), "an alarm never rings for the current instant")
	assert.Equal(t, "06:00:00", a.wakeUp.String())
}
