package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_BeginAdvance(t *testing.T) {
	c := New()
	require.NoError(t, c.Begin("arena"))

	assert.Equal(t, time.Duration(0), c.Now())
	require.NoError(t, c.Advance(16*time.Millisecond))
	assert.Equal(t, 16*time.Millisecond, c.Now())

	stage, ok := c.Stage()
	assert.True(t, ok)
	assert.Equal(t, "arena", stage)
}

func TestClock_SecondOwnerRejected(t *testing.T) {
	c := New()
	require.NoError(t, c.Begin("arena"))

	err := c.Begin("dungeon")
	require.ErrorIs(t, err, ErrClockOwned)

	stage, _ := c.Stage()
	assert.Equal(t, "arena", stage)
}

func TestClock_NowWithoutStagePanics(t *testing.T) {
	c := New()
	assert.PanicsWithValue(t, ErrNoActiveStage, func() { c.Now() })

	require.NoError(t, c.Begin("arena"))
	c.End()
	assert.Panics(t, func() { c.Now() })
}

func TestClock_AdvanceErrors(t *testing.T) {
	c := New()
	require.ErrorIs(t, c.Advance(time.Second), ErrNoActiveStage)

	require.NoError(t, c.Begin("arena"))
	require.NoError(t, c.Advance(time.Second))
	require.ErrorIs(t, c.Advance(500*time.Millisecond), ErrClockRewind)

	// Zero-length tick is fine.
	require.NoError(t, c.Advance(time.Second))
}

func TestClock_TimeCarriesAcrossStages(t *testing.T) {
	c := New()
	require.NoError(t, c.Begin("first"))
	assert.Equal(t, time.Duration(0), c.StageStart())
	require.NoError(t, c.Advance(time.Minute))
	c.End()

	require.NoError(t, c.Begin("second"))
	assert.Equal(t, time.Minute, c.Now())
	assert.Equal(t, time.Minute, c.StageStart())
	assert.ErrorIs(t, c.Advance(30*time.Second), ErrClockRewind)
	require.NoError(t, c.Advance(time.Minute+time.Second))
}

func TestFrozen(t *testing.T) {
	var src Source = Frozen(3 * time.Second)
	assert.Equal(t, 3*time.Second, src.Now())
}
