package stat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_InsertionOrderMatters(t *testing.T) {
	v := NewValue(100)
	v.AddModifier(Permanent(OpAdditive, 10, "flat"))
	v.AddModifier(Permanent(OpMultiplicative, 50, "pct"))
	assert.Equal(t, int64(165), v.Value(0))

	r := NewValue(100)
	r.AddModifier(Permanent(OpMultiplicative, 50, "pct"))
	r.AddModifier(Permanent(OpAdditive, 10, "flat"))
	assert.Equal(t, int64(160), r.Value(0))
}

func TestValue_SetOverridesEarlierModifiers(t *testing.T) {
	v := NewValue(100)
	v.AddModifier(Permanent(OpAdditive, 40, "a"))
	v.AddModifier(Permanent(OpSet, 10, "b"))
	v.AddModifier(Permanent(OpAdditive, 5, "c"))

	assert.Equal(t, int64(15), v.Value(0))
}

func TestValue_MultiplicativeTruncates(t *testing.T) {
	v := NewValue(33)
	v.AddModifier(Permanent(OpMultiplicative, 50, "half"))
	// 33 * 150 / 100 = 49.5 -> 49
	assert.Equal(t, int64(49), v.Value(0))

	n := NewValue(-33)
	n.AddModifier(Permanent(OpMultiplicative, 50, "half"))
	// Go division truncates toward zero.
	assert.Equal(t, int64(-49), n.Value(0))
}

func TestValue_TimedModifierWindow(t *testing.T) {
	start := 2 * time.Second
	d := 500 * time.Millisecond

	v := NewValue(10)
	v.AddModifier(Timed(OpAdditive, 5, "haste", start, d))

	tests := []struct {
		name string
		now  time.Duration
		want int64
	}{
		{"at start", start, 15},
		{"just before expiry", start + d - time.Millisecond, 15},
		{"at expiry", start + d, 10},
		{"after expiry", start + 2*d, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Value(tt.now))
		})
	}
	assert.Empty(t, v.Modifiers(), "expired modifier must be pruned from the list")
}

func TestValue_ReadIdempotence(t *testing.T) {
	v := NewValue(100)
	steps := []func(){
		func() { v.AddModifier(Timed(OpAdditive, 20, "a", 0, time.Second)) },
		func() { v.AddModifier(Permanent(OpMultiplicative, 10, "b")) },
		func() { v.AddModifier(Timed(OpSet, 7, "c", time.Second, time.Second)) },
		func() { v.ClearModifiers() },
		func() { v.AddModifier(Timed(OpMultiplicative, -50, "d", 3*time.Second, 10*time.Millisecond)) },
	}

	now := time.Duration(0)
	for i, step := range steps {
		step()
		for range 3 {
			first := v.Value(now)
			assert.Equal(t, first, v.Value(now), "step %d at %s", i, now)
			now += 400 * time.Millisecond
		}
	}
}

func TestValue_NonStackableReplaces(t *testing.T) {
	v := NewValue(100)
	v.AddModifier(Permanent(OpAdditive, 10, "might"))
	v.AddModifier(Permanent(OpMultiplicative, 50, "focus"))
	v.AddModifier(Permanent(OpAdditive, 30, "might"))

	mods := v.Modifiers()
	require.Len(t, mods, 2)
	assert.Equal(t, "focus", mods[0].Identity)
	assert.Equal(t, int64(30), mods[1].Value)
	// (100 * 150 / 100) + 30
	assert.Equal(t, int64(180), v.Value(0))
}

func TestValue_StackableAccumulates(t *testing.T) {
	v := NewValue(0)
	for range 3 {
		v.AddModifier(Modifier{Value: 5, Op: OpAdditive, Stackable: true, Identity: "stack", Permanent: true})
	}
	assert.Equal(t, int64(15), v.Value(0))
}

func TestValue_BasicWrites(t *testing.T) {
	v := NewValue(10)
	assert.Equal(t, int64(10), v.Value(0))

	v.SetBasicValue(20)
	assert.Equal(t, int64(20), v.Value(0))

	v.AddToBasicValue(-5)
	assert.Equal(t, int64(15), v.Value(0))

	v.MultiplyToBasicValue(1.5)
	assert.Equal(t, int64(22), v.Value(0))
	assert.Equal(t, int64(22), v.Basic())
}

func TestValue_Bounds(t *testing.T) {
	v := NewValue(90)
	v.SetBounds(0, 100)
	v.AddModifier(Permanent(OpAdditive, 50, "over"))
	assert.Equal(t, int64(100), v.Value(0))

	v.AddModifier(Permanent(OpSet, -20, "under"))
	assert.Equal(t, int64(0), v.Value(0))
}

func TestValue_RemoveModifier(t *testing.T) {
	v := NewValue(10)
	v.AddModifier(Permanent(OpAdditive, 5, "x"))
	assert.Equal(t, int64(15), v.Value(0))

	assert.True(t, v.RemoveModifier("x"))
	assert.False(t, v.RemoveModifier("x"))
	assert.Equal(t, int64(10), v.Value(0))
}

func TestValue_EmptyHeapProbe(t *testing.T) {
	v := NewValue(42)
	assert.NotPanics(t, func() {
		v.Value(time.Hour)
		v.ClearModifiers()
		v.Value(2 * time.Hour)
	})
	assert.Equal(t, int64(42), v.Value(3*time.Hour))
}

func TestValue_CloneIsIndependent(t *testing.T) {
	v := NewValue(10)
	v.AddModifier(Timed(OpAdditive, 5, "t", 0, time.Second))

	c := v.Clone()
	c.AddModifier(Permanent(OpAdditive, 100, "p"))
	v.SetBasicValue(0)

	assert.Equal(t, int64(5), v.Value(0))
	assert.Equal(t, int64(115), c.Value(0))
	assert.Equal(t, int64(110), c.Value(time.Second))
	assert.Equal(t, int64(0), v.Value(time.Second))
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation("MUL")
	require.NoError(t, err)
	assert.Equal(t, OpMultiplicative, op)

	_, err = ParseOperation("pow")
	assert.Error(t, err)
}
