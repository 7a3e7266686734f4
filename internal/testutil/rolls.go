package testutil

import "fmt"

// ScriptedRoller returns pre-set rolls in order. Running out of rolls
// panics so a test never silently depends on an unplanned roll.
type ScriptedRoller struct {
	rolls []int64
	used  int
}

// Rolls creates a ScriptedRoller over the given values.
func Rolls(values ...int64) *ScriptedRoller {
	return &ScriptedRoller{rolls: values}
}

// Roll implements damage.Roller.
func (r *ScriptedRoller) Roll() int64 {
	if r.used >= len(r.rolls) {
		panic(fmt.Sprintf("testutil: scripted rolls exhausted after %d", r.used))
	}
	v := r.rolls[r.used]
	r.used++
	return v
}

// Used returns how many rolls were consumed.
func (r *ScriptedRoller) Used() int {
	return r.used
}

// ConstRoller always rolls the same value.
type ConstRoller int64

// Roll implements damage.Roller.
func (c ConstRoller) Roll() int64 { return int64(c) }
