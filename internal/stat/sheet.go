package stat

import (
	"errors"
	"fmt"

	"github.com/udisondev/arpgcore/internal/clock"
)

// ErrUninitializedSheet is the panic value for reads on a nil or zero Sheet.
var ErrUninitializedSheet = errors.New("stat: sheet is not initialized")

// Base holds basic values by type. Missing types start at zero.
type Base map[Type]int64

// Sheet is the full set of stats of one combat entity.
//
// Every known Type has a Value from construction on, so lookups never
// miss. Reads take the current time from the sheet's clock source.
type Sheet struct {
	src    clock.Source
	values [typeCount]*Value
}

// NewSheet creates a dense sheet reading time from src.
func NewSheet(src clock.Source, base Base) *Sheet {
	s := &Sheet{src: src}
	for i := range s.values {
		s.values[i] = NewValue(base[Type(i)])
	}
	return s
}

// GetRaw returns the effective (modified) value before normalization.
func (s *Sheet) GetRaw(t Type) int64 {
	return s.Stat(t).Value(s.src.Now())
}

// Get returns the normalized value of t.
func (s *Sheet) Get(t Type) int64 {
	return Normalize(t, s.GetRaw(t))
}

// Stat returns the underlying Value of t for direct mutation.
func (s *Sheet) Stat(t Type) *Value {
	s.mustInit()
	if !t.Valid() {
		panic(fmt.Errorf("stat: unknown type %d", t))
	}
	return s.values[t]
}

// AddModifier is shorthand for Stat(t).AddModifier(m).
func (s *Sheet) AddModifier(t Type, m Modifier) {
	s.Stat(t).AddModifier(m)
}

// RemoveModifier drops every modifier with identity from t.
func (s *Sheet) RemoveModifier(t Type, identity string) bool {
	return s.Stat(t).RemoveModifier(identity)
}

// Snapshot returns normalized values of every stat, indexed by Type.
func (s *Sheet) Snapshot() [TypeCount]int64 {
	var out [TypeCount]int64
	for i := range out {
		out[i] = s.Get(Type(i))
	}
	return out
}

// DeepCopy returns a sheet whose values share nothing with s.
// The copy reads from the same clock source.
func (s *Sheet) DeepCopy() *Sheet {
	s.mustInit()
	c := &Sheet{src: s.src}
	for i, v := range s.values {
		c.values[i] = v.Clone()
	}
	return c
}

func (s *Sheet) mustInit() {
	if s == nil || s.src == nil {
		panic(ErrUninitializedSheet)
	}
}
