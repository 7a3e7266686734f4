package stat

import (
	"slices"
	"time"
)

// Value is one numeric attribute: a basic value plus an ordered list of
// modifiers, evaluated lazily.
//
// Modifiers are folded in insertion order, not grouped by operation:
// +10 then +50% on 100 gives 165, the reverse gives 160.
//
// The cached result is valid only while dirty is false. Any write marks the
// value dirty; a read also recomputes when the earliest expiry hint has
// passed, and that recompute is what actually drops expired modifiers.
type Value struct {
	basic     int64
	modifiers []Modifier
	cached    int64
	dirty     bool
	expiry    expiryHeap

	bounded bool
	lo, hi  int64
}

// NewValue creates a value with the given basic value and no modifiers.
func NewValue(basic int64) *Value {
	return &Value{basic: basic, dirty: true}
}

// Basic returns the basic value without modifiers.
func (v *Value) Basic() int64 {
	return v.basic
}

// SetBasicValue overwrites the basic value.
func (v *Value) SetBasicValue(b int64) {
	v.basic = b
	v.dirty = true
}

// AddToBasicValue adds delta to the basic value.
func (v *Value) AddToBasicValue(delta int64) {
	v.basic += delta
	v.dirty = true
}

// MultiplyToBasicValue scales the basic value by k, truncating toward zero.
func (v *Value) MultiplyToBasicValue(k float64) {
	v.basic = int64(float64(v.basic) * k)
	v.dirty = true
}

// SetBounds clamps every evaluated result to [lo, hi].
func (v *Value) SetBounds(lo, hi int64) {
	v.bounded = true
	v.lo, v.hi = lo, hi
	v.dirty = true
}

// AddModifier appends m. A non-stackable modifier first evicts every
// modifier sharing its identity.
func (v *Value) AddModifier(m Modifier) {
	if !m.Stackable && m.Identity != "" {
		v.dropIdentity(m.Identity)
	}
	v.modifiers = append(v.modifiers, m)
	if !m.Permanent {
		v.expiry.add(m.ExpiresAt)
	}
	v.dirty = true
}

// RemoveModifier drops all modifiers with the identity.
// Returns false if none matched.
func (v *Value) RemoveModifier(identity string) bool {
	if !v.dropIdentity(identity) {
		return false
	}
	v.dirty = true
	return true
}

// ClearModifiers drops every modifier and expiry hint.
func (v *Value) ClearModifiers() {
	v.modifiers = v.modifiers[:0]
	v.expiry = v.expiry[:0]
	v.dirty = true
}

// Modifiers returns a copy of the modifier list as of the last recompute
// plus anything added since.
func (v *Value) Modifiers() []Modifier {
	return slices.Clone(v.modifiers)
}

// Value returns the effective value at now.
func (v *Value) Value(now time.Duration) int64 {
	if next, ok := v.expiry.peek(); ok && now >= next {
		v.dirty = true
	}
	if v.dirty {
		v.recompute(now)
	}
	return v.cached
}

// Clone returns an independent copy: own modifier list, own hints, own cache.
func (v *Value) Clone() *Value {
	c := *v
	c.modifiers = slices.Clone(v.modifiers)
	c.expiry = slices.Clone(v.expiry)
	return &c
}

func (v *Value) dropIdentity(identity string) bool {
	n := len(v.modifiers)
	v.modifiers = slices.DeleteFunc(v.modifiers, func(m Modifier) bool {
		return m.Identity == identity
	})
	return len(v.modifiers) != n
}

func (v *Value) recompute(now time.Duration) {
	v.modifiers = slices.DeleteFunc(v.modifiers, func(m Modifier) bool {
		return m.Expired(now)
	})
	v.expiry.rebuild(v.modifiers)

	result := v.basic
	for _, m := range v.modifiers {
		result = m.apply(result)
	}
	if v.bounded {
		result = min(max(result, v.lo), v.hi)
	}

	v.cached = result
	v.dirty = false
}
