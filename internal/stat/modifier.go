package stat

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Operation is how a modifier folds into the running result.
type Operation uint8

const (
	OpAdditive       Operation = iota // result + value
	OpMultiplicative                  // result * (100 + value) / 100
	OpSet                             // result = value
)

var operationNames = [...]string{
	OpAdditive:       "add",
	OpMultiplicative: "mul",
	OpSet:            "set",
}

func (o Operation) String() string {
	if int(o) < len(operationNames) {
		return operationNames[o]
	}
	return fmt.Sprintf("Operation(%d)", o)
}

// ParseOperation accepts "add", "mul" or "set" (case-insensitive).
func ParseOperation(s string) (Operation, error) {
	for i, name := range operationNames {
		if strings.EqualFold(s, name) {
			return Operation(i), nil
		}
	}
	return 0, fmt.Errorf("unknown modifier operation: %q", s)
}

// UnmarshalYAML decodes an operation from its name.
func (o *Operation) UnmarshalYAML(value *yaml.Node) error {
	op, err := ParseOperation(value.Value)
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Modifier is a time-scoped adjustment of a single stat.
//
// Non-stackable modifiers with the same Identity replace each other:
// the older instance is dropped and the new one goes to the end of the list.
type Modifier struct {
	Value     int64
	Op        Operation
	Stackable bool
	Identity  string
	Permanent bool
	ExpiresAt time.Duration
}

// Permanent builds a modifier that never expires.
func Permanent(op Operation, value int64, identity string) Modifier {
	return Modifier{Value: value, Op: op, Identity: identity, Permanent: true}
}

// Timed builds a modifier that is live in [now, now+d).
func Timed(op Operation, value int64, identity string, now, d time.Duration) Modifier {
	return Modifier{Value: value, Op: op, Identity: identity, ExpiresAt: now + d}
}

// Expired reports whether the modifier no longer applies at now.
func (m Modifier) Expired(now time.Duration) bool {
	return !m.Permanent && now >= m.ExpiresAt
}

func (m Modifier) apply(result int64) int64 {
	switch m.Op {
	case OpAdditive:
		return result + m.Value
	case OpMultiplicative:
		return result * (100 + m.Value) / 100
	case OpSet:
		return m.Value
	}
	return result
}
