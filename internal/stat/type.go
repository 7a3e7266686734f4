package stat

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type identifies one stat on a Sheet.
type Type uint8

const (
	MaxHP Type = iota
	AttackPower
	Defense
	Evasion
	CriticalRate
	CriticalDamage
	LifeSteal
	Reflect
	MoveSpeed
	AttackSpeed
	ProjectileSpeed
	CooldownReduction

	typeCount
)

// TypeCount is the number of known stat types.
const TypeCount = int(typeCount)

var typeNames = [typeCount]string{
	MaxHP:             "max_hp",
	AttackPower:       "attack_power",
	Defense:           "defense",
	Evasion:           "evasion",
	CriticalRate:      "critical_rate",
	CriticalDamage:    "critical_damage",
	LifeSteal:         "life_steal",
	Reflect:           "reflect",
	MoveSpeed:         "move_speed",
	AttackSpeed:       "attack_speed",
	ProjectileSpeed:   "projectile_speed",
	CooldownReduction: "cooldown_reduction",
}

func (t Type) String() string {
	if t < typeCount {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", t)
}

// Valid reports whether t is a known stat type.
func (t Type) Valid() bool {
	return t < typeCount
}

// ParseType resolves a stat name such as "attack_power".
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if strings.EqualFold(s, name) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stat type: %q", s)
}

// UnmarshalYAML decodes a stat type from its name. Works for map keys too.
func (t *Type) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseType(value.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Types returns every known stat type in declaration order.
func Types() []Type {
	out := make([]Type, typeCount)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}
