package model

import (
	"fmt"
	"strings"
)

// Kind tags what sort of character an entity is.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindMonster
	KindBoss
	KindSummon
)

// Capability is a behaviour flag selected by Kind.
type Capability uint16

const (
	// CapLevels: the character gains levels.
	CapLevels Capability = 1 << iota
	// CapCancelOnDeath: live attacks owned by the character are
	// deactivated when it dies.
	CapCancelOnDeath
	// CapRelics: the character may equip relics and deck effects.
	CapRelics
)

var kindCapabilities = map[Kind]Capability{
	KindPlayer:  CapLevels | CapCancelOnDeath | CapRelics,
	KindMonster: CapCancelOnDeath,
	KindBoss:    CapRelics, // boss projectiles outlive the boss
	KindSummon:  CapCancelOnDeath,
}

var kindNames = map[Kind]string{
	KindPlayer:  "player",
	KindMonster: "monster",
	KindBoss:    "boss",
	KindSummon:  "summon",
}

// Capabilities returns the capability set of k.
func (k Kind) Capabilities() Capability {
	return kindCapabilities[k]
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind resolves a kind name such as "monster".
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown character kind: %q", s)
}
