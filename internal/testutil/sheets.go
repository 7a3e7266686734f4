package testutil

import (
	"github.com/udisondev/arpgcore/internal/clock"
	"github.com/udisondev/arpgcore/internal/stat"
)

// Sheet builds a stat sheet frozen at time zero.
func Sheet(base stat.Base) *stat.Sheet {
	return stat.NewSheet(clock.Frozen(0), base)
}

// FighterBase is a plain melee stat line: no evasion, no crits.
func FighterBase() stat.Base {
	return stat.Base{
		stat.MaxHP:       200,
		stat.AttackPower: 50,
		stat.Defense:     50,
	}
}
