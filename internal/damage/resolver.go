package damage

import (
	"math/rand/v2"

	"github.com/udisondev/arpgcore/internal/stat"
)

// Roller yields uniform integers in [0, 100).
type Roller interface {
	Roll() int64
}

// RandRoller rolls from a math/rand/v2 source.
type RandRoller struct {
	rng *rand.Rand
}

// NewRandRoller creates a deterministic roller seeded with seed.
func NewRandRoller(seed uint64) *RandRoller {
	return &RandRoller{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Roll implements Roller.
func (r *RandRoller) Roll() int64 {
	return r.rng.Int64N(100)
}

// Data is the per-attack input to the formula.
type Data struct {
	DamageMultiplier int64
	RelicDamageBonus int64 // percent
}

// Result is the outcome of one hit. Not stored anywhere.
type Result struct {
	Evaded             bool
	Critical           bool
	TotalDamage        int64
	AttackerHealed     int64
	AttackerSelfDamage int64
}

// Resolver computes hit outcomes. It never mutates HP or sheets.
type Resolver struct {
	roll Roller
}

// NewResolver creates a resolver drawing rolls from roll.
func NewResolver(roll Roller) *Resolver {
	return &Resolver{roll: roll}
}

// Create resolves one hit of attacker on target.
//
// Integer arithmetic, truncating at every division. Roll order is fixed:
// evasion first, critical second; an evaded hit consumes only one roll.
func (r *Resolver) Create(attacker *stat.Sheet, data Data, target *stat.Sheet) Result {
	if r.roll.Roll() < target.Get(stat.Evasion) {
		return Result{Evaded: true}
	}

	critical := r.roll.Roll() < attacker.Get(stat.CriticalRate)

	pure := attacker.Get(stat.AttackPower) * data.DamageMultiplier * (100 + data.RelicDamageBonus) / 100
	mitigated := pure * 100 / (100 + target.Get(stat.Defense))

	total := mitigated
	if critical {
		total = mitigated * (100 + attacker.Get(stat.CriticalDamage)) / 100
	}

	return Result{
		Critical:           critical,
		TotalDamage:        total,
		AttackerHealed:     total * attacker.Get(stat.LifeSteal) / 100,
		AttackerSelfDamage: total * target.Get(stat.Reflect) / 100,
	}
}
