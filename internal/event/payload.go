package event

import (
	"github.com/udisondev/arpgcore/internal/damage"
	"github.com/udisondev/arpgcore/internal/stat"
)

// Payload is the closed set of event payloads. The unexported marker
// keeps other packages from adding variants; handlers switch on the
// concrete type.
type Payload interface {
	// Subject is the other party of the event, nil when there is none.
	Subject() Entity
	isPayload()
}

// None carries nothing (Evaded).
type None struct{}

// Target names the entity being hit or missed (AttackHit, AttackMiss).
type Target struct {
	Target Entity
}

// Attacker names the entity hitting the receiver (DamageHit).
type Attacker struct {
	Attacker Entity
}

// Strike carries a resolved hit (Attack). Via is the attack node when the
// event is forwarded to the node's owner.
type Strike struct {
	Target Combatant
	Via    Entity
	Result damage.Result
}

// Kill names both sides of a death (Killed, Death).
type Kill struct {
	Killer Entity
	Victim Entity
}

// Heal reports restored HP (Healed).
type Heal struct {
	Source Entity
	Amount int64
}

// Launch hands a freshly activated attack to its owner's listeners so
// they can tune it (AttackLaunched, AttackExpired).
type Launch struct {
	Attack Tunable
}

// Level reports a new character level (LevelUp).
type Level struct {
	Level int32
}

// Battle names the stage (BattleStart, BattleEnd).
type Battle struct {
	Stage string
}

func (None) Subject() Entity       { return nil }
func (p Target) Subject() Entity   { return p.Target }
func (p Attacker) Subject() Entity { return p.Attacker }
func (p Strike) Subject() Entity {
	if p.Target == nil {
		return nil
	}
	return p.Target
}
func (p Kill) Subject() Entity { return p.Victim }
func (p Heal) Subject() Entity { return p.Source }
func (p Launch) Subject() Entity {
	if p.Attack == nil {
		return nil
	}
	return p.Attack
}
func (Level) Subject() Entity  { return nil }
func (Battle) Subject() Entity { return nil }

func (None) isPayload()     {}
func (Target) isPayload()   {}
func (Attacker) isPayload() {}
func (Strike) isPayload()   {}
func (Kill) isPayload()     {}
func (Heal) isPayload()     {}
func (Launch) isPayload()   {}
func (Level) isPayload()    {}
func (Battle) isPayload()   {}

// RelicStat names an attack parameter a relic may override while the
// attack is live. Overrides are reverted when the attack is pooled.
type RelicStat uint8

const (
	RelicDamageMultiplier RelicStat = iota
	RelicDamageBonus
	RelicMaxPierce
	RelicLifetimeMs
)

// Tunable is an attack whose relic stats can be adjusted.
type Tunable interface {
	Entity
	OverrideRelicStat(s RelicStat, delta int64)
	RelicStat(s RelicStat) int64
}

// Combatant is an entity with HP and stats: something an attack can strike.
type Combatant interface {
	Entity
	Sheet() *stat.Sheet
	Alive() bool
	ApplyDamage(amount int64, source Entity) int64
	Heal(amount int64, source Entity) int64
}
