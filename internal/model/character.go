package model

import (
	"log/slog"

	"github.com/udisondev/arpgcore/internal/event"
	"github.com/udisondev/arpgcore/internal/stat"
)

// Character is a living combat entity: it owns HP, a stat sheet and a
// position, and is the HP owner that raises Death/Killed.
//
// Behaviour differences between players, monsters and bosses come from
// the capability set selected by Kind, not from separate types.
//
// Not safe for concurrent use: mutated only from the combat tick.
type Character struct {
	id    event.ID
	name  string
	kind  Kind
	caps  Capability
	level int32

	currentHP int64
	dead      bool

	sheet    *stat.Sheet
	location Vec2

	hub event.Hub
}

// NewCharacter creates a character at full HP.
// sheet must be initialized; a nil sheet panics on the first HP read.
func NewCharacter(id event.ID, name string, kind Kind, sheet *stat.Sheet) *Character {
	c := &Character{
		id:    id,
		name:  name,
		kind:  kind,
		caps:  kind.Capabilities(),
		level: 1,
		sheet: sheet,
	}
	c.currentHP = c.MaxHP()
	return c
}

// ID implements event.Entity.
func (c *Character) ID() event.ID { return c.id }

// Name returns the display name.
func (c *Character) Name() string { return c.name }

// Kind returns the entity kind tag.
func (c *Character) Kind() Kind { return c.kind }

// Has reports whether the character has capability want.
func (c *Character) Has(want Capability) bool { return c.caps&want != 0 }

// Sheet returns the live stat sheet.
func (c *Character) Sheet() *stat.Sheet { return c.sheet }

// Level returns the current level.
func (c *Character) Level() int32 { return c.level }

// Location returns the current position.
func (c *Character) Location() Vec2 { return c.location }

// SetLocation moves the character.
func (c *Character) SetLocation(v Vec2) { c.location = v }

// MaxHP returns the normalized MaxHP stat.
func (c *Character) MaxHP() int64 {
	return c.sheet.Get(stat.MaxHP)
}

// CurrentHP returns HP clamped to the current MaxHP.
func (c *Character) CurrentHP() int64 {
	return min(c.currentHP, c.MaxHP())
}

// Alive reports whether the character can still be hit.
func (c *Character) Alive() bool { return !c.dead }

// IsDead is the negation of Alive.
func (c *Character) IsDead() bool { return c.dead }

// HPPercentage returns current HP as a fraction of MaxHP.
func (c *Character) HPPercentage() float64 {
	return float64(c.CurrentHP()) / float64(c.MaxHP())
}

// ApplyDamage removes up to amount HP. When HP reaches zero the character
// dies: Death is raised on itself, then Killed on source (if any).
// Returns the HP actually removed. Dead characters take no damage.
func (c *Character) ApplyDamage(amount int64, source event.Entity) int64 {
	if c.dead || amount <= 0 {
		return 0
	}

	hp := c.CurrentHP()
	taken := min(amount, hp)
	c.currentHP = hp - taken
	if c.currentHP > 0 {
		return taken
	}

	c.dead = true
	kill := event.Kill{Killer: source, Victim: c}
	slog.Debug("character died", "id", c.id, "name", c.name, "killer", entityID(source))

	c.TriggerEvent(event.Death, kill)
	if source != nil {
		source.TriggerEvent(event.Killed, kill)
	}
	return taken
}

// Heal restores up to amount HP, capped at MaxHP, and raises Healed.
// Returns the HP actually restored.
func (c *Character) Heal(amount int64, source event.Entity) int64 {
	if c.dead || amount <= 0 {
		return 0
	}
	hp := c.CurrentHP()
	restored := min(amount, c.MaxHP()-hp)
	if restored <= 0 {
		return 0
	}
	c.currentHP = hp + restored
	c.TriggerEvent(event.Healed, event.Heal{Source: source, Amount: restored})
	return restored
}

// Revive brings the character back at full HP.
func (c *Character) Revive() {
	c.dead = false
	c.currentHP = c.MaxHP()
}

// LevelUp adds growth to the basic values, refills HP and raises LevelUp.
// Returns false for kinds that do not level.
func (c *Character) LevelUp(growth stat.Base) bool {
	if !c.Has(CapLevels) || c.dead {
		return false
	}
	for t, delta := range growth {
		c.sheet.Stat(t).AddToBasicValue(delta)
	}
	c.level++
	c.currentHP = c.MaxHP()
	c.TriggerEvent(event.LevelUp, event.Level{Level: c.level})
	return true
}

// AttachFeed forwards every event of this character to sink.
func (c *Character) AttachFeed(sink event.Sink) { c.hub.Attach(sink) }

// OnEvent implements event.Entity. A character refills HP when a battle starts.
func (c *Character) OnEvent(t event.Type, p event.Payload) bool {
	if t != event.BattleStart || c.dead {
		return false
	}
	c.currentHP = c.MaxHP()
	return true
}

// Register implements event.Entity.
func (c *Character) Register(t event.Type, o event.Observer) event.Subscription {
	return c.hub.Register(t, o)
}

// Unregister implements event.Entity.
func (c *Character) Unregister(s event.Subscription) bool {
	return c.hub.Unregister(s)
}

// TriggerEvent implements event.Entity.
func (c *Character) TriggerEvent(t event.Type, p event.Payload) {
	event.Dispatch(c, &c.hub, t, p)
}

func entityID(e event.Entity) event.ID {
	if e == nil {
		return 0
	}
	return e.ID()
}
