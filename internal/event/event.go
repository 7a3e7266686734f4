package event

import "fmt"

// ID identifies a combat entity for the lifetime of the process.
type ID uint32

// Type is the kind of event travelling between entities.
type Type uint8

const (
	AttackHit Type = iota + 1
	DamageHit
	Evaded
	AttackMiss
	Attack
	Killed
	Death
	LevelUp
	BattleStart
	BattleEnd
	AttackLaunched
	AttackExpired
	Healed
)

var typeNames = map[Type]string{
	AttackHit:      "attack_hit",
	DamageHit:      "damage_hit",
	Evaded:         "evaded",
	AttackMiss:     "attack_miss",
	Attack:         "attack",
	Killed:         "killed",
	Death:          "death",
	LevelUp:        "level_up",
	BattleStart:    "battle_start",
	BattleEnd:      "battle_end",
	AttackLaunched: "attack_launched",
	AttackExpired:  "attack_expired",
	Healed:         "healed",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", t)
}

// ParseType resolves an event name such as "killed".
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event type: %q", s)
}

// Entity is the capability every combat participant has: characters,
// attacks, relics and deck effects all receive and raise events the same way.
type Entity interface {
	ID() ID

	// OnEvent is the entity's own reaction. Returns true if it did something.
	OnEvent(t Type, p Payload) bool

	Register(t Type, o Observer) Subscription
	Unregister(s Subscription) bool

	// TriggerEvent runs OnEvent, then the registered observers in
	// registration order. Nested triggers finish before it returns.
	TriggerEvent(t Type, p Payload)
}

// Notification is what observers and the feed receive.
type Notification struct {
	Type    Type
	Source  Entity
	Target  Entity
	Payload Payload
}

// Observer receives notifications from an entity it is registered on.
type Observer interface {
	Observe(n Notification)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(n Notification)

// Observe implements Observer.
func (f ObserverFunc) Observe(n Notification) { f(n) }
