package combat

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/arpgcore/internal/event"
	"github.com/udisondev/arpgcore/internal/model"
	"github.com/udisondev/arpgcore/internal/stat"
)

// RelicKind selects relic behaviour.
type RelicKind string

const (
	// RelicBloodthirst heals the holder by Value on every kill.
	RelicBloodthirst RelicKind = "bloodthirst"
	// RelicKeenEdge raises the damage bonus of every launched attack by Value percent.
	RelicKeenEdge RelicKind = "keen_edge"
	// RelicPiercer lets every launched attack pierce Value more targets.
	RelicPiercer RelicKind = "piercer"
	// RelicThorns adds Value to the holder's Reflect while equipped.
	RelicThorns RelicKind = "thorns"
)

// RelicSpec describes a relic.
type RelicSpec struct {
	Kind  RelicKind `yaml:"kind"`
	Value int64     `yaml:"value"`
}

func (s RelicSpec) validate() error {
	switch s.Kind {
	case RelicBloodthirst, RelicKeenEdge, RelicPiercer, RelicThorns:
		return nil
	}
	return fmt.Errorf("unknown relic kind %q", s.Kind)
}

// binding ties an attachment to the holder events it listens to.
type binding struct {
	holder *model.Character
	subs   []event.Subscription
}

func (b *binding) listen(self event.Entity, types ...event.Type) {
	for _, t := range types {
		b.subs = append(b.subs, b.holder.Register(t, event.ObserverFunc(func(n event.Notification) {
			self.TriggerEvent(n.Type, n.Payload)
		})))
	}
}

func (b *binding) release() {
	for _, s := range b.subs {
		b.holder.Unregister(s)
	}
	b.subs = nil
}

// Relic is a passive item. It is an event entity of its own: holder events
// it cares about are re-raised on the relic.
type Relic struct {
	id   event.ID
	spec RelicSpec
	binding
	hub event.Hub
}

// Equip gives a relic to characterID. The kind must have CapRelics.
func (c *Context) Equip(characterID event.ID, spec RelicSpec) (*Relic, error) {
	ch, err := c.lookup(characterID)
	if err != nil {
		return nil, fmt.Errorf("equipping relic: %w", err)
	}
	if !ch.Has(model.CapRelics) {
		return nil, fmt.Errorf("equipping relic on %s: %w", ch.Kind(), ErrNotAllowed)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("equipping relic: %w", err)
	}

	r := &Relic{id: c.ids.Next(), spec: spec, binding: binding{holder: ch}}
	switch spec.Kind {
	case RelicBloodthirst:
		r.listen(r, event.Killed)
	case RelicKeenEdge, RelicPiercer:
		r.listen(r, event.AttackLaunched)
	case RelicThorns:
		ch.Sheet().AddModifier(stat.Reflect, stat.Modifier{
			Value:     spec.Value,
			Op:        stat.OpAdditive,
			Stackable: true,
			Identity:  r.identity(),
			Permanent: true,
		})
	}
	slog.Debug("relic equipped", "relic", r.id, "kind", spec.Kind, "holder", ch.ID())
	return r, nil
}

// Unequip removes the relic from its holder. Safe to call twice.
func (c *Context) Unequip(r *Relic) {
	if r.holder == nil {
		return
	}
	if r.spec.Kind == RelicThorns {
		r.holder.Sheet().RemoveModifier(stat.Reflect, r.identity())
	}
	r.release()
	r.hub.Reset()
	r.holder = nil
}

func (r *Relic) identity() string {
	return fmt.Sprintf("relic:%d:%s", r.id, r.spec.Kind)
}

// ID implements event.Entity.
func (r *Relic) ID() event.ID { return r.id }

// Spec returns the relic definition.
func (r *Relic) Spec() RelicSpec { return r.spec }

// Holder returns the equipping character, nil once unequipped.
func (r *Relic) Holder() *model.Character { return r.holder }

// OnEvent implements event.Entity.
func (r *Relic) OnEvent(t event.Type, p event.Payload) bool {
	if r.holder == nil {
		return false
	}
	switch t {
	case event.Killed:
		if r.spec.Kind != RelicBloodthirst {
			return false
		}
		// Heal raises Healed, never Killed, so this cannot loop.
		r.holder.Heal(r.spec.Value, r)
		return true
	case event.AttackLaunched:
		launch, ok := p.(event.Launch)
		if !ok || launch.Attack == nil {
			return false
		}
		switch r.spec.Kind {
		case RelicKeenEdge:
			launch.Attack.OverrideRelicStat(event.RelicDamageBonus, r.spec.Value)
		case RelicPiercer:
			launch.Attack.OverrideRelicStat(event.RelicMaxPierce, r.spec.Value)
		default:
			return false
		}
		return true
	}
	return false
}

// Register implements event.Entity.
func (r *Relic) Register(t event.Type, o event.Observer) event.Subscription {
	return r.hub.Register(t, o)
}

// Unregister implements event.Entity.
func (r *Relic) Unregister(s event.Subscription) bool {
	return r.hub.Unregister(s)
}

// TriggerEvent implements event.Entity.
func (r *Relic) TriggerEvent(t event.Type, p event.Payload) {
	event.Dispatch(r, &r.hub, t, p)
}
