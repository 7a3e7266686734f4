package combat

import (
	"fmt"
	"time"

	"github.com/udisondev/arpgcore/internal/clock"
	"github.com/udisondev/arpgcore/internal/event"
	"github.com/udisondev/arpgcore/internal/model"
	"github.com/udisondev/arpgcore/internal/stat"
)

// DeckKind selects deck effect behaviour.
type DeckKind string

const (
	// DeckRally grants a timed modifier when a battle starts.
	DeckRally DeckKind = "rally"
	// DeckMomentum grants a timed modifier on every Every-th landed hit.
	DeckMomentum DeckKind = "momentum"
)

// DeckSpec describes a deck card.
type DeckSpec struct {
	Kind     DeckKind       `yaml:"kind"`
	Stat     stat.Type      `yaml:"stat"`
	Op       stat.Operation `yaml:"op"`
	Value    int64          `yaml:"value"`
	Duration time.Duration  `yaml:"duration"`
	Every    int            `yaml:"every"`
}

func (s DeckSpec) validate() error {
	switch s.Kind {
	case DeckRally:
	case DeckMomentum:
		if s.Every <= 0 {
			return fmt.Errorf("momentum needs every > 0")
		}
	default:
		return fmt.Errorf("unknown deck effect kind %q", s.Kind)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("%s needs a duration", s.Kind)
	}
	if !s.Stat.Valid() {
		return fmt.Errorf("%s: unknown stat %d", s.Kind, s.Stat)
	}
	return nil
}

// DeckEffect is a card in play for one character.
type DeckEffect struct {
	id    event.ID
	spec  DeckSpec
	clock clock.Source
	hits  int
	binding
	hub event.Hub
}

// AddDeckEffect puts a card into play for characterID. The kind must have
// CapRelics.
func (c *Context) AddDeckEffect(characterID event.ID, spec DeckSpec) (*DeckEffect, error) {
	ch, err := c.lookup(characterID)
	if err != nil {
		return nil, fmt.Errorf("adding deck effect: %w", err)
	}
	if !ch.Has(model.CapRelics) {
		return nil, fmt.Errorf("adding deck effect on %s: %w", ch.Kind(), ErrNotAllowed)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("adding deck effect: %w", err)
	}

	d := &DeckEffect{id: c.ids.Next(), spec: spec, clock: c.clock, binding: binding{holder: ch}}
	switch spec.Kind {
	case DeckRally:
		d.listen(d, event.BattleStart)
	case DeckMomentum:
		d.listen(d, event.Attack)
	}
	return d, nil
}

// RemoveDeckEffect takes a card out of play. Modifiers it already granted
// run out on their own.
func (c *Context) RemoveDeckEffect(d *DeckEffect) {
	if d.holder == nil {
		return
	}
	d.release()
	d.hub.Reset()
	d.holder = nil
}

// ID implements event.Entity.
func (d *DeckEffect) ID() event.ID { return d.id }

// Spec returns the card definition.
func (d *DeckEffect) Spec() DeckSpec { return d.spec }

func (d *DeckEffect) grant() {
	id := fmt.Sprintf("deck:%d:%s", d.id, d.spec.Kind)
	d.holder.Sheet().AddModifier(d.spec.Stat,
		stat.Timed(d.spec.Op, d.spec.Value, id, d.clock.Now(), d.spec.Duration))
}

// OnEvent implements event.Entity.
func (d *DeckEffect) OnEvent(t event.Type, p event.Payload) bool {
	if d.holder == nil || !d.holder.Alive() {
		return false
	}
	switch {
	case t == event.BattleStart && d.spec.Kind == DeckRally:
		d.hits = 0
		d.grant()
		return true
	case t == event.Attack && d.spec.Kind == DeckMomentum:
		d.hits++
		if d.hits%d.spec.Every == 0 {
			d.grant()
		}
		return true
	}
	return false
}

// Register implements event.Entity.
func (d *DeckEffect) Register(t event.Type, o event.Observer) event.Subscription {
	return d.hub.Register(t, o)
}

// Unregister implements event.Entity.
func (d *DeckEffect) Unregister(s event.Subscription) bool {
	return d.hub.Unregister(s)
}

// TriggerEvent implements event.Entity.
func (d *DeckEffect) TriggerEvent(t event.Type, p event.Payload) {
	event.Dispatch(d, &d.hub, t, p)
}
