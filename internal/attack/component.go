package attack

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/arpgcore/internal/damage"
	"github.com/udisondev/arpgcore/internal/event"
	"github.com/udisondev/arpgcore/internal/model"
	"github.com/udisondev/arpgcore/internal/stat"
)

// component is behaviour attached to a live node. The set of variants is
// closed: newComponent picks one by ComponentSpec.Kind.
type component interface {
	// attach runs while the node is Activating.
	attach(n *Node)
	// strike runs after a landed hit has been applied.
	strike(n *Node, target event.Combatant, res damage.Result)
	// detach runs while the node is Deactivating.
	detach(n *Node)
}

func newComponent(spec *ComponentSpec, tpl *Template) component {
	identity := fmt.Sprintf("%s:%s:%s", tpl.Name, spec.Kind, spec.Stat)
	switch spec.Kind {
	case ComponentSplit:
		return &splitComponent{spec: spec}
	case ComponentVolley:
		return &volleyComponent{spec: spec}
	case ComponentDebuff:
		return &debuffComponent{spec: spec, identity: identity}
	case ComponentEmpower:
		return &empowerComponent{spec: spec, identity: identity}
	case ComponentFrenzy:
		return &frenzyComponent{spec: spec, identity: identity}
	}
	// Catalog validation rejects unknown kinds.
	panic(fmt.Sprintf("attack: unknown component kind %q", spec.Kind))
}

// fan returns count directions spread evenly around dir.
func fan(dir model.Vec2, count int, spread float64) []model.Vec2 {
	out := make([]model.Vec2, count)
	mid := float64(count-1) / 2
	for i := range out {
		out[i] = dir.Rotate((float64(i) - mid) * spread)
	}
	return out
}

type volleyComponent struct {
	spec *ComponentSpec
}

func (c *volleyComponent) attach(n *Node) {
	tpl, err := n.pool.catalog.Get(c.spec.Template)
	if err != nil {
		panic(err)
	}
	for _, dir := range fan(n.direction, c.spec.Count, c.spec.Spread) {
		n.pool.spawn(tpl, n.owner, n, n, n.location, dir)
	}
}

func (c *volleyComponent) strike(*Node, event.Combatant, damage.Result) {}

// Children are torn down by the node itself.
func (c *volleyComponent) detach(*Node) {}

type splitComponent struct {
	spec *ComponentSpec
}

func (c *splitComponent) attach(*Node) {}

func (c *splitComponent) strike(n *Node, target event.Combatant, _ damage.Result) {
	tpl, err := n.pool.catalog.Get(c.spec.Template)
	if err != nil {
		panic(err)
	}
	// Siblings share the node's parent so they outlive the node itself.
	if n.parent != nil && n.parent.state != StateLive {
		return
	}
	for _, dir := range fan(n.direction, c.spec.Count, c.spec.Spread) {
		child := n.pool.spawn(tpl, n.owner, n.parent, n, n.location, dir)
		child.Exclude(target.ID())
	}
	slog.Debug("attack split", "node", n.id, "template", tpl.ID, "count", c.spec.Count)
}

func (c *splitComponent) detach(*Node) {}

type debuffComponent struct {
	spec     *ComponentSpec
	identity string
}

func (c *debuffComponent) attach(*Node) {}

func (c *debuffComponent) strike(n *Node, target event.Combatant, _ damage.Result) {
	if !target.Alive() {
		return
	}
	now := n.pool.clock.Now()
	target.Sheet().AddModifier(c.spec.Stat,
		stat.Timed(c.spec.Op, c.spec.Value, c.identity, now, c.spec.Duration))
}

func (c *debuffComponent) detach(*Node) {}

// empowerComponent modifies the node's private snapshot only. The snapshot
// is dropped on deactivation, so there is nothing to undo.
type empowerComponent struct {
	spec     *ComponentSpec
	identity string
}

func (c *empowerComponent) attach(n *Node) {
	n.sheet.AddModifier(c.spec.Stat, stat.Modifier{
		Value:     c.spec.Value,
		Op:        c.spec.Op,
		Stackable: true,
		Identity:  c.identity,
		Permanent: true,
	})
}

func (c *empowerComponent) strike(*Node, event.Combatant, damage.Result) {}
func (c *empowerComponent) detach(*Node)                                 {}

type frenzyComponent struct {
	spec     *ComponentSpec
	identity string
}

func (c *frenzyComponent) attach(*Node) {}

func (c *frenzyComponent) strike(n *Node, _ event.Combatant, _ damage.Result) {
	if n.owner == nil || !n.owner.Alive() {
		return
	}
	now := n.pool.clock.Now()
	n.owner.Sheet().AddModifier(c.spec.Stat,
		stat.Timed(c.spec.Op, c.spec.Value, c.identity, now, c.spec.Duration))
}

func (c *frenzyComponent) detach(*Node) {}
