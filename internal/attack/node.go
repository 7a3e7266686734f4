package attack

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/udisondev/arpgcore/internal/damage"
	"github.com/udisondev/arpgcore/internal/event"
	"github.com/udisondev/arpgcore/internal/model"
	"github.com/udisondev/arpgcore/internal/stat"
)

// State is a node's lifecycle phase.
type State uint8

const (
	StatePooled State = iota
	StateActivating
	StateLive
	StateDeactivating
)

var stateNames = [...]string{
	StatePooled:       "pooled",
	StateActivating:   "activating",
	StateLive:         "live",
	StateDeactivating: "deactivating",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// Combatant is what can own and be struck by attacks.
type Combatant interface {
	event.Combatant
	Location() model.Vec2
}

const relicStatCount = int(event.RelicLifetimeMs) + 1

// Node is one attack instance: a skill effect or a projectile.
//
// Nodes belong to the Pool and, when spawned by another node, to that
// parent. The owner and parent fields are back-references for lookup only.
type Node struct {
	pool       *Pool
	template   *Template
	id         event.ID
	state      State
	generation uint32

	owner      Combatant
	parent     *Node
	children   []*Node
	components []component

	// Private copy of the owner's (or parent's) stats taken at activation.
	sheet       *stat.Sheet
	hitTargets  map[event.ID]struct{}
	pierceCount int64
	relic       [relicStatCount]int64

	location  model.Vec2
	direction model.Vec2
	spawnedAt time.Duration

	hub event.Hub
}

func newNode(p *Pool, tpl *Template) *Node {
	return &Node{
		pool:       p,
		template:   tpl,
		hitTargets: make(map[event.ID]struct{}),
	}
}

// ID implements event.Entity. A node gets a fresh id on every activation.
func (n *Node) ID() event.ID { return n.id }

// Template returns the attack definition.
func (n *Node) Template() *Template { return n.template }

// State returns the lifecycle phase.
func (n *Node) State() State { return n.state }

// Live reports whether the node takes part in collisions.
func (n *Node) Live() bool { return n.state == StateLive }

// Owner returns the attacking combatant, nil once pooled.
func (n *Node) Owner() Combatant { return n.owner }

// Parent returns the spawning node, nil for roots.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the live child list.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// Sheet returns the node's private stat snapshot.
func (n *Node) Sheet() *stat.Sheet { return n.sheet }

// PierceCount returns the number of landed hits this activation.
func (n *Node) PierceCount() int64 { return n.pierceCount }

// Location returns the node position.
func (n *Node) Location() model.Vec2 { return n.location }

// SetLocation moves the node.
func (n *Node) SetLocation(v model.Vec2) { n.location = v }

// Direction returns the unit travel direction.
func (n *Node) Direction() model.Vec2 { return n.direction }

// SpawnedAt returns the combat time of activation.
func (n *Node) SpawnedAt() time.Duration { return n.spawnedAt }

// Handle returns a reference that goes stale when the node is recycled.
func (n *Node) Handle() Handle {
	return Handle{node: n, gen: n.generation}
}

// Exclude marks id as already hit so the node never strikes it.
func (n *Node) Exclude(id event.ID) {
	n.hitTargets[id] = struct{}{}
}

// HasHit reports whether id was struck (or excluded) this activation.
func (n *Node) HasHit(id event.ID) bool {
	_, ok := n.hitTargets[id]
	return ok
}

// RelicStat implements event.Tunable.
func (n *Node) RelicStat(s event.RelicStat) int64 {
	if int(s) >= relicStatCount {
		return 0
	}
	return n.relic[s]
}

// OverrideRelicStat implements event.Tunable. Overrides last until the
// node is pooled.
func (n *Node) OverrideRelicStat(s event.RelicStat, delta int64) {
	if int(s) >= relicStatCount || n.state == StatePooled {
		return
	}
	n.relic[s] += delta
}

func (n *Node) resetRelic() {
	n.relic[event.RelicDamageMultiplier] = n.template.DamageMultiplier
	n.relic[event.RelicDamageBonus] = 0
	n.relic[event.RelicMaxPierce] = n.template.MaxPierce
	n.relic[event.RelicLifetimeMs] = n.template.Lifetime.Milliseconds()
}

// Lifetime returns the effective lifetime; zero means unlimited.
func (n *Node) Lifetime() time.Duration {
	ms := n.relic[event.RelicLifetimeMs]
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func (n *Node) expired(now time.Duration) bool {
	life := n.Lifetime()
	return life > 0 && now-n.spawnedAt >= life
}

func (n *Node) damageData() damage.Data {
	return damage.Data{
		DamageMultiplier: n.relic[event.RelicDamageMultiplier],
		RelicDamageBonus: n.relic[event.RelicDamageBonus],
	}
}

// liveAt reports whether the node is still the activation that started a
// cascade. Handlers may deactivate (and even reuse) it mid-cascade.
func (n *Node) liveAt(gen uint32) bool {
	return n.state == StateLive && n.generation == gen
}

// Collide runs the hit cascade of n against target:
//
//	AttackHit -> DamageHit -> resolve -> Evaded + AttackMiss
//	                                  \-> Attack (HP is applied here)
//
// Each target is struck at most once per activation. A landed hit counts
// towards pierce; the node deactivates once the pierce limit is reached.
// Stale nodes, dead targets and the owner itself are ignored. Returns
// whether the cascade started.
func (n *Node) Collide(target event.Combatant) bool {
	if n.state != StateLive || target == nil || !target.Alive() {
		return false
	}
	if n.owner != nil && target.ID() == n.owner.ID() {
		return false
	}
	if n.HasHit(target.ID()) {
		return false
	}
	n.hitTargets[target.ID()] = struct{}{}
	gen := n.generation

	n.TriggerEvent(event.AttackHit, event.Target{Target: target})
	if !n.liveAt(gen) {
		return true
	}
	target.TriggerEvent(event.DamageHit, event.Attacker{Attacker: n})
	if !n.liveAt(gen) {
		return true
	}

	res := n.pool.resolver.Create(n.sheet, n.damageData(), target.Sheet())
	if res.Evaded {
		target.TriggerEvent(event.Evaded, event.None{})
		if n.liveAt(gen) {
			n.TriggerEvent(event.AttackMiss, event.Target{Target: target})
		}
		return true
	}

	n.TriggerEvent(event.Attack, event.Strike{Target: target, Result: res})
	if !n.liveAt(gen) {
		return true
	}
	n.pierceCount++
	if n.pierceCount >= n.relic[event.RelicMaxPierce] {
		n.pool.Deactivate(n)
	}
	return true
}

// OnEvent implements event.Entity. Attack applies the resolved hit; hit and
// miss notices are passed on to the owner so its relics see them.
func (n *Node) OnEvent(t event.Type, p event.Payload) bool {
	switch t {
	case event.AttackHit, event.AttackMiss:
		if n.owner != nil {
			n.owner.TriggerEvent(t, p)
		}
		return true
	case event.Attack:
		s, ok := p.(event.Strike)
		if !ok || s.Target == nil {
			return false
		}
		n.applyStrike(s)
		return true
	}
	return false
}

func (n *Node) applyStrike(s event.Strike) {
	owner := n.owner
	gen := n.generation
	res := s.Result

	dealt := s.Target.ApplyDamage(res.TotalDamage, owner)

	if owner != nil && owner.Alive() {
		if res.AttackerHealed > 0 {
			owner.Heal(res.AttackerHealed, n)
		}
		if res.AttackerSelfDamage > 0 {
			owner.ApplyDamage(res.AttackerSelfDamage, s.Target)
		}
	}
	slog.Debug("attack landed",
		"node", n.id,
		"template", n.template.ID,
		"target", s.Target.ID(),
		"damage", res.TotalDamage,
		"dealt", dealt,
		"critical", res.Critical)

	for _, c := range slices.Clone(n.components) {
		if !n.liveAt(gen) {
			break
		}
		c.strike(n, s.Target, res)
	}

	if owner != nil {
		owner.TriggerEvent(event.Attack, event.Strike{Target: s.Target, Via: n, Result: res})
	}
}

// Register implements event.Entity. Observers are dropped when the node
// is pooled.
func (n *Node) Register(t event.Type, o event.Observer) event.Subscription {
	return n.hub.Register(t, o)
}

// Unregister implements event.Entity.
func (n *Node) Unregister(s event.Subscription) bool {
	return n.hub.Unregister(s)
}

// TriggerEvent implements event.Entity.
func (n *Node) TriggerEvent(t event.Type, p event.Payload) {
	event.Dispatch(n, &n.hub, t, p)
}

func (n *Node) removeChild(c *Node) {
	if i := slices.Index(n.children, c); i >= 0 {
		n.children = slices.Delete(n.children, i, i+1)
	}
}

// Handle is a generation-checked reference to a node. The zero value is
// never valid.
type Handle struct {
	node *Node
	gen  uint32
}

// Node returns the referenced node if it is still the same live activation.
func (h Handle) Node() (*Node, bool) {
	if h.node == nil || h.node.generation != h.gen || h.node.state != StateLive {
		return nil, false
	}
	return h.node, true
}

// Valid reports whether h still refers to a live node.
func (h Handle) Valid() bool {
	_, ok := h.Node()
	return ok
}
