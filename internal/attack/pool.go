package attack

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/udisondev/arpgcore/internal/clock"
	"github.com/udisondev/arpgcore/internal/damage"
	"github.com/udisondev/arpgcore/internal/event"
	"github.com/udisondev/arpgcore/internal/model"
	"github.com/udisondev/arpgcore/internal/stat"
)

var (
	// ErrStale is returned when the parent or attacker went away this tick.
	// Callers are expected to treat it as a no-op.
	ErrStale = errors.New("attack: parent or attacker is no longer live")

	// ErrNoOwner is returned when neither attacker nor parent is given.
	ErrNoOwner = errors.New("attack: no attacker")
)

// Stats counts pool allocations.
type Stats struct {
	Created uint64 // fresh constructions
	Reused  uint64 // activations served from a queue
}

// Pool creates, activates, deactivates and recycles attack nodes.
// Free nodes wait in a FIFO queue per template id.
//
// Not safe for concurrent use: every call must come from the combat tick.
type Pool struct {
	catalog  *Catalog
	resolver *damage.Resolver
	clock    clock.Source
	ids      *event.IDs
	sink     event.Sink

	free  map[int32][]*Node
	live  []*Node
	last  time.Duration
	stats Stats
}

// NewPool creates an empty pool.
func NewPool(catalog *Catalog, resolver *damage.Resolver, src clock.Source, ids *event.IDs) *Pool {
	return &Pool{
		catalog:  catalog,
		resolver: resolver,
		clock:    src,
		ids:      ids,
		free:     make(map[int32][]*Node),
	}
}

// Attach sends every event raised by pool nodes to sink.
func (p *Pool) Attach(sink event.Sink) {
	p.sink = sink
}

// Catalog returns the template catalog.
func (p *Pool) Catalog() *Catalog { return p.catalog }

// Create activates a node of templateID.
//
// With a parent, the node becomes its child, snapshots the parent's sheet
// and starts at the parent's position; a nil attacker then means the
// parent's owner. Without a parent the attacker's sheet is snapshotted.
func (p *Pool) Create(templateID int32, attacker Combatant, parent *Node, dir model.Vec2) (*Node, error) {
	tpl, err := p.catalog.Get(templateID)
	if err != nil {
		return nil, err
	}
	if parent != nil && parent.state != StateLive {
		return nil, ErrStale
	}

	owner := attacker
	if owner == nil && parent != nil {
		owner = parent.owner
	}
	if owner == nil {
		return nil, ErrNoOwner
	}
	if !owner.Alive() {
		return nil, ErrStale
	}

	from := parent
	at := owner.Location()
	if parent != nil {
		at = parent.location
	}
	return p.spawn(tpl, owner, parent, from, at, dir), nil
}

// spawn takes a node for tpl and runs activation. from is the node whose
// snapshot is copied; nil means the owner's live sheet.
func (p *Pool) spawn(tpl *Template, owner Combatant, parent, from *Node, at, dir model.Vec2) *Node {
	n := p.acquire(tpl)

	n.state = StateActivating
	n.id = p.ids.Next()
	n.owner = owner
	n.parent = parent
	if from != nil {
		n.sheet = from.sheet.DeepCopy()
	} else {
		n.sheet = owner.Sheet().DeepCopy()
	}
	if parent != nil {
		parent.children = append(parent.children, n)
	}
	n.location = at
	n.direction = dir.Normalize()
	n.spawnedAt = p.clock.Now()
	n.pierceCount = 0
	n.resetRelic()
	n.hub.Attach(p.sink)
	p.live = append(p.live, n)

	// The owner hears about n before any child a component spawns.
	owner.TriggerEvent(event.AttackLaunched, event.Launch{Attack: n})

	for i := range tpl.Components {
		c := newComponent(&tpl.Components[i], tpl)
		n.components = append(n.components, c)
		c.attach(n)
	}
	n.state = StateLive
	return n
}

func (p *Pool) acquire(tpl *Template) *Node {
	q := p.free[tpl.ID]
	if len(q) == 0 {
		p.stats.Created++
		return newNode(p, tpl)
	}
	n := q[0]
	q[0] = nil
	p.free[tpl.ID] = q[1:]
	p.stats.Reused++
	return n
}

// Deactivate tears n down and returns it to its queue, children first.
// Deactivating a node that is not live is a no-op.
func (p *Pool) Deactivate(n *Node) {
	if n == nil || n.state != StateLive {
		return
	}
	n.state = StateDeactivating

	for _, c := range slices.Clone(n.children) {
		p.Deactivate(c)
	}
	for _, c := range n.components {
		c.detach(n)
	}
	clear(n.components)
	n.components = n.components[:0]
	clear(n.hitTargets)
	n.resetRelic()

	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = nil
	n.owner = nil
	clear(n.children)
	n.children = n.children[:0]
	n.sheet = nil
	n.pierceCount = 0
	n.hub.Reset()
	n.hub.Attach(nil)

	if i := slices.Index(p.live, n); i >= 0 {
		p.live = slices.Delete(p.live, i, i+1)
	}
	n.generation++
	n.state = StatePooled
	p.free[n.template.ID] = append(p.free[n.template.ID], n)
}

// Update moves projectiles to now and expires nodes past their lifetime.
// Expired nodes raise AttackExpired before being pooled.
func (p *Pool) Update(now time.Duration) {
	dt := now - p.last
	if dt < 0 {
		dt = 0
	}
	p.last = now

	for _, n := range slices.Clone(p.live) {
		if n.state != StateLive {
			continue
		}
		if n.template.Kind == KindProjectile && dt > 0 {
			n.location = n.location.Add(n.direction.Scale(n.speed() * dt.Seconds()))
		}
		if n.expired(now) {
			n.TriggerEvent(event.AttackExpired, event.Launch{Attack: n})
			p.Deactivate(n)
		}
	}
}

// speed is the template speed raised by the snapshot's ProjectileSpeed,
// read as a percentage bonus.
func (n *Node) speed() float64 {
	bonus := n.sheet.Get(stat.ProjectileSpeed)
	return n.template.Speed * float64(100+bonus) / 100
}

// DeactivateOwnedBy deactivates every live node whose owner has id.
// Returns the number of nodes pooled, descendants included.
func (p *Pool) DeactivateOwnedBy(id event.ID) int {
	before := len(p.live)
	for _, n := range slices.Clone(p.live) {
		if n.state == StateLive && n.owner != nil && n.owner.ID() == id {
			p.Deactivate(n)
		}
	}
	count := before - len(p.live)
	if count > 0 {
		slog.Debug("attacks cancelled", "owner", id, "count", count)
	}
	return count
}

// DeactivateAll pools every live node.
func (p *Pool) DeactivateAll() {
	for _, n := range slices.Clone(p.live) {
		p.Deactivate(n)
	}
}

// Prewarm constructs count idle nodes for templateID.
func (p *Pool) Prewarm(templateID int32, count int) error {
	tpl, err := p.catalog.Get(templateID)
	if err != nil {
		return fmt.Errorf("prewarming pool: %w", err)
	}
	for range count {
		p.free[tpl.ID] = append(p.free[tpl.ID], newNode(p, tpl))
		p.stats.Created++
	}
	return nil
}

// Available returns the number of idle nodes queued for templateID.
func (p *Pool) Available(templateID int32) int {
	return len(p.free[templateID])
}

// LiveCount returns the number of live nodes.
func (p *Pool) LiveCount() int {
	return len(p.live)
}

// Live returns a copy of the live nodes in activation order.
func (p *Pool) Live() []*Node {
	return slices.Clone(p.live)
}

// Stats returns allocation counters.
func (p *Pool) Stats() Stats {
	return p.stats
}
