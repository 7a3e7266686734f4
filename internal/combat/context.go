package combat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/udisondev/arpgcore/internal/attack"
	"github.com/udisondev/arpgcore/internal/clock"
	"github.com/udisondev/arpgcore/internal/damage"
	"github.com/udisondev/arpgcore/internal/event"
	"github.com/udisondev/arpgcore/internal/model"
	"github.com/udisondev/arpgcore/internal/stat"
	"github.com/udisondev/arpgcore/internal/telemetry"
)

var (
	// ErrUnknownEntity is returned for ids that name no character.
	ErrUnknownEntity = errors.New("combat: unknown entity")

	// ErrNotAllowed is returned when a character's kind lacks the
	// capability an operation needs.
	ErrNotAllowed = errors.New("combat: not allowed for this kind")
)

// Option configures a Context.
type Option func(*Context)

// WithRoller sets the source of hit rolls. Defaults to a RandRoller seeded with 1.
func WithRoller(r damage.Roller) Option {
	return func(c *Context) { c.roller = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// WithTracer sets the tracer for tick and collision spans. Defaults to a no-op tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Context) { c.tracer = t }
}

// WithCancelOnDeath controls whether characters with CapCancelOnDeath lose
// their live attacks when they die. Enabled by default.
func WithCancelOnDeath(on bool) Option {
	return func(c *Context) { c.cancelOnDeath = on }
}

// WithHitRadius makes Tick test every live attack against every character
// within r. Zero (the default) leaves collision detection to the caller.
func WithHitRadius(r float64) Option {
	return func(c *Context) { c.hitRadius = r }
}

// Context is the combat engine: one clock, one attack pool and the
// characters taking part. Everything runs on the caller's goroutine.
type Context struct {
	clock    *clock.Clock
	ids      event.IDs
	feed     *event.Feed
	catalog  *attack.Catalog
	resolver *damage.Resolver
	pool     *attack.Pool

	characters map[event.ID]*model.Character
	order      []event.ID

	roller        damage.Roller
	logger        *slog.Logger
	tracer        trace.Tracer
	cancelOnDeath bool
	hitRadius     float64
}

// New creates a combat context over catalog.
func New(catalog *attack.Catalog, opts ...Option) *Context {
	c := &Context{
		clock:         clock.New(),
		feed:          event.NewFeed(),
		catalog:       catalog,
		characters:    make(map[event.ID]*model.Character),
		cancelOnDeath: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.roller == nil {
		c.roller = damage.NewRandRoller(1)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = telemetry.NoopTracer()
	}

	c.resolver = damage.NewResolver(c.roller)
	c.pool = attack.NewPool(catalog, c.resolver, c.clock, &c.ids)
	c.pool.Attach(c.feed)
	return c
}

// Clock returns the shared combat clock.
func (c *Context) Clock() *clock.Clock { return c.clock }

// Pool returns the attack pool.
func (c *Context) Pool() *attack.Pool { return c.pool }

// Feed returns the notification stream of every character and attack.
func (c *Context) Feed() *event.Feed { return c.feed }

// Catalog returns the attack templates.
func (c *Context) Catalog() *attack.Catalog { return c.catalog }

// BeginStage takes the clock for stage and raises BattleStart on every
// character, in the order they were added.
func (c *Context) BeginStage(stage string) error {
	if err := c.clock.Begin(stage); err != nil {
		return err
	}
	c.logger.Info("stage started", "stage", stage, "characters", len(c.order))
	for _, ch := range c.Characters() {
		ch.TriggerEvent(event.BattleStart, event.Battle{Stage: stage})
	}
	return nil
}

// EndStage raises BattleEnd, pools every live attack and releases the clock.
func (c *Context) EndStage() error {
	stage, ok := c.clock.Stage()
	if !ok {
		return clock.ErrNoActiveStage
	}
	for _, ch := range c.Characters() {
		ch.TriggerEvent(event.BattleEnd, event.Battle{Stage: stage})
	}
	live := c.pool.LiveCount()
	c.pool.DeactivateAll()
	c.clock.End()
	c.logger.Info("stage ended", "stage", stage, "cancelled_attacks", live)
	return nil
}

// Tick advances the clock to now, moves and expires attacks, then runs
// proximity collisions when a hit radius is configured.
func (c *Context) Tick(ctx context.Context, now time.Duration) error {
	ctx, span := c.tracer.Start(ctx, "combat.tick")
	defer span.End()

	if err := c.clock.Advance(now); err != nil {
		span.RecordError(err)
		return fmt.Errorf("tick: %w", err)
	}
	c.pool.Update(now)

	hits := 0
	if c.hitRadius > 0 {
		hits = c.sweep(ctx)
	}
	span.SetAttributes(
		attribute.Int64("now_ms", now.Milliseconds()),
		attribute.Int("live_attacks", c.pool.LiveCount()),
		attribute.Int("hits", hits),
	)
	return nil
}

// sweep collides every live attack with every living character in range.
// Order is activation order, then character order.
func (c *Context) sweep(ctx context.Context) int {
	r2 := c.hitRadius * c.hitRadius
	hits := 0
	for _, n := range c.pool.Live() {
		h := n.Handle()
		for _, ch := range c.Characters() {
			if !h.Valid() {
				break
			}
			if !ch.Alive() || n.Location().DistanceSquared(ch.Location()) > r2 {
				continue
			}
			if c.collide(ctx, n, ch) {
				hits++
			}
		}
	}
	return hits
}

// AddCharacter creates a character with base stats. Its sheet reads the
// combat clock, so a stage must be active.
func (c *Context) AddCharacter(name string, kind model.Kind, base stat.Base) (*model.Character, error) {
	if _, ok := c.clock.Stage(); !ok {
		return nil, fmt.Errorf("adding character %q: %w", name, clock.ErrNoActiveStage)
	}

	ch := model.NewCharacter(c.ids.Next(), name, kind, stat.NewSheet(c.clock, base))
	ch.AttachFeed(c.feed)
	if c.cancelOnDeath && ch.Has(model.CapCancelOnDeath) {
		id := ch.ID()
		ch.Register(event.Death, event.ObserverFunc(func(event.Notification) {
			c.pool.DeactivateOwnedBy(id)
		}))
	}

	c.characters[ch.ID()] = ch
	c.order = append(c.order, ch.ID())
	c.logger.Debug("character added", "id", ch.ID(), "name", name, "kind", kind)
	return ch, nil
}

// RemoveCharacter drops a character and cancels its attacks.
func (c *Context) RemoveCharacter(id event.ID) error {
	if _, ok := c.characters[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}
	c.pool.DeactivateOwnedBy(id)
	delete(c.characters, id)
	c.order = slices.DeleteFunc(c.order, func(o event.ID) bool { return o == id })
	return nil
}

// Character returns the character with id.
func (c *Context) Character(id event.ID) (*model.Character, bool) {
	ch, ok := c.characters[id]
	return ch, ok
}

// Characters returns all characters in the order they were added.
func (c *Context) Characters() []*model.Character {
	out := make([]*model.Character, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.characters[id])
	}
	return out
}

func (c *Context) lookup(id event.ID) (*model.Character, error) {
	ch, ok := c.characters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}
	return ch, nil
}

// SpawnAttack launches templateID from attackerID, optionally as a child of
// parent. attackerID may be zero when parent is given.
//
// A stale parent or a dead attacker is a same-tick race, not an error: the
// returned handle is simply invalid.
func (c *Context) SpawnAttack(templateID int32, attackerID event.ID, parent attack.Handle, dir model.Vec2) (attack.Handle, error) {
	if _, ok := c.clock.Stage(); !ok {
		return attack.Handle{}, fmt.Errorf("spawning attack %d: %w", templateID, clock.ErrNoActiveStage)
	}

	var attacker attack.Combatant
	if attackerID != 0 {
		ch, err := c.lookup(attackerID)
		if err != nil {
			return attack.Handle{}, fmt.Errorf("spawning attack %d: %w", templateID, err)
		}
		attacker = ch
	}

	var parentNode *attack.Node
	if parent != (attack.Handle{}) {
		n, ok := parent.Node()
		if !ok {
			c.logger.Debug("spawn skipped: stale parent", "template", templateID)
			return attack.Handle{}, nil
		}
		parentNode = n
	}

	n, err := c.pool.Create(templateID, attacker, parentNode, dir)
	if errors.Is(err, attack.ErrStale) {
		c.logger.Debug("spawn skipped", "template", templateID, "attacker", attackerID, "error", err)
		return attack.Handle{}, nil
	}
	if err != nil {
		return attack.Handle{}, fmt.Errorf("spawning attack %d: %w", templateID, err)
	}
	return n.Handle(), nil
}

// Collide runs the hit cascade of the attack behind h against targetID.
// Stale handles and unknown or dead targets are ignored. Returns whether
// the cascade ran.
func (c *Context) Collide(ctx context.Context, h attack.Handle, targetID event.ID) bool {
	n, ok := h.Node()
	if !ok {
		c.logger.Debug("collision skipped: stale attack", "target", targetID)
		return false
	}
	target, ok := c.characters[targetID]
	if !ok {
		c.logger.Debug("collision skipped: unknown target", "target", targetID)
		return false
	}
	return c.collide(ctx, n, target)
}

func (c *Context) collide(ctx context.Context, n *attack.Node, target *model.Character) bool {
	_, span := c.tracer.Start(ctx, "combat.collide")
	defer span.End()

	hpBefore := target.CurrentHP()
	ran := n.Collide(target)
	span.SetAttributes(
		attribute.Int("attack.template", int(n.Template().ID)),
		attribute.Int64("target", int64(target.ID())),
		attribute.Bool("ran", ran),
		attribute.Int64("damage", hpBefore-target.CurrentHP()),
	)
	return ran
}

// QueryStat reads a stat of entity id, normalized or raw.
func (c *Context) QueryStat(id event.ID, t stat.Type, normalized bool) (int64, error) {
	ch, err := c.lookup(id)
	if err != nil {
		return 0, err
	}
	if !t.Valid() {
		return 0, fmt.Errorf("querying stat %d: unknown type", t)
	}
	if _, ok := c.clock.Stage(); !ok {
		return 0, fmt.Errorf("querying stat %s: %w", t, clock.ErrNoActiveStage)
	}
	if normalized {
		return ch.Sheet().Get(t), nil
	}
	return ch.Sheet().GetRaw(t), nil
}

// ApplyModifier adds m to stat t of entity id. Live attacks already
// launched by the entity keep their own snapshot.
func (c *Context) ApplyModifier(id event.ID, t stat.Type, m stat.Modifier) error {
	ch, err := c.lookup(id)
	if err != nil {
		return err
	}
	if !t.Valid() {
		return fmt.Errorf("applying modifier %q: unknown stat type %d", m.Identity, t)
	}
	ch.Sheet().AddModifier(t, m)
	return nil
}

// Subscribe registers o for events of type t raised by entity id.
func (c *Context) Subscribe(id event.ID, t event.Type, o event.Observer) (event.Subscription, error) {
	ch, err := c.lookup(id)
	if err != nil {
		return event.Subscription{}, err
	}
	return ch.Register(t, o), nil
}

// Unsubscribe removes a subscription made with Subscribe.
func (c *Context) Unsubscribe(id event.ID, s event.Subscription) error {
	ch, err := c.lookup(id)
	if err != nil {
		return err
	}
	ch.Unregister(s)
	return nil
}
