package attack_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/arpgcore/internal/attack"
	"github.com/udisondev/arpgcore/internal/damage"
	"github.com/udisondev/arpgcore/internal/event"
	"github.com/udisondev/arpgcore/internal/model"
	"github.com/udisondev/arpgcore/internal/stat"
	"github.com/udisondev/arpgcore/internal/testutil"
)

const (
	tplArrow  int32 = 1
	tplLance  int32 = 2
	tplVolley int32 = 3
	tplShard  int32 = 4
	tplBurst  int32 = 5
	tplHex    int32 = 6
	tplFury   int32 = 7
	tplBolt   int32 = 8
)

func testTemplates() []attack.Template {
	return []attack.Template{
		{ID: tplArrow, Name: "arrow", Kind: attack.KindProjectile, DamageMultiplier: 1, Speed: 10, Lifetime: time.Second},
		{ID: tplLance, Name: "lance", Kind: attack.KindProjectile, DamageMultiplier: 1, MaxPierce: 3},
		{ID: tplVolley, Name: "volley", Kind: attack.KindSkill, Components: []attack.ComponentSpec{
			{Kind: attack.ComponentVolley, Template: tplShard, Count: 3, Spread: 0.2},
		}},
		{ID: tplShard, Name: "shard", Kind: attack.KindProjectile, DamageMultiplier: 1, Speed: 20},
		{ID: tplBurst, Name: "burst", Kind: attack.KindProjectile, DamageMultiplier: 1, Components: []attack.ComponentSpec{
			{Kind: attack.ComponentSplit, Template: tplShard, Count: 2, Spread: 0.5},
		}},
		{ID: tplHex, Name: "hex", Kind: attack.KindSkill, DamageMultiplier: 1, Components: []attack.ComponentSpec{
			{Kind: attack.ComponentDebuff, Stat: stat.Defense, Op: stat.OpAdditive, Value: -50, Duration: 2 * time.Second},
		}},
		{ID: tplFury, Name: "fury", Kind: attack.KindSkill, DamageMultiplier: 1, Components: []attack.ComponentSpec{
			{Kind: attack.ComponentEmpower, Stat: stat.AttackPower, Op: stat.OpMultiplicative, Value: 50},
			{Kind: attack.ComponentFrenzy, Stat: stat.AttackSpeed, Op: stat.OpAdditive, Value: 20, Duration: time.Second},
		}},
		{ID: tplBolt, Name: "bolt", Kind: attack.KindProjectile, DamageMultiplier: 2},
	}
}

type fixture struct {
	clk    *testutil.ManualClock
	ids    *event.IDs
	feed   *event.Feed
	pool   *attack.Pool
	hero   *model.Character
	goblin *model.Character
	log    []event.Notification
	logSub event.Subscription
}

func newFixture(tb testing.TB, roll damage.Roller) *fixture {
	tb.Helper()

	catalog, err := attack.NewCatalog(testTemplates()...)
	require.NoError(tb, err)

	f := &fixture{
		clk:  &testutil.ManualClock{},
		ids:  &event.IDs{},
		feed: event.NewFeed(),
	}
	f.logSub = f.feed.Subscribe(event.ObserverFunc(func(n event.Notification) {
		f.log = append(f.log, n)
	}))
	f.pool = attack.NewPool(catalog, damage.NewResolver(roll), f.clk, f.ids)
	f.pool.Attach(f.feed)
	f.hero = f.character("hero", testutil.FighterBase())
	f.goblin = f.character("goblin", testutil.FighterBase())
	f.goblin.SetLocation(model.Vec2{X: 5})
	return f
}

func (f *fixture) character(name string, base stat.Base) *model.Character {
	c := model.NewCharacter(f.ids.Next(), name, model.KindPlayer, stat.NewSheet(f.clk, base))
	c.AttachFeed(f.feed)
	return c
}

func (f *fixture) create(t *testing.T, id int32) *attack.Node {
	t.Helper()
	n, err := f.pool.Create(id, f.hero, nil, model.Vec2{X: 1})
	require.NoError(t, err)
	return n
}

// trace renders the feed as "type@source" entries, skipping launches.
func (f *fixture) trace() []string {
	var out []string
	for _, n := range f.log {
		if n.Type == event.AttackLaunched {
			continue
		}
		src := "?"
		switch s := n.Source.(type) {
		case *model.Character:
			src = s.Name()
		case *attack.Node:
			src = s.Template().Name
		}
		out = append(out, fmt.Sprintf("%s@%s", n.Type, src))
	}
	return out
}

func TestCollide_LandedHitCascadeOrder(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplBolt)

	require.True(t, n.Collide(f.goblin))

	assert.Equal(t, []string{
		"attack_hit@bolt",
		"attack_hit@hero",
		"damage_hit@goblin",
		"attack@bolt",
		"attack@hero",
	}, f.trace())
	// 50 * 2 = 100 pure, 100 * 100 / 150 = 66.
	assert.Equal(t, int64(200-66), f.goblin.CurrentHP())
}

func TestCollide_EvadedStopsBeforeDamage(t *testing.T) {
	roll := testutil.Rolls(0)
	f := newFixture(t, roll)
	f.goblin.Sheet().Stat(stat.Evasion).SetBasicValue(100)

	n := f.create(t, tplBolt)
	require.True(t, n.Collide(f.goblin))

	assert.Equal(t, []string{
		"attack_hit@bolt",
		"attack_hit@hero",
		"damage_hit@goblin",
		"evaded@goblin",
		"attack_miss@bolt",
		"attack_miss@hero",
	}, f.trace())
	assert.Equal(t, 1, roll.Used())
	assert.Equal(t, int64(200), f.goblin.CurrentHP())
	assert.True(t, n.Live(), "a miss does not count towards pierce")
	assert.Zero(t, n.PierceCount())
}

func TestCollide_MaxPierceOneHitsOnce(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplArrow)

	assert.True(t, n.Collide(f.goblin))
	assert.False(t, n.Collide(f.goblin))

	assert.Equal(t, int64(200-33), f.goblin.CurrentHP())
	assert.Equal(t, attack.StatePooled, n.State())
	assert.Equal(t, 1, f.pool.Available(tplArrow))
}

func TestCollide_PiercingDedupsTargets(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	orc := f.character("orc", testutil.FighterBase())
	n := f.create(t, tplLance)

	assert.True(t, n.Collide(f.goblin))
	assert.False(t, n.Collide(f.goblin), "same target twice in one activation")
	assert.True(t, n.Collide(orc))

	assert.Equal(t, int64(2), n.PierceCount())
	assert.True(t, n.Live())
	assert.Equal(t, int64(200-33), f.goblin.CurrentHP())
	assert.Equal(t, int64(200-33), orc.CurrentHP())
}

func TestCollide_IgnoredTargets(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplLance)

	assert.False(t, n.Collide(nil))
	assert.False(t, n.Collide(f.hero), "owner")

	f.goblin.ApplyDamage(1000, nil)
	f.log = nil
	assert.False(t, n.Collide(f.goblin), "dead")
	assert.Empty(t, f.log)
}

func TestCollide_KillRaisesDeathThenKilled(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	f.goblin.Sheet().Stat(stat.MaxHP).SetBasicValue(30)
	f.goblin.Revive()

	n := f.create(t, tplArrow)
	require.True(t, n.Collide(f.goblin))

	assert.Equal(t, []string{
		"attack_hit@arrow",
		"attack_hit@hero",
		"damage_hit@goblin",
		"attack@arrow",
		"death@goblin",
		"killed@hero",
		"attack@hero",
	}, f.trace())
	assert.True(t, f.goblin.IsDead())
}

func TestCollide_LifeStealAndReflect(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	f.hero.Sheet().Stat(stat.LifeSteal).SetBasicValue(50)
	f.goblin.Sheet().Stat(stat.Reflect).SetBasicValue(10)
	f.hero.ApplyDamage(100, nil)

	n := f.create(t, tplArrow)
	n.Collide(f.goblin)

	// 33 dealt: 16 healed back, 3 reflected.
	assert.Equal(t, int64(100+16-3), f.hero.CurrentHP())
}

func TestCollide_StaleNodeIsNoop(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplLance)
	f.pool.Deactivate(n)
	f.log = nil

	assert.False(t, n.Collide(f.goblin))
	assert.Empty(t, f.log)
}

func TestCollide_DeactivatedMidCascade(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplLance)
	f.goblin.Register(event.DamageHit, event.ObserverFunc(func(event.Notification) {
		f.pool.Deactivate(n)
	}))

	assert.True(t, n.Collide(f.goblin))
	assert.Equal(t, int64(200), f.goblin.CurrentHP())
	assert.Equal(t, []string{"attack_hit@lance", "attack_hit@hero", "damage_hit@goblin"}, f.trace())
}

func TestPool_SnapshotIsolatedFromOwner(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplArrow)

	f.hero.Sheet().AddModifier(stat.AttackPower, stat.Permanent(stat.OpSet, 500, "cheat"))

	assert.Equal(t, int64(50), n.Sheet().GetRaw(stat.AttackPower))
	n.Collide(f.goblin)
	assert.Equal(t, int64(200-33), f.goblin.CurrentHP())
}

func TestPool_DeactivateWithChildrenReturnsAll(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	require.Zero(t, f.pool.Available(tplVolley))
	require.Zero(t, f.pool.Available(tplShard))

	root := f.create(t, tplVolley)
	children := root.Children()
	require.Len(t, children, 3)
	assert.Equal(t, 4, f.pool.LiveCount())
	for _, c := range children {
		assert.Same(t, root, c.Parent())
		assert.Same(t, f.hero, c.Owner())
	}

	f.pool.Deactivate(root)

	assert.Zero(t, f.pool.LiveCount())
	assert.Equal(t, 1, f.pool.Available(tplVolley))
	assert.Equal(t, 3, f.pool.Available(tplShard))
	for _, c := range children {
		assert.Equal(t, attack.StatePooled, c.State())
		assert.Nil(t, c.Parent())
	}

	f.create(t, tplVolley)
	assert.Equal(t, attack.Stats{Created: 4, Reused: 4}, f.pool.Stats())
	assert.Zero(t, f.pool.Available(tplShard))
}

func TestPool_DeactivateIsIdempotent(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplArrow)

	f.pool.Deactivate(n)
	f.pool.Deactivate(n)
	f.pool.Deactivate(nil)

	assert.Equal(t, 1, f.pool.Available(tplArrow))
}

func TestPool_ChildDeactivatedAlone(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	root := f.create(t, tplVolley)
	first := root.Children()[0]

	f.pool.Deactivate(first)

	assert.Len(t, root.Children(), 2)
	assert.True(t, root.Live())
}

func TestPool_HandleGoesStaleOnRecycle(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplArrow)
	old := n.Handle()
	require.True(t, old.Valid())

	f.pool.Deactivate(n)
	assert.False(t, old.Valid())

	again := f.create(t, tplArrow)
	require.Same(t, n, again, "FIFO reuse")
	assert.False(t, old.Valid())
	assert.True(t, again.Handle().Valid())
	assert.False(t, attack.Handle{}.Valid())
}

func TestPool_ParentLaunchPrecedesChildren(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	var launched []string
	f.hero.Register(event.AttackLaunched, event.ObserverFunc(func(n event.Notification) {
		launched = append(launched, n.Payload.(event.Launch).Attack.(*attack.Node).Template().Name)
	}))

	f.create(t, tplVolley)
	assert.Equal(t, []string{"volley", "shard", "shard", "shard"}, launched)
}

func TestPool_RelicOverridesRestored(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	sub := f.hero.Register(event.AttackLaunched, event.ObserverFunc(func(n event.Notification) {
		n.Payload.(event.Launch).Attack.OverrideRelicStat(event.RelicDamageBonus, 100)
	}))

	n := f.create(t, tplArrow)
	assert.Equal(t, int64(100), n.RelicStat(event.RelicDamageBonus))
	n.Collide(f.goblin)
	// 50 * 1 * 200 / 100 = 100, 100 * 100 / 150 = 66.
	assert.Equal(t, int64(200-66), f.goblin.CurrentHP())

	f.hero.Unregister(sub)
	again := f.create(t, tplArrow)
	require.Same(t, n, again)
	assert.Zero(t, again.RelicStat(event.RelicDamageBonus))
	assert.Equal(t, int64(1), again.RelicStat(event.RelicMaxPierce))
}

func TestPool_ObserversDroppedOnRecycle(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	var calls int
	n := f.create(t, tplArrow)
	n.Register(event.Attack, event.ObserverFunc(func(event.Notification) { calls++ }))

	f.pool.Deactivate(n)
	again := f.create(t, tplArrow)
	require.Same(t, n, again)
	again.Collide(f.goblin)
	assert.Zero(t, calls)
}

func TestPool_CreateErrors(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))

	_, err := f.pool.Create(99, f.hero, nil, model.Vec2{X: 1})
	assert.ErrorIs(t, err, attack.ErrUnknownTemplate)

	_, err = f.pool.Create(tplArrow, nil, nil, model.Vec2{X: 1})
	assert.ErrorIs(t, err, attack.ErrNoOwner)

	parent := f.create(t, tplVolley)
	f.pool.Deactivate(parent)
	_, err = f.pool.Create(tplShard, nil, parent, model.Vec2{X: 1})
	assert.ErrorIs(t, err, attack.ErrStale)

	f.hero.ApplyDamage(1000, nil)
	_, err = f.pool.Create(tplArrow, f.hero, nil, model.Vec2{X: 1})
	assert.ErrorIs(t, err, attack.ErrStale)
}

func TestPool_ChildInheritsParentSnapshot(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	parent := f.create(t, tplFury)
	f.hero.Sheet().Stat(stat.AttackPower).SetBasicValue(10)

	child, err := f.pool.Create(tplArrow, nil, parent, model.Vec2{Y: 1})
	require.NoError(t, err)

	assert.Same(t, f.hero, child.Owner())
	assert.Equal(t, int64(75), child.Sheet().GetRaw(stat.AttackPower), "parent's empowered snapshot")
	child.Sheet().Stat(stat.AttackPower).SetBasicValue(1)
	assert.Equal(t, int64(75), parent.Sheet().GetRaw(stat.AttackPower))
}

func TestPool_UpdateMovesAndExpires(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplArrow)

	f.clk.Set(500 * time.Millisecond)
	f.pool.Update(f.clk.Now())
	assert.InDelta(t, 5.0, n.Location().X, 1e-9)
	assert.True(t, n.Live())

	f.clk.Set(time.Second)
	f.pool.Update(f.clk.Now())
	assert.False(t, n.Live())
	assert.Equal(t, []string{"attack_expired@arrow"}, f.trace())
}

func TestPool_UpdateScalesByProjectileSpeed(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	// log curve: 100 raw -> +100% -> twice the template speed.
	f.hero.Sheet().Stat(stat.ProjectileSpeed).SetBasicValue(100)
	n := f.create(t, tplShard)

	f.clk.Set(time.Second)
	f.pool.Update(f.clk.Now())
	assert.InDelta(t, 40.0, n.Location().X, 1e-9)
}

func TestPool_LifetimeOverride(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplArrow)
	n.OverrideRelicStat(event.RelicLifetimeMs, 500)

	f.clk.Set(time.Second)
	f.pool.Update(f.clk.Now())
	assert.True(t, n.Live())

	f.clk.Set(1500 * time.Millisecond)
	f.pool.Update(f.clk.Now())
	assert.False(t, n.Live())
}

func TestPool_DeactivateOwnedByMidFlight(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	f.create(t, tplVolley)
	f.create(t, tplArrow)
	other, err := f.pool.Create(tplArrow, f.goblin, nil, model.Vec2{X: -1})
	require.NoError(t, err)

	assert.Equal(t, 5, f.pool.DeactivateOwnedBy(f.hero.ID()))
	assert.Equal(t, 1, f.pool.LiveCount())
	assert.True(t, other.Live())
	assert.Equal(t, 3, f.pool.Available(tplShard))
}

func TestPool_DeactivateAll(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	f.create(t, tplVolley)
	f.create(t, tplLance)

	f.pool.DeactivateAll()
	assert.Zero(t, f.pool.LiveCount())
	assert.Empty(t, f.pool.Live())
}

func TestPool_Prewarm(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	require.NoError(t, f.pool.Prewarm(tplArrow, 4))
	assert.Equal(t, 4, f.pool.Available(tplArrow))

	f.create(t, tplArrow)
	assert.Equal(t, 3, f.pool.Available(tplArrow))
	assert.Equal(t, attack.Stats{Created: 4, Reused: 1}, f.pool.Stats())

	assert.ErrorIs(t, f.pool.Prewarm(42, 1), attack.ErrUnknownTemplate)
}

func TestComponent_SplitSpawnsSiblings(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplBurst)

	require.True(t, n.Collide(f.goblin))

	assert.False(t, n.Live(), "burst used its single pierce")
	live := f.pool.Live()
	require.Len(t, live, 2)
	for _, s := range live {
		assert.Equal(t, tplShard, s.Template().ID)
		assert.Nil(t, s.Parent())
		assert.True(t, s.HasHit(f.goblin.ID()))
		assert.False(t, s.Collide(f.goblin))
	}
}

func TestComponent_DebuffIsTimed(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplHex)
	n.Collide(f.goblin)

	assert.Equal(t, int64(0), f.goblin.Sheet().GetRaw(stat.Defense))
	f.clk.Set(2 * time.Second)
	assert.Equal(t, int64(50), f.goblin.Sheet().GetRaw(stat.Defense))
}

func TestComponent_EmpowerAndFrenzy(t *testing.T) {
	f := newFixture(t, testutil.ConstRoller(99))
	n := f.create(t, tplFury)

	assert.Equal(t, int64(75), n.Sheet().GetRaw(stat.AttackPower))
	assert.Equal(t, int64(50), f.hero.Sheet().GetRaw(stat.AttackPower))

	n.Collide(f.goblin)
	// 75 * 100 / 150 = 50.
	assert.Equal(t, int64(150), f.goblin.CurrentHP())
	assert.Equal(t, int64(20), f.hero.Sheet().GetRaw(stat.AttackSpeed))

	f.clk.Set(time.Second)
	assert.Zero(t, f.hero.Sheet().GetRaw(stat.AttackSpeed))
}
