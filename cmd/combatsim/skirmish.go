package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/arpgcore/internal/attack"
	"github.com/udisondev/arpgcore/internal/combat"
	"github.com/udisondev/arpgcore/internal/config"
	"github.com/udisondev/arpgcore/internal/model"
)

// fighter is a roster entry bound to its character.
type fighter struct {
	ch       *model.Character
	team     int
	attack   int32
	cooldown int
	shots    int
}

// skirmish drives a headless fight: every fighter fires its attack at the
// nearest living enemy on its cooldown, and the engine sweeps collisions.
type skirmish struct {
	engine   *combat.Context
	cfg      config.SimConfig
	fighters []*fighter
	ticks    int
	start    time.Duration
	results  []result
}

// result is a fighter's state when the stage ended. Sheets read the stage
// clock, so it is captured before the clock is released.
type result struct {
	Name  string
	Team  int
	HP    int64
	Level int32
	Shots int
	Alive bool
}

func newSkirmish(engine *combat.Context, cfg config.SimConfig, roster []config.Fighter) (*skirmish, error) {
	if cfg.Step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %s", cfg.Step)
	}
	if err := engine.BeginStage(cfg.Stage); err != nil {
		return nil, err
	}

	s := &skirmish{engine: engine, cfg: cfg, start: engine.Clock().StageStart()}
	for _, f := range roster {
		kind, err := f.ParsedKind()
		if err != nil {
			return nil, err
		}
		base, err := f.Base()
		if err != nil {
			return nil, err
		}
		if _, err := engine.Catalog().Get(f.Attack); err != nil {
			return nil, fmt.Errorf("fighter %q: %w", f.Name, err)
		}

		ch, err := engine.AddCharacter(f.Name, kind, base)
		if err != nil {
			return nil, err
		}
		ch.SetLocation(model.Vec2{X: f.X, Y: f.Y})

		for _, spec := range f.Relics {
			if _, err := engine.Equip(ch.ID(), spec); err != nil {
				return nil, fmt.Errorf("fighter %q relic %s: %w", f.Name, spec.Kind, err)
			}
		}
		for _, spec := range f.Deck {
			if _, err := engine.AddDeckEffect(ch.ID(), spec); err != nil {
				return nil, fmt.Errorf("fighter %q deck %s: %w", f.Name, spec.Kind, err)
			}
		}

		s.fighters = append(s.fighters, &fighter{
			ch:       ch,
			team:     f.Team,
			attack:   f.Attack,
			cooldown: max(f.Cooldown, 1),
		})
	}
	return s, nil
}

// Run ticks until MaxTicks, until one team is left, or until ctx is
// cancelled, then ends the stage.
func (s *skirmish) Run(ctx context.Context) error {
	var pace <-chan time.Time
	if s.cfg.TickInterval > 0 {
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		pace = ticker.C
	}

	for tick := 1; tick <= s.cfg.MaxTicks; tick++ {
		if pace != nil {
			select {
			case <-ctx.Done():
			case <-pace:
			}
		}
		if ctx.Err() != nil {
			slog.Info("skirmish interrupted", "tick", s.ticks)
			break
		}

		if err := s.step(ctx, tick); err != nil {
			return err
		}
		if s.decided() {
			break
		}
	}
	s.results = s.snapshot()
	return s.engine.EndStage()
}

func (s *skirmish) snapshot() []result {
	out := make([]result, 0, len(s.fighters))
	for _, f := range s.fighters {
		out = append(out, result{
			Name:  f.ch.Name(),
			Team:  f.team,
			HP:    f.ch.CurrentHP(),
			Level: f.ch.Level(),
			Shots: f.shots,
			Alive: f.ch.Alive(),
		})
	}
	return out
}

func (s *skirmish) step(ctx context.Context, tick int) error {
	for _, f := range s.fighters {
		if !f.ch.Alive() || (tick-1)%f.cooldown != 0 {
			continue
		}
		target := s.nearestEnemy(f)
		if target == nil {
			continue
		}
		dir := target.Location().Sub(f.ch.Location())
		h, err := s.engine.SpawnAttack(f.attack, f.ch.ID(), attack.Handle{}, dir)
		if err != nil {
			return fmt.Errorf("fighter %q firing: %w", f.ch.Name(), err)
		}
		if h.Valid() {
			f.shots++
		}
	}

	s.ticks = tick
	return s.engine.Tick(ctx, s.start+time.Duration(tick)*s.cfg.Step)
}

func (s *skirmish) nearestEnemy(f *fighter) *model.Character {
	var (
		best *model.Character
		dist float64
	)
	for _, o := range s.fighters {
		if o.team == f.team || !o.ch.Alive() {
			continue
		}
		d := o.ch.Location().DistanceSquared(f.ch.Location())
		if best == nil || d < dist {
			best, dist = o.ch, d
		}
	}
	return best
}

// decided reports whether at most one team still has a living fighter.
func (s *skirmish) decided() bool {
	alive := make(map[int]struct{})
	for _, f := range s.fighters {
		if f.ch.Alive() {
			alive[f.team] = struct{}{}
		}
	}
	return len(alive) <= 1
}

// Survivors returns the results of fighters still alive at the end.
func (s *skirmish) Survivors() []result {
	var out []result
	for _, r := range s.results {
		if r.Alive {
			out = append(out, r)
		}
	}
	return out
}

// Report logs the outcome.
func (s *skirmish) Report() {
	stats := s.engine.Pool().Stats()
	slog.Info("skirmish finished",
		"ticks", s.ticks,
		"survivors", len(s.Survivors()),
		"pool_created", stats.Created,
		"pool_reused", stats.Reused)
	for _, r := range s.results {
		slog.Info("fighter",
			"name", r.Name,
			"team", r.Team,
			"hp", r.HP,
			"level", r.Level,
			"shots", r.Shots,
			"alive", r.Alive)
	}
}
