package config

import (
	"fmt"

	"github.com/udisondev/arpgcore/internal/combat"
	"github.com/udisondev/arpgcore/internal/model"
	"github.com/udisondev/arpgcore/internal/stat"
)

// Fighter is one roster entry of the simulator.
type Fighter struct {
	Name     string             `yaml:"name"`
	Kind     string             `yaml:"kind"`
	X        float64            `yaml:"x"`
	Y        float64            `yaml:"y"`
	Team     int                `yaml:"team"`
	Attack   int32              `yaml:"attack"`   // template id fired every Cooldown
	Cooldown int                `yaml:"cooldown"` // ticks between attacks
	Stats    map[string]int64   `yaml:"stats"`
	Relics   []combat.RelicSpec `yaml:"relics"`
	Deck     []combat.DeckSpec  `yaml:"deck"`
}

// ParsedKind resolves Kind.
func (f Fighter) ParsedKind() (model.Kind, error) {
	k, err := model.ParseKind(f.Kind)
	if err != nil {
		return 0, fmt.Errorf("fighter %q: %w", f.Name, err)
	}
	return k, nil
}

// Base converts the stat table to a stat.Base.
func (f Fighter) Base() (stat.Base, error) {
	base := make(stat.Base, len(f.Stats))
	for name, v := range f.Stats {
		t, err := stat.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("fighter %q: %w", f.Name, err)
		}
		base[t] = v
	}
	return base, nil
}
