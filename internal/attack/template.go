package attack

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/arpgcore/internal/stat"
)

// Kind distinguishes melee/area skills from travelling projectiles.
type Kind uint8

const (
	KindSkill Kind = iota
	KindProjectile
)

var kindNames = [...]string{
	KindSkill:      "skill",
	KindProjectile: "projectile",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// UnmarshalYAML decodes "skill" or "projectile".
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	for i, name := range kindNames {
		if strings.EqualFold(value.Value, name) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown attack kind: %q", value.Value)
}

// ComponentKind selects the behaviour of an attached component.
type ComponentKind string

const (
	// ComponentSplit spawns Count siblings of Template on every landed hit.
	ComponentSplit ComponentKind = "split"
	// ComponentVolley spawns Count children of Template on activation.
	ComponentVolley ComponentKind = "volley"
	// ComponentDebuff puts a timed modifier on the struck target.
	ComponentDebuff ComponentKind = "debuff"
	// ComponentEmpower modifies the attack's own snapshot on activation.
	ComponentEmpower ComponentKind = "empower"
	// ComponentFrenzy puts a timed modifier on the owner on every landed hit.
	ComponentFrenzy ComponentKind = "frenzy"
)

func (k ComponentKind) spawns() bool {
	return k == ComponentSplit || k == ComponentVolley
}

// ComponentSpec is the template-side description of a component.
type ComponentSpec struct {
	Kind     ComponentKind  `yaml:"kind"`
	Template int32          `yaml:"template"`
	Count    int            `yaml:"count"`
	Spread   float64        `yaml:"spread"` // radians between split children
	Stat     stat.Type      `yaml:"stat"`
	Op       stat.Operation `yaml:"op"`
	Value    int64          `yaml:"value"`
	Duration time.Duration  `yaml:"duration"`
}

// Template is the static definition of an attack, keyed by ID.
type Template struct {
	ID               int32           `yaml:"id"`
	Name             string          `yaml:"name"`
	Kind             Kind            `yaml:"kind"`
	DamageMultiplier int64           `yaml:"damage_multiplier"`
	MaxPierce        int64           `yaml:"max_pierce"`
	Lifetime         time.Duration   `yaml:"lifetime"` // 0 = until it runs out of pierce
	Speed            float64         `yaml:"speed"`    // units per second
	Components       []ComponentSpec `yaml:"components"`
}

func (t *Template) validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("template %q: id must be positive", t.Name)
	}
	if t.DamageMultiplier < 0 {
		return fmt.Errorf("template %d: negative damage multiplier", t.ID)
	}
	if t.MaxPierce <= 0 {
		t.MaxPierce = 1
	}
	if t.Lifetime < 0 {
		return fmt.Errorf("template %d: negative lifetime", t.ID)
	}
	for i, c := range t.Components {
		switch c.Kind {
		case ComponentSplit, ComponentVolley:
			if c.Template <= 0 || c.Count <= 0 {
				return fmt.Errorf("template %d component %d: %s needs template and count", t.ID, i, c.Kind)
			}
		case ComponentDebuff, ComponentFrenzy:
			if c.Duration <= 0 {
				return fmt.Errorf("template %d component %d: %s needs a duration", t.ID, i, c.Kind)
			}
		case ComponentEmpower:
		default:
			return fmt.Errorf("template %d component %d: unknown kind %q", t.ID, i, c.Kind)
		}
	}
	return nil
}
