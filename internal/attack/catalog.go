package attack

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownTemplate is returned for template ids missing from the catalog.
	ErrUnknownTemplate = errors.New("attack: unknown template")

	// ErrInvalidTemplate wraps catalog validation failures.
	ErrInvalidTemplate = errors.New("attack: invalid template")
)

// Catalog holds every attack template by id. Read-only after construction.
type Catalog struct {
	templates map[int32]*Template
}

type catalogFile struct {
	Attacks []Template `yaml:"attacks"`
}

// NewCatalog validates templates and indexes them by id.
// Spawning components must reference templates in the same catalog, and
// volleys must not loop back to a template already in the volley chain.
func NewCatalog(templates ...Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[int32]*Template, len(templates))}
	for i := range templates {
		t := templates[i]
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
		}
		if _, dup := c.templates[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidTemplate, t.ID)
		}
		c.templates[t.ID] = &t
	}

	for _, t := range c.templates {
		for _, comp := range t.Components {
			if !comp.Kind.spawns() {
				continue
			}
			if _, ok := c.templates[comp.Template]; !ok {
				return nil, fmt.Errorf("%w: template %d spawns unknown template %d",
					ErrInvalidTemplate, t.ID, comp.Template)
			}
		}
	}
	for _, id := range c.IDs() {
		if err := c.checkVolley(id, map[int32]bool{}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// checkVolley walks volley edges from id depth-first; a template seen twice
// on one path would spawn forever on activation.
func (c *Catalog) checkVolley(id int32, path map[int32]bool) error {
	if path[id] {
		return fmt.Errorf("%w: volley cycle through template %d", ErrInvalidTemplate, id)
	}
	path[id] = true
	defer delete(path, id)
	for _, comp := range c.templates[id].Components {
		if comp.Kind != ComponentVolley {
			continue
		}
		if err := c.checkVolley(comp.Template, path); err != nil {
			return err
		}
	}
	return nil
}

// ParseCatalog decodes a YAML catalog:
//
//	attacks:
//	  - id: 1
//	    name: arrow
//	    kind: projectile
//	    damage_multiplier: 1
//	    lifetime: 2s
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing attack catalog: %w", err)
	}
	return NewCatalog(file.Attacks...)
}

// LoadCatalog reads and parses the catalog at path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attack catalog %s: %w", path, err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("loading attack catalog %s: %w", path, err)
	}
	return c, nil
}

// Get returns the template for id.
func (c *Catalog) Get(id int32) (*Template, error) {
	t, ok := c.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTemplate, id)
	}
	return t, nil
}

// IDs returns all template ids in ascending order.
func (c *Catalog) IDs() []int32 {
	ids := make([]int32, 0, len(c.templates))
	for id := range c.templates {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.templates)
}
