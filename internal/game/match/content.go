// Package match wires the simulation core into a runnable match: it loads
// the content tree, builds the collaborators and live registries, steps the
// simulation in a fixed order and reports the outcome.
package match

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cory-johannsen/arena/internal/game/ability"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/condition"
	"github.com/cory-johannsen/arena/internal/game/npc"
	"github.com/cory-johannsen/arena/internal/game/wave"
	"github.com/cory-johannsen/arena/internal/game/world"
)

// Content is everything a match reads from disk. It is immutable once
// loaded and may be shared by concurrent matches.
type Content struct {
	Effects  *condition.Registry
	Catalog  *ability.Catalog
	Classes  []*character.Class
	Enemies  []*npc.Template
	Layout   *world.Layout
	Schedule *wave.Schedule
	// ScriptDir holds the Lua hooks effects name; empty when the tree has none.
	ScriptDir string
}

// Load reads the content tree rooted at dir: effects/, abilities/,
// classes/, enemies/, arena.yaml, waves.yaml and the optional scripts/.
//
// Postcondition: Returns cross-checked Content or the first loading error.
func Load(dir string) (*Content, error) {
	effects, err := condition.LoadDirectory(filepath.Join(dir, "effects"))
	if err != nil {
		return nil, fmt.Errorf("match.Load: %w", err)
	}
	catalog, err := ability.LoadCatalog(filepath.Join(dir, "abilities"), effects)
	if err != nil {
		return nil, fmt.Errorf("match.Load: %w", err)
	}
	classes, err := character.LoadClasses(filepath.Join(dir, "classes"))
	if err != nil {
		return nil, fmt.Errorf("match.Load: %w", err)
	}
	enemies, err := npc.LoadTemplates(filepath.Join(dir, "enemies"))
	if err != nil {
		return nil, fmt.Errorf("match.Load: %w", err)
	}
	layout, err := world.LoadLayoutFromFile(filepath.Join(dir, "arena.yaml"))
	if err != nil {
		return nil, fmt.Errorf("match.Load: %w", err)
	}
	schedule, err := wave.LoadSchedule(filepath.Join(dir, "waves.yaml"))
	if err != nil {
		return nil, fmt.Errorf("match.Load: %w", err)
	}
	c := &Content{
		Effects:  effects,
		Catalog:  catalog,
		Classes:  classes,
		Enemies:  enemies,
		Layout:   layout,
		Schedule: schedule,
	}
	scripts := filepath.Join(dir, "scripts")
	if info, err := os.Stat(scripts); err == nil && info.IsDir() {
		c.ScriptDir = scripts
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("match.Load: %w", err)
	}
	return c, nil
}

// Class returns the class with id.
func (c *Content) Class(id string) (*character.Class, bool) {
	for _, cls := range c.Classes {
		if cls.ID == id {
			return cls, true
		}
	}
	return nil, false
}

// Validate reports every reference that does not resolve: loadout entries
// missing from the catalog, roster entries naming unknown enemies, and
// roster size classes without spawn points.
func (c *Content) Validate() error {
	var errs []error
	for _, cls := range c.Classes {
		if _, ok := c.Catalog.Weapon(cls.BaseWeapon); !ok {
			errs = append(errs, fmt.Errorf("class %q: unknown base weapon %q", cls.ID, cls.BaseWeapon))
		}
		if cls.PrimaryWeapon != "" {
			if _, ok := c.Catalog.Weapon(cls.PrimaryWeapon); !ok {
				errs = append(errs, fmt.Errorf("class %q: unknown primary weapon %q", cls.ID, cls.PrimaryWeapon))
			}
		}
		for _, id := range []string{cls.Ability, cls.Heal} {
			if id == "" {
				continue
			}
			if _, ok := c.Catalog.Ability(id); !ok {
				errs = append(errs, fmt.Errorf("class %q: unknown ability %q", cls.ID, id))
			}
		}
	}
	known := make(map[string]bool, len(c.Enemies))
	for _, t := range c.Enemies {
		known[t.ID] = true
		for _, id := range t.Abilities {
			if _, ok := c.Catalog.Ability(id); !ok {
				errs = append(errs, fmt.Errorf("enemy %q: unknown ability %q", t.ID, id))
			}
		}
	}
	for i, w := range c.Schedule.Waves {
		for _, e := range w.Enemies {
			if !known[e.Enemy] {
				errs = append(errs, fmt.Errorf("wave %d: unknown enemy %q", i+1, e.Enemy))
			}
		}
	}
	if err := c.Schedule.CheckLayout(c.Layout, 0); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
