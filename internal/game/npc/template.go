// Package npc provides enemy templates, live enemy instances and the
// archetype state graphs that drive them.
package npc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/stats"
)

// DefaultDeathLinger is how long a dead enemy stays in the arena when its
// template leaves death_linger unset.
const DefaultDeathLinger = 1500 * time.Millisecond

// Template defines a reusable enemy type loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Archetype names the state graph registered for this enemy type.
	Archetype string       `yaml:"archetype"`
	Stats     stats.Config `yaml:"stats"`
	// Abilities are ability catalog IDs built for every instance.
	Abilities     []string `yaml:"abilities"`
	DamageOnTouch bool     `yaml:"damage_on_touch"`
	// RampageSpeed replaces movement speed when a berserker stops wandering;
	// 0 keeps the current speed.
	RampageSpeed float64       `yaml:"rampage_speed"`
	Radius       float64       `yaml:"radius"`
	DeathLinger  time.Duration `yaml:"death_linger"`
	Loot         *LootTable    `yaml:"loot"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID, Name and Archetype are non-empty, the
// stat config is valid and the loot table (if any) is valid; returns an error
// on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	if t.Archetype == "" {
		return fmt.Errorf("npc template %q: archetype must not be empty", t.ID)
	}
	if err := t.Stats.Validate(); err != nil {
		return fmt.Errorf("npc template %q: %w", t.ID, err)
	}
	if t.RampageSpeed < 0 || t.Radius < 0 || t.DeathLinger < 0 {
		return fmt.Errorf("npc template %q: rampage_speed, radius and death_linger must be >= 0", t.ID)
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			return fmt.Errorf("npc template %q: %w", t.ID, err)
		}
	}
	return nil
}

// LoadTemplateFromBytes parses a single enemy template from raw YAML bytes.
// Unknown fields are rejected.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
