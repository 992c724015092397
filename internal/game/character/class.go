// Package character implements player characters: class loadouts, the input
// actions a character responds to, respawning, and ammo crates.
package character

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/stats"
)

// Class defines a playable loadout.
//
// Precondition: ID, Name and BaseWeapon must be non-empty after loading.
type Class struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Stats       stats.Config `yaml:"stats"`
	// BaseWeapon is always carried; PrimaryWeapon is optional.
	BaseWeapon    string `yaml:"base_weapon"`
	PrimaryWeapon string `yaml:"primary_weapon"`
	Ability       string `yaml:"ability"`
	Heal          string `yaml:"heal"`
}

// Validate reports every missing or invalid field.
func (c *Class) Validate() error {
	var errs []error
	if c.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if c.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if c.BaseWeapon == "" {
		errs = append(errs, errors.New("base_weapon must not be empty"))
	}
	if err := c.Stats.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("class %q: %w", c.ID, err)
	}
	return nil
}

// LoadClasses reads all .yaml files in dir and parses each as a Class.
// Unknown fields are rejected.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed classes sorted by ID, or a non-nil error
// naming the first invalid file.
func LoadClasses(dir string) ([]*Class, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading class dir %q: %w", dir, err)
	}
	var classes []*Class
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var c Class
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("parsing class file %s: %w", path, err)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("loading %s: duplicate class id %q", path, c.ID)
		}
		seen[c.ID] = true
		classes = append(classes, &c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].ID < classes[j].ID })
	return classes, nil
}
