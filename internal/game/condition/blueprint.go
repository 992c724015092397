// Package condition implements timed status effects (poison, slows, hastes
// and scripted effects) bound to one entity's stat block.
package condition

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Blueprint is the static definition of a status effect, loaded from YAML.
//
// Blueprint ID is the effect kind: a Set holds at most one Active per ID.
type Blueprint struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Damage      int           `yaml:"damage"`       // per tick; negative heals
	Duration    time.Duration `yaml:"duration"`     // total lifetime at full ticks
	MaxTicks    int           `yaml:"max_ticks"`    // ticks per full duration
	SpeedFactor float64       `yaml:"speed_factor"` // 0 = no speed change; else base * factor while active
	Cue         string        `yaml:"cue"`          // toggled on at attach, off at expiry
	LuaOnApply  string        `yaml:"lua_on_apply"`
	LuaOnTick   string        `yaml:"lua_on_tick"`
	LuaOnExpire string        `yaml:"lua_on_expire"`
}

// Interval returns the fixed time between ticks.
//
// Precondition: b.Validate() == nil.
func (b *Blueprint) Interval() time.Duration {
	return b.Duration / time.Duration(b.MaxTicks)
}

// ChangesSpeed reports whether the effect overrides movement speed.
func (b *Blueprint) ChangesSpeed() bool { return b.SpeedFactor > 0 }

// Validate reports every invalid field.
func (b *Blueprint) Validate() error {
	var errs []error
	if b.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if b.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be > 0, got %s", b.Duration))
	}
	if b.MaxTicks < 1 {
		errs = append(errs, fmt.Errorf("max_ticks must be >= 1, got %d", b.MaxTicks))
	}
	if b.SpeedFactor < 0 {
		errs = append(errs, fmt.Errorf("speed_factor must be >= 0, got %v", b.SpeedFactor))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("blueprint %q: %w", b.ID, err)
	}
	return nil
}

// Registry holds all known Blueprints keyed by ID.
type Registry struct {
	defs map[string]*Blueprint
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Blueprint)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Blueprint) {
	r.defs[def.ID] = def
}

// Get returns the Blueprint for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Blueprint, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Blueprints sorted by ID.
func (r *Registry) All() []*Blueprint {
	out := make([]*Blueprint, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses and validates each as a
// Blueprint, and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to
// parse or validate, or if two files declare the same ID.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading effect dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Blueprint
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		if _, dup := reg.Get(def.ID); dup {
			return nil, fmt.Errorf("%q: duplicate effect id %q", path, def.ID)
		}
		reg.Register(&def)
	}
	return reg, nil
}
