package ability

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/condition"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/sim"
)

// Kind selects the behaviour an ability Def composes.
type Kind string

const (
	// KindHeal restores the user's health and optionally its shield.
	KindHeal Kind = "heal"
	// KindThrow throws an Area toward the aim point.
	KindThrow Kind = "throw"
	// KindDrop locks the user for a wind-up, then drops a random trap.
	KindDrop Kind = "drop"
	// KindPunch is a stop-and-strike melee attack.
	KindPunch Kind = "punch"
	// KindGrab is a melee attack whose damage escalates with every use.
	KindGrab Kind = "grab"
	// KindCharge winds up, then dashes at the target.
	KindCharge Kind = "charge"
	// KindSong applies a status effect to allies around the user.
	KindSong Kind = "song"
)

func (k Kind) valid() bool {
	switch k {
	case KindHeal, KindThrow, KindDrop, KindPunch, KindGrab, KindCharge, KindSong:
		return true
	}
	return false
}

// DefaultCooldown applies when a Def leaves cooldown unset.
const DefaultCooldown = 10 * time.Second

// Def is the static definition of one cooldown-gated ability.
type Def struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Kind     Kind          `yaml:"kind"`
	Cooldown time.Duration `yaml:"cooldown"`
	Cue      string        `yaml:"cue"`

	// heal
	Amount int `yaml:"amount"`
	Shield int `yaml:"shield"`

	// throw
	Area       string  `yaml:"area"`
	ThrowRange float64 `yaml:"throw_range"`

	// drop
	WindUp time.Duration `yaml:"wind_up"`
	Traps  []string      `yaml:"traps"`

	// punch
	AnimSpeed float64 `yaml:"anim_speed"`

	// song
	Radius float64 `yaml:"radius"`
	Effect string  `yaml:"effect"`

	area   *AreaDef
	traps  []trapDef
	effect *condition.Blueprint
}

// Validate checks the fields a Def of its Kind needs. References to areas,
// traps and effects are resolved by LoadCatalog.
func (d *Def) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if !d.Kind.valid() {
		errs = append(errs, fmt.Errorf("unknown kind %q", d.Kind))
	}
	if d.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cooldown must be >= 0, got %s", d.Cooldown))
	}
	switch d.Kind {
	case KindHeal:
		if d.Amount <= 0 && d.Shield <= 0 {
			errs = append(errs, errors.New("heal needs amount or shield > 0"))
		}
	case KindThrow:
		if d.Area == "" {
			errs = append(errs, errors.New("throw needs an area"))
		}
		if d.ThrowRange <= 0 {
			errs = append(errs, errors.New("throw_range must be > 0"))
		}
	case KindDrop:
		if len(d.Traps) == 0 {
			errs = append(errs, errors.New("drop needs at least one trap"))
		}
	case KindPunch:
		if d.AnimSpeed <= 0 {
			errs = append(errs, errors.New("anim_speed must be > 0"))
		}
	case KindSong:
		if d.Radius <= 0 || d.Effect == "" {
			errs = append(errs, errors.New("song needs radius > 0 and an effect"))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("ability %q: %w", d.ID, err)
	}
	return nil
}

// AreaDef defines a thrown or dropped area object.
type AreaDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// Lifetime is measured from spawn. At expiry an armed area detonates when
	// DetonateOnExpiry is set; otherwise the area is destroyed.
	Lifetime         time.Duration `yaml:"lifetime"`
	DetonateOnExpiry bool          `yaml:"detonate_on_expiry"`
	// Fuse triggers an armed area after this long; 0 disables it. Thrown
	// areas use it as flight time.
	Fuse time.Duration `yaml:"fuse"`
	// TriggerRadius triggers an armed area on opponent contact; 0 disables it.
	TriggerRadius float64 `yaml:"trigger_radius"`
	// RemoteTrigger lets the owner detonate the area with the ability button.
	RemoteTrigger bool `yaml:"remote_trigger"`
	// Speed moves an armed area along its heading until a wall stops it.
	Speed float64 `yaml:"speed"`

	ImpactDelay  time.Duration `yaml:"impact_delay"`
	ImpactRadius float64       `yaml:"impact_radius"`
	ImpactDamage int           `yaml:"impact_damage"`
	ImpactEffect string        `yaml:"impact_effect"`
	ImpactCue    string        `yaml:"impact_cue"`
	// Shake and Pause fire the camera-shake and time-pause cues at impact.
	Shake bool `yaml:"shake"`
	Pause bool `yaml:"pause"`

	DotRadius    float64       `yaml:"dot_radius"`
	DotDamage    int           `yaml:"dot_damage"`
	DotEffect    string        `yaml:"dot_effect"`
	TickInterval time.Duration `yaml:"tick_interval"`
	// SlowFactor scales base movement speed of opponents inside the dot
	// radius; 0 disables slowing.
	SlowFactor  float64 `yaml:"slow_factor"`
	OvertimeCue string  `yaml:"overtime_cue"`

	impactEffect *condition.Blueprint
	dotEffect    *condition.Blueprint
}

// DefaultTickInterval applies when an AreaDef with an over-time phase leaves
// tick_interval unset.
const DefaultTickInterval = time.Second

// HasOvertime reports whether the area ticks after impact.
func (d *AreaDef) HasOvertime() bool { return d.DotRadius > 0 }

func (d *AreaDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Lifetime <= 0 {
		errs = append(errs, fmt.Errorf("lifetime must be > 0, got %s", d.Lifetime))
	}
	if d.ImpactRadius < 0 || d.DotRadius < 0 || d.TriggerRadius < 0 {
		errs = append(errs, errors.New("radii must be >= 0"))
	}
	if d.SlowFactor < 0 || d.SlowFactor > 1 {
		errs = append(errs, fmt.Errorf("slow_factor must be within [0, 1], got %v", d.SlowFactor))
	}
	if d.TickInterval < 0 || d.ImpactDelay < 0 || d.Fuse < 0 {
		errs = append(errs, errors.New("tick_interval, impact_delay and fuse must be >= 0"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("area %q: %w", d.ID, err)
	}
	return nil
}

// VolleyDef defines a dropped trap that fires darts when triggered.
type VolleyDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Lifetime is how long the trap waits armed before firing on its own.
	Lifetime      time.Duration `yaml:"lifetime"`
	RemoteTrigger bool          `yaml:"remote_trigger"`
	Darts         int           `yaml:"darts"`
	UsesPerSecond float64       `yaml:"uses_per_second"`
	ShootDuration time.Duration `yaml:"shoot_duration"`
	// Spread is the full stray cone in degrees.
	Spread float64 `yaml:"spread"`
	Range  float64 `yaml:"range"`
	Damage int     `yaml:"damage"`
	Effect string  `yaml:"effect"`
	Cue    string  `yaml:"cue"`

	effect *condition.Blueprint
}

// Interval is the time between volleys.
func (d *VolleyDef) Interval() time.Duration {
	return time.Duration(float64(time.Second) / d.UsesPerSecond)
}

func (d *VolleyDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Lifetime <= 0 || d.ShootDuration <= 0 {
		errs = append(errs, errors.New("lifetime and shoot_duration must be > 0"))
	}
	if d.Darts < 1 {
		errs = append(errs, fmt.Errorf("darts must be >= 1, got %d", d.Darts))
	}
	if d.UsesPerSecond <= 0 || d.Range <= 0 {
		errs = append(errs, errors.New("uses_per_second and range must be > 0"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("volley %q: %w", d.ID, err)
	}
	return nil
}

// Slot is the weapon slot a WeaponDef occupies.
type Slot string

const (
	SlotBase    Slot = "base"
	SlotPrimary Slot = "primary"
)

// WeaponDef is the static definition of a hitscan ranged weapon.
type WeaponDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Slot Slot   `yaml:"slot"`
	// Damage is a dice expression such as "8" or "2d4+2".
	Damage        string  `yaml:"damage"`
	Range         float64 `yaml:"range"`
	UsesPerSecond float64 `yaml:"uses_per_second"`
	Magazine      int     `yaml:"magazine"`
	// Magazines is the starting spare magazine count; Unlimited never runs out.
	Magazines  int           `yaml:"magazines"`
	ReloadTime time.Duration `yaml:"reload_time"`
	Pellets    int           `yaml:"pellets"`
	Spread     float64       `yaml:"spread"`
	Effect     string        `yaml:"effect"`
	Cue        string        `yaml:"cue"`

	damage dice.Expression
	effect *condition.Blueprint
}

// Interval is the minimum time between shots.
func (d *WeaponDef) Interval() time.Duration {
	return time.Duration(float64(time.Second) / d.UsesPerSecond)
}

func (d *WeaponDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Slot != SlotBase && d.Slot != SlotPrimary {
		errs = append(errs, fmt.Errorf("slot must be base or primary, got %q", d.Slot))
	}
	if _, err := dice.Parse(d.Damage); err != nil {
		errs = append(errs, err)
	}
	if d.Range <= 0 || d.UsesPerSecond <= 0 {
		errs = append(errs, errors.New("range and uses_per_second must be > 0"))
	}
	if d.Magazine <= 0 {
		errs = append(errs, fmt.Errorf("magazine must be > 0, got %d", d.Magazine))
	}
	if d.Magazines < Unlimited {
		errs = append(errs, fmt.Errorf("magazines must be >= %d, got %d", Unlimited, d.Magazines))
	}
	if d.Pellets < 0 || d.Spread < 0 || d.ReloadTime < 0 {
		errs = append(errs, errors.New("pellets, spread and reload_time must be >= 0"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("weapon %q: %w", d.ID, err)
	}
	return nil
}

// trapDef is one resolved entry of a drop ability's trap list.
type trapDef struct {
	area   *AreaDef
	volley *VolleyDef
}

// File is the layout of one ability content file.
type File struct {
	Weapons   []*WeaponDef `yaml:"weapons"`
	Abilities []*Def       `yaml:"abilities"`
	Areas     []*AreaDef   `yaml:"areas"`
	Volleys   []*VolleyDef `yaml:"volleys"`
}

// Catalog holds every weapon and ability definition of a match with all
// cross references resolved.
type Catalog struct {
	weapons   map[string]*WeaponDef
	abilities map[string]*Def
	areas     map[string]*AreaDef
	volleys   map[string]*VolleyDef
}

// NewCatalog validates and resolves the definitions in files against effects.
//
// Precondition: effects must be non-nil.
// Postcondition: Returns a Catalog whose every reference resolves, or an
// error naming the first invalid definition.
func NewCatalog(effects *condition.Registry, files ...*File) (*Catalog, error) {
	if effects == nil {
		panic("ability.NewCatalog: effects must not be nil")
	}
	c := &Catalog{
		weapons:   make(map[string]*WeaponDef),
		abilities: make(map[string]*Def),
		areas:     make(map[string]*AreaDef),
		volleys:   make(map[string]*VolleyDef),
	}
	lookup := func(owner, id string) (*condition.Blueprint, error) {
		if id == "" {
			return nil, nil
		}
		bp, ok := effects.Get(id)
		if !ok {
			return nil, fmt.Errorf("%s: unknown effect %q", owner, id)
		}
		return bp, nil
	}

	var err error
	for _, f := range files {
		for _, a := range f.Areas {
			if err := a.Validate(); err != nil {
				return nil, err
			}
			if a.HasOvertime() && a.TickInterval == 0 {
				a.TickInterval = DefaultTickInterval
			}
			if a.impactEffect, err = lookup("area "+a.ID, a.ImpactEffect); err != nil {
				return nil, err
			}
			if a.dotEffect, err = lookup("area "+a.ID, a.DotEffect); err != nil {
				return nil, err
			}
			if _, dup := c.areas[a.ID]; dup {
				return nil, fmt.Errorf("duplicate area id %q", a.ID)
			}
			c.areas[a.ID] = a
		}
		for _, v := range f.Volleys {
			if err := v.Validate(); err != nil {
				return nil, err
			}
			if v.effect, err = lookup("volley "+v.ID, v.Effect); err != nil {
				return nil, err
			}
			if _, dup := c.volleys[v.ID]; dup {
				return nil, fmt.Errorf("duplicate volley id %q", v.ID)
			}
			c.volleys[v.ID] = v
		}
		for _, w := range f.Weapons {
			if err := w.Validate(); err != nil {
				return nil, err
			}
			if w.Pellets == 0 {
				w.Pellets = 1
			}
			w.damage = dice.MustParse(w.Damage)
			if w.effect, err = lookup("weapon "+w.ID, w.Effect); err != nil {
				return nil, err
			}
			if _, dup := c.weapons[w.ID]; dup {
				return nil, fmt.Errorf("duplicate weapon id %q", w.ID)
			}
			c.weapons[w.ID] = w
		}
	}
	// Abilities reference areas and volleys from any file.
	for _, f := range files {
		for _, d := range f.Abilities {
			if err := d.Validate(); err != nil {
				return nil, err
			}
			if err := c.resolve(d, lookup); err != nil {
				return nil, err
			}
			if _, dup := c.abilities[d.ID]; dup {
				return nil, fmt.Errorf("duplicate ability id %q", d.ID)
			}
			c.abilities[d.ID] = d
		}
	}
	return c, nil
}

func (c *Catalog) resolve(d *Def, lookup func(owner, id string) (*condition.Blueprint, error)) error {
	if d.Cooldown == 0 {
		d.Cooldown = DefaultCooldown
	}
	if d.Area != "" {
		a, ok := c.areas[d.Area]
		if !ok {
			return fmt.Errorf("ability %q: unknown area %q", d.ID, d.Area)
		}
		d.area = a
	}
	d.traps = d.traps[:0]
	for _, id := range d.Traps {
		if a, ok := c.areas[id]; ok {
			d.traps = append(d.traps, trapDef{area: a})
			continue
		}
		if v, ok := c.volleys[id]; ok {
			d.traps = append(d.traps, trapDef{volley: v})
			continue
		}
		return fmt.Errorf("ability %q: unknown trap %q", d.ID, id)
	}
	var err error
	d.effect, err = lookup("ability "+d.ID, d.Effect)
	return err
}

// Weapon returns the weapon definition for id.
func (c *Catalog) Weapon(id string) (*WeaponDef, bool) {
	d, ok := c.weapons[id]
	return d, ok
}

// Ability returns the ability definition for id.
func (c *Catalog) Ability(id string) (*Def, bool) {
	d, ok := c.abilities[id]
	return d, ok
}

// Area returns the area definition for id.
func (c *Catalog) Area(id string) (*AreaDef, bool) {
	d, ok := c.areas[id]
	return d, ok
}

// AbilityIDs returns every ability ID in sorted order.
func (c *Catalog) AbilityIDs() []string {
	out := make([]string, 0, len(c.abilities))
	for id := range c.abilities {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LoadCatalog reads every *.yaml file in dir as a File and resolves the
// result against effects.
//
// Precondition: dir must be a readable directory; effects must be non-nil.
func LoadCatalog(dir string, effects *condition.Registry) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ability.LoadCatalog: cannot read directory %q: %w", dir, err)
	}
	var files []*File
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ability.LoadCatalog: cannot read file %q: %w", path, err)
		}
		var f File
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("ability.LoadCatalog: cannot parse file %q: %w", path, err)
		}
		files = append(files, &f)
	}
	c, err := NewCatalog(effects, files...)
	if err != nil {
		return nil, fmt.Errorf("ability.LoadCatalog: %w", err)
	}
	return c, nil
}

// New builds the ability id for owner.
//
// Postcondition: returns an error when id is unknown.
func (c *Catalog) New(ctx *sim.Context, owner Owner, id string) (Useable, error) {
	d, ok := c.abilities[id]
	if !ok {
		return nil, fmt.Errorf("ability.Catalog.New: unknown ability %q", id)
	}
	switch d.Kind {
	case KindHeal:
		return NewHeal(ctx, owner, d), nil
	case KindThrow:
		return NewThrow(ctx, owner, d), nil
	case KindDrop:
		return NewDrop(ctx, owner, d), nil
	default:
		return NewAttack(ctx, owner, d), nil
	}
}

// NewWeapon builds the weapon id for owner.
//
// Postcondition: returns an error when id is unknown.
func (c *Catalog) NewWeapon(ctx *sim.Context, owner Owner, id string) (*Weapon, error) {
	d, ok := c.weapons[id]
	if !ok {
		return nil, fmt.Errorf("ability.Catalog.NewWeapon: unknown weapon %q", id)
	}
	return NewWeapon(ctx, owner, d), nil
}
