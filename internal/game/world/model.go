// Package world holds the arena layout (spawn points and obstacles) and the
// reference physics collaborators used by headless matches: a brute-force
// spatial index, a ray caster and straight-line kinematic navigation.
package world

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/arena/internal/game/geom"
)

// SizeClass buckets enemies by body size; each class has its own spawn points.
type SizeClass string

const (
	Small  SizeClass = "small"
	Medium SizeClass = "medium"
	Large  SizeClass = "large"
	Boss   SizeClass = "boss"
)

// SizeClasses lists every class in spawn-table order.
var SizeClasses = []SizeClass{Small, Medium, Large, Boss}

// Valid reports whether s is one of the known classes.
func (s SizeClass) Valid() bool {
	switch s {
	case Small, Medium, Large, Boss:
		return true
	}
	return false
}

// Rect is an axis-aligned rectangle with its origin at the minimum corner.
type Rect struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p geom.Vec) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Clamp returns p moved inside r.
func (r Rect) Clamp(p geom.Vec) geom.Vec {
	return geom.V(clamp(p.X, r.X, r.X+r.Width), clamp(p.Y, r.Y, r.Y+r.Height))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Layout is one arena: its playable bounds, obstacles and spawn points.
//
// Invariant: every spawn point lies inside Bounds.
type Layout struct {
	ID            string
	Name          string
	Bounds        Rect
	Obstacles     []Rect
	PlayerSpawns  []geom.Vec
	RespawnPoints []geom.Vec
	EnemySpawns   map[SizeClass][]geom.Vec
}

// SpawnPoints returns the enemy spawn points for size.
func (l *Layout) SpawnPoints(size SizeClass) []geom.Vec {
	return l.EnemySpawns[size]
}

// Validate checks the layout invariants.
//
// Postcondition: Returns nil if the layout is valid, or an error describing all violations.
func (l *Layout) Validate() error {
	var errs []string
	if l.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if l.Bounds.Width <= 0 || l.Bounds.Height <= 0 {
		errs = append(errs, "bounds must have positive width and height")
	}
	if len(l.PlayerSpawns) == 0 {
		errs = append(errs, "at least one player spawn is required")
	}
	if len(l.RespawnPoints) == 0 {
		errs = append(errs, "at least one respawn point is required")
	}
	check := func(kind string, pts []geom.Vec) {
		for i, p := range pts {
			if !l.Bounds.Contains(p) {
				errs = append(errs, fmt.Sprintf("%s[%d] (%v, %v) is outside bounds", kind, i, p.X, p.Y))
			}
		}
	}
	check("player_spawns", l.PlayerSpawns)
	check("respawn_points", l.RespawnPoints)
	for size, pts := range l.EnemySpawns {
		if !size.Valid() {
			errs = append(errs, fmt.Sprintf("unknown size class %q", size))
			continue
		}
		check("enemy_spawns."+string(size), pts)
	}
	if len(errs) > 0 {
		return errors.New("arena " + l.ID + ": " + strings.Join(errs, "; "))
	}
	return nil
}
