package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/geom"
)

// yamlArenaFile is the top-level YAML structure for arena files.
type yamlArenaFile struct {
	Arena yamlArena `yaml:"arena"`
}

// yamlArena is the YAML representation of an arena.
type yamlArena struct {
	ID            string                   `yaml:"id"`
	Name          string                   `yaml:"name"`
	Bounds        Rect                     `yaml:"bounds"`
	Obstacles     []Rect                   `yaml:"obstacles"`
	PlayerSpawns  []geom.Vec               `yaml:"player_spawns"`
	RespawnPoints []geom.Vec               `yaml:"respawn_points"`
	EnemySpawns   map[SizeClass][]geom.Vec `yaml:"enemy_spawns"`
}

// LoadLayoutFromFile reads and validates a single arena YAML file.
//
// Precondition: path must point to a valid YAML arena file.
// Postcondition: Returns a validated Layout or a non-nil error.
func LoadLayoutFromFile(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading arena file %s: %w", path, err)
	}
	return LoadLayoutFromBytes(data)
}

// LoadLayoutFromBytes parses and validates an arena from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the arena schema.
// Postcondition: Returns a validated Layout or a non-nil error.
func LoadLayoutFromBytes(data []byte) (*Layout, error) {
	var file yamlArenaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing arena YAML: %w", err)
	}

	ya := file.Arena
	layout := &Layout{
		ID:            ya.ID,
		Name:          ya.Name,
		Bounds:        ya.Bounds,
		Obstacles:     ya.Obstacles,
		PlayerSpawns:  ya.PlayerSpawns,
		RespawnPoints: ya.RespawnPoints,
		EnemySpawns:   ya.EnemySpawns,
	}
	if layout.EnemySpawns == nil {
		layout.EnemySpawns = make(map[SizeClass][]geom.Vec)
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("validating arena: %w", err)
	}
	return layout, nil
}
