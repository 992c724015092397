// Package wave implements the wave spawn orchestrator: the pre-roll delay,
// timed waves of randomized enemy rosters, the player spawn sequence,
// respawns at wave boundaries, and the victory and defeat conditions.
package wave

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/world"
)

// Entry is one line of a wave roster: between Min and Max (exclusive, or
// exactly Min when equal) enemies of template Enemy released from spawn
// points of Size.
type Entry struct {
	Enemy string          `yaml:"enemy"`
	Min   int             `yaml:"min"`
	Max   int             `yaml:"max"`
	Size  world.SizeClass `yaml:"size"`
}

// Wave configures one wave.
type Wave struct {
	// TimeLimit is measured from the moment the last enemy was released.
	TimeLimit      time.Duration `yaml:"time_limit"`
	DelayFailed    time.Duration `yaml:"delay_failed"`
	DelaySucceeded time.Duration `yaml:"delay_succeeded"`
	SpawnInterval  time.Duration `yaml:"spawn_interval"`
	Enemies        []Entry       `yaml:"enemies"`
}

// PlayerSchedule times the player spawn sequence: all players appear hidden
// and locked, are revealed one by one after SpawnDelay with Stagger between
// each, and are unlocked LockedTime after the last reveal.
type PlayerSchedule struct {
	SpawnDelay time.Duration `yaml:"spawn_delay"`
	Stagger    time.Duration `yaml:"stagger"`
	LockedTime time.Duration `yaml:"locked_time"`
}

// Schedule is the whole wave plan of a match.
type Schedule struct {
	PreRoll time.Duration  `yaml:"pre_roll"`
	Players PlayerSchedule `yaml:"players"`
	Waves   []Wave         `yaml:"waves"`
}

// Defaults from the shipped arena.
const (
	DefaultPreRoll        = 30 * time.Second
	DefaultTimeLimit      = 120 * time.Second
	DefaultDelayFailed    = 15 * time.Second
	DefaultDelaySucceeded = 30 * time.Second
	DefaultSpawnInterval  = 500 * time.Millisecond
)

// Validate reports every invalid field.
func (s *Schedule) Validate() error {
	var errs []error
	if len(s.Waves) == 0 {
		errs = append(errs, errors.New("at least one wave is required"))
	}
	if s.PreRoll < 0 || s.Players.SpawnDelay < 0 || s.Players.Stagger < 0 || s.Players.LockedTime < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	for i, w := range s.Waves {
		if w.TimeLimit <= 0 {
			errs = append(errs, fmt.Errorf("wave %d: time_limit must be positive", i+1))
		}
		if w.DelayFailed < 0 || w.DelaySucceeded < 0 || w.SpawnInterval < 0 {
			errs = append(errs, fmt.Errorf("wave %d: delays must not be negative", i+1))
		}
		for j, e := range w.Enemies {
			if e.Enemy == "" {
				errs = append(errs, fmt.Errorf("wave %d entry %d: enemy must not be empty", i+1, j+1))
			}
			if e.Min < 0 || e.Max < e.Min {
				errs = append(errs, fmt.Errorf("wave %d entry %d: need 0 <= min <= max, got %d..%d", i+1, j+1, e.Min, e.Max))
			}
			if !e.Size.Valid() {
				errs = append(errs, fmt.Errorf("wave %d entry %d: unknown size class %q", i+1, j+1, e.Size))
			}
		}
	}
	return errors.Join(errs...)
}

// CheckLayout reports roster entries whose size class has no spawn point in
// layout, and a layout with fewer player spawns than players.
func (s *Schedule) CheckLayout(layout *world.Layout, players int) error {
	var errs []error
	if players > len(layout.PlayerSpawns) {
		errs = append(errs, fmt.Errorf("arena %q has %d player spawns for %d players", layout.ID, len(layout.PlayerSpawns), players))
	}
	for i, w := range s.Waves {
		for _, e := range w.Enemies {
			if len(layout.SpawnPoints(e.Size)) == 0 {
				errs = append(errs, fmt.Errorf("wave %d: arena %q has no %s spawn points for %q", i+1, layout.ID, e.Size, e.Enemy))
			}
		}
	}
	return errors.Join(errs...)
}

// defaults fills zero durations the YAML left out.
func (s *Schedule) defaults() {
	for i := range s.Waves {
		w := &s.Waves[i]
		if w.TimeLimit == 0 {
			w.TimeLimit = DefaultTimeLimit
		}
		if w.SpawnInterval == 0 {
			w.SpawnInterval = DefaultSpawnInterval
		}
		if w.DelayFailed == 0 {
			w.DelayFailed = DefaultDelayFailed
		}
		if w.DelaySucceeded == 0 {
			w.DelaySucceeded = DefaultDelaySucceeded
		}
	}
}

// LoadScheduleFromBytes parses and validates a schedule. Unknown fields are
// rejected; a missing pre_roll defaults to DefaultPreRoll.
//
// Postcondition: Returns a validated Schedule or a non-nil error.
func LoadScheduleFromBytes(data []byte) (*Schedule, error) {
	s := Schedule{PreRoll: DefaultPreRoll}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing wave schedule: %w", err)
	}
	s.defaults()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validating wave schedule: %w", err)
	}
	return &s, nil
}

// LoadSchedule reads a schedule file.
func LoadSchedule(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wave schedule %s: %w", path, err)
	}
	s, err := LoadScheduleFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
