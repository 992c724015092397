package wave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arena/internal/game/wave"
	"github.com/cory-johannsen/arena/internal/game/world"
	"github.com/cory-johannsen/arena/internal/testutil"
)

const scheduleYAML = `
pre_roll: 20s
players:
  spawn_delay: 1s
  stagger: 500ms
  locked_time: 1s
waves:
  - time_limit: 90s
    delay_failed: 10s
    delay_succeeded: 20s
    spawn_interval: 250ms
    enemies:
      - enemy: frogman
        min: 4
        max: 6
        size: small
      - enemy: berserker
        min: 1
        max: 1
        size: large
  - enemies:
      - enemy: cricket
        min: 2
        max: 3
        size: medium
`

func TestLoadScheduleFromBytes(t *testing.T) {
	s, err := wave.LoadScheduleFromBytes([]byte(scheduleYAML))
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, s.PreRoll)
	assert.Equal(t, wave.PlayerSchedule{SpawnDelay: time.Second, Stagger: 500 * time.Millisecond, LockedTime: time.Second}, s.Players)
	require.Len(t, s.Waves, 2)
	assert.Equal(t, 90*time.Second, s.Waves[0].TimeLimit)
	assert.Equal(t, 250*time.Millisecond, s.Waves[0].SpawnInterval)
	assert.Equal(t, wave.Entry{Enemy: "berserker", Min: 1, Max: 1, Size: world.Large}, s.Waves[0].Enemies[1])

	assert.Equal(t, wave.DefaultTimeLimit, s.Waves[1].TimeLimit)
	assert.Equal(t, wave.DefaultSpawnInterval, s.Waves[1].SpawnInterval)
	assert.Equal(t, wave.DefaultDelayFailed, s.Waves[1].DelayFailed)
	assert.Equal(t, wave.DefaultDelaySucceeded, s.Waves[1].DelaySucceeded)
}

func TestLoadScheduleFromBytes_DefaultPreRoll(t *testing.T) {
	s, err := wave.LoadScheduleFromBytes([]byte("waves:\n  - enemies: []\n"))
	require.NoError(t, err)
	assert.Equal(t, wave.DefaultPreRoll, s.PreRoll)
}

func TestLoadScheduleFromBytes_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field":  "waves:\n  - enemies: []\n    boss_music: loud\n",
		"no waves":       "pre_roll: 1s\n",
		"min above max":  "waves:\n  - enemies:\n      - {enemy: frogman, min: 3, max: 2, size: small}\n",
		"bad size class": "waves:\n  - enemies:\n      - {enemy: frogman, min: 1, max: 2, size: huge}\n",
		"empty enemy":    "waves:\n  - enemies:\n      - {min: 1, max: 2, size: small}\n",
		"negative delay": "pre_roll: -1s\nwaves:\n  - enemies: []\n",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := wave.LoadScheduleFromBytes([]byte(yml))
			assert.Error(t, err)
		})
	}
}

func TestSchedule_ValidateReportsEveryViolation(t *testing.T) {
	s := &wave.Schedule{Waves: []wave.Wave{{
		Enemies: []wave.Entry{{Enemy: "", Min: 2, Max: 1, Size: "tiny"}},
	}}}
	err := s.Validate()
	require.Error(t, err)
	for _, want := range []string{"time_limit", "enemy must not be empty", "min <= max", "unknown size class"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestSchedule_CheckLayout(t *testing.T) {
	layout := testutil.OpenArena()
	layout.EnemySpawns[world.Boss] = nil
	s := &wave.Schedule{Waves: []wave.Wave{{
		TimeLimit: time.Minute,
		Enemies: []wave.Entry{
			{Enemy: "frogman", Min: 1, Max: 2, Size: world.Small},
			{Enemy: "king", Min: 1, Max: 1, Size: world.Boss},
		},
	}}}

	assert.NoError(t, (&wave.Schedule{Waves: s.Waves[:0]}).CheckLayout(layout, 4))
	err := s.CheckLayout(layout, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 player spawns for 5 players")
	assert.Contains(t, err.Error(), `no boss spawn points for "king"`)
	assert.NotContains(t, err.Error(), "frogman")
}

func TestLoadSchedule_ContentFile(t *testing.T) {
	s, err := wave.LoadSchedule("../../../content/waves.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Waves)

	layout, err := world.LoadLayoutFromFile("../../../content/arena.yaml")
	require.NoError(t, err)
	assert.NoError(t, s.CheckLayout(layout, len(layout.PlayerSpawns)))
}

func TestLoadSchedule_MissingFile(t *testing.T) {
	_, err := wave.LoadSchedule("does-not-exist.yaml")
	assert.ErrorContains(t, err, "reading wave schedule")
}
