package condition_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/condition"
)

func TestRegistry_Get_Found(t *testing.T) {
	reg := condition.NewRegistry()
	def := poison()
	reg.Register(def)
	got, ok := reg.Get("claymore_poison")
	require.True(t, ok)
	assert.Equal(t, def, got)
}

func TestRegistry_Get_NotFound(t *testing.T) {
	reg := condition.NewRegistry()
	_, ok := reg.Get("nonexistent")
	assert.False(t, ok)
}

func TestRegistry_All_SortedCopy(t *testing.T) {
	reg := condition.NewRegistry()
	reg.Register(song())
	reg.Register(poison())
	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "claymore_poison", all[0].ID)
	all[0] = nil
	for _, d := range reg.All() {
		assert.NotNil(t, d, "registry must not be corrupted by mutating the returned slice")
	}
}

func TestBlueprint_Interval(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, poison().Interval())
}

func TestBlueprint_Validate(t *testing.T) {
	assert.NoError(t, poison().Validate())
	bad := &condition.Blueprint{ID: "", Duration: 0, MaxTicks: 0, SpeedFactor: -1}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id must not be empty")
	assert.Contains(t, err.Error(), "max_ticks")
	assert.Contains(t, err.Error(), "speed_factor")
}

func TestLoadDirectory_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := `
id: cricket_song
name: Cricket Song
description: "The chirping quickens every enemy nearby."
duration: 4s
max_ticks: 4
speed_factor: 1.5
cue: song
lua_on_apply: ""
lua_on_tick: ""
lua_on_expire: ""
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.yaml"), []byte(yaml), 0644))

	reg, err := condition.LoadDirectory(dir)
	require.NoError(t, err)
	got, ok := reg.Get("cricket_song")
	require.True(t, ok)
	assert.Equal(t, "Cricket Song", got.Name)
	assert.Equal(t, 4*time.Second, got.Duration)
	assert.Equal(t, 4, got.MaxTicks)
	assert.Equal(t, 1.5, got.SpeedFactor)
	assert.True(t, got.ChangesSpeed())
}

func TestLoadDirectory_UnknownField_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.yaml"), []byte("id: x\nduration: 1s\nmax_ticks: 1\nstacks: 3\n"), 0644))
	_, err := condition.LoadDirectory(dir)
	assert.Error(t, err)
}

func TestLoadDirectory_InvalidBlueprint_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.yaml"), []byte("id: x\nduration: 1s\nmax_ticks: 0\n"), 0644))
	_, err := condition.LoadDirectory(dir)
	assert.Error(t, err)
}

func TestLoadDirectory_DuplicateID_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	body := []byte("id: x\nduration: 1s\nmax_ticks: 1\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), body, 0644))
	_, err := condition.LoadDirectory(dir)
	assert.Error(t, err)
}

func TestLoadDirectory_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	reg, err := condition.LoadDirectory(dir)
	require.NoError(t, err)
	assert.Empty(t, reg.All())
}

func TestLoadDirectory_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(":::bad:::"), 0644))
	_, err := condition.LoadDirectory(dir)
	assert.Error(t, err)
}

func TestLoadDirectory_NonexistentDir_ReturnsError(t *testing.T) {
	_, err := condition.LoadDirectory("/nonexistent/path/that/does/not/exist")
	assert.Error(t, err)
}

func TestLoadDirectory_ShippedEffects(t *testing.T) {
	reg, err := condition.LoadDirectory("../../../content/effects")
	require.NoError(t, err)
	for _, id := range []string{"claymore_poison", "cricket_song", "burning", "adrenaline"} {
		_, ok := reg.Get(id)
		assert.True(t, ok, "effect %q must be present", id)
	}
}

func TestPropertyRegistry_RegisterThenGet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.StringMatching(`[a-z_]{3,12}`).Draw(t, "id")
		reg := condition.NewRegistry()
		def := &condition.Blueprint{ID: id, Name: id, Duration: time.Second, MaxTicks: 1}
		reg.Register(def)
		got, ok := reg.Get(id)
		assert.True(t, ok, "registered blueprint must be retrievable")
		assert.Equal(t, def, got)
	})
}
