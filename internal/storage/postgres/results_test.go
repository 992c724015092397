package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arena/internal/game/match"
	"github.com/cory-johannsen/arena/internal/game/wave"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
	"github.com/cory-johannsen/arena/internal/testutil"
)

func setupResults(t *testing.T) *postgres.ResultRepository {
	t.Helper()
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t, "../../../migrations")
	pool, err := postgres.NewPool(context.Background(), pc.Config)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Health(context.Background(), 5*time.Second))
	return postgres.NewResultRepository(pool.DB())
}

func result(outcome wave.Phase, waveNo int) match.Result {
	return match.Result{
		ID:       uuid.NewString(),
		Outcome:  outcome,
		Wave:     waveNo,
		Elapsed:  4*time.Minute + 250*time.Millisecond,
		Kills:    31,
		Crates:   2,
		Currency: 140,
	}
}

func TestNewRecord(t *testing.T) {
	res := result(wave.Victory, 3)
	classes := []string{"assault", "pyro"}
	rec := postgres.NewRecord(res, 9, classes)
	classes[0] = "medic"

	assert.Equal(t, res.ID, rec.MatchID)
	assert.Equal(t, "victory", rec.Outcome)
	assert.Equal(t, []string{"assault", "pyro"}, rec.Classes)
	assert.Equal(t, uint64(9), rec.Seed)
	assert.Equal(t, res.Elapsed, rec.Elapsed)
}

func TestNewResultRepository_PanicsOnNilPool(t *testing.T) {
	assert.Panics(t, func() { postgres.NewResultRepository(nil) })
}

func TestResultRepository_SaveAndGet(t *testing.T) {
	repo := setupResults(t)
	ctx := context.Background()

	rec := postgres.NewRecord(result(wave.Defeat, 2), 42, []string{"engineer"})
	saved, err := repo.Save(ctx, rec)
	require.NoError(t, err)
	assert.Greater(t, saved.ID, int64(0))
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := repo.Get(ctx, rec.MatchID)
	require.NoError(t, err)
	assert.Equal(t, "defeat", got.Outcome)
	assert.Equal(t, 2, got.Wave)
	assert.Equal(t, uint64(42), got.Seed)
	assert.Equal(t, []string{"engineer"}, got.Classes)
	assert.Equal(t, rec.Elapsed, got.Elapsed)
	assert.Equal(t, 31, got.Kills)
}

func TestResultRepository_DuplicateMatch(t *testing.T) {
	repo := setupResults(t)
	ctx := context.Background()

	rec := postgres.NewRecord(result(wave.Victory, 3), 1, []string{"medic"})
	_, err := repo.Save(ctx, rec)
	require.NoError(t, err)
	_, err = repo.Save(ctx, rec)
	assert.ErrorIs(t, err, postgres.ErrDuplicateResult)
}

func TestResultRepository_GetMissing(t *testing.T) {
	repo := setupResults(t)
	_, err := repo.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, postgres.ErrResultNotFound)
}

func TestResultRepository_RecentAndSummary(t *testing.T) {
	repo := setupResults(t)
	ctx := context.Background()

	for _, r := range []match.Result{result(wave.Victory, 3), result(wave.Defeat, 1), result(wave.Defeat, 2)} {
		_, err := repo.Save(ctx, postgres.NewRecord(r, 0, []string{"assault"}))
		require.NoError(t, err)
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	summary, err := repo.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []postgres.OutcomeCount{
		{Outcome: "defeat", Matches: 2, MeanWave: 1.5},
		{Outcome: "victory", Matches: 1, MeanWave: 3},
	}, summary)
}
