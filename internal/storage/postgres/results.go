package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/game/match"
)

// ErrResultNotFound is returned when a result lookup yields no rows.
var ErrResultNotFound = errors.New("match result not found")

// ErrDuplicateResult is returned when a match ID is archived twice.
var ErrDuplicateResult = errors.New("match result already archived")

// Record is one archived match.
type Record struct {
	ID        int64
	MatchID   string
	Seed      uint64
	Classes   []string
	Outcome   string
	Wave      int
	Elapsed   time.Duration
	Kills     int
	Crates    int
	Currency  int
	CreatedAt time.Time
}

// NewRecord builds the archive row for res, played by classes with seed.
func NewRecord(res match.Result, seed uint64, classes []string) Record {
	return Record{
		MatchID:  res.ID,
		Seed:     seed,
		Classes:  append([]string(nil), classes...),
		Outcome:  res.Outcome.String(),
		Wave:     res.Wave,
		Elapsed:  res.Elapsed,
		Kills:    res.Kills,
		Crates:   res.Crates,
		Currency: res.Currency,
	}
}

// OutcomeCount is the number of archived matches that ended in Outcome.
type OutcomeCount struct {
	Outcome string
	Matches int
	// MeanWave is the average wave reached.
	MeanWave float64
}

// ResultRepository stores and queries archived match results.
type ResultRepository struct {
	db *pgxpool.Pool
}

// NewResultRepository creates a ResultRepository backed by db.
//
// Precondition: db must be a valid, open connection pool.
func NewResultRepository(db *pgxpool.Pool) *ResultRepository {
	if db == nil {
		panic("postgres.NewResultRepository: db must not be nil")
	}
	return &ResultRepository{db: db}
}

const resultColumns = `id, match_id, seed, classes, outcome, wave, elapsed_ms, kills, crates, currency, created_at`

// Save archives rec.
//
// Precondition: rec.MatchID must be a UUID.
// Postcondition: Returns the stored record with ID and CreatedAt set, or
// ErrDuplicateResult when the match was archived before.
func (r *ResultRepository) Save(ctx context.Context, rec Record) (*Record, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO match_results
			(match_id, seed, classes, outcome, wave, elapsed_ms, kills, crates, currency)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+resultColumns,
		rec.MatchID, int64(rec.Seed), rec.Classes, rec.Outcome, rec.Wave,
		rec.Elapsed.Milliseconds(), rec.Kills, rec.Crates, rec.Currency,
	)
	out, err := scanRecord(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicateResult
		}
		return nil, fmt.Errorf("inserting match result: %w", err)
	}
	return out, nil
}

// Get returns the record for matchID.
//
// Postcondition: Returns ErrResultNotFound when no such match was archived.
func (r *ResultRepository) Get(ctx context.Context, matchID string) (*Record, error) {
	row := r.db.QueryRow(ctx, `SELECT `+resultColumns+` FROM match_results WHERE match_id = $1`, matchID)
	out, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching match result: %w", err)
	}
	return out, nil
}

// Recent returns up to limit records, newest first.
//
// Precondition: limit > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ResultRepository) Recent(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+resultColumns+` FROM match_results ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing match results: %w", err)
	}
	defer rows.Close()

	out := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning match result: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing match results: %w", err)
	}
	return out, nil
}

// Summary counts archived matches per outcome, ordered by outcome.
func (r *ResultRepository) Summary(ctx context.Context) ([]OutcomeCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT outcome, COUNT(*), AVG(wave)::float8
		FROM match_results GROUP BY outcome ORDER BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("summarising match results: %w", err)
	}
	defer rows.Close()

	var out []OutcomeCount
	for rows.Next() {
		var c OutcomeCount
		if err := rows.Scan(&c.Outcome, &c.Matches, &c.MeanWave); err != nil {
			return nil, fmt.Errorf("scanning outcome count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec       Record
		seed      int64
		elapsedMS int64
	)
	if err := row.Scan(
		&rec.ID, &rec.MatchID, &seed, &rec.Classes, &rec.Outcome, &rec.Wave,
		&elapsedMS, &rec.Kills, &rec.Crates, &rec.Currency, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.Seed = uint64(seed)
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return &rec, nil
}

func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation.
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
