// Package store persists finished tournament runs in SQLite so that
// leaderboards from different seeds, rounds and strategy sets can be
// compared after the fact.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/inference-sim/auction-sim/sim"
	"github.com/inference-sim/auction-sim/sim/store/migrations"
)

// ErrRunExists is returned by SaveRun when the run ID is already stored.
var ErrRunExists = errors.New("run already stored")

// ErrRunNotFound is returned when a run ID has no stored record.
var ErrRunNotFound = errors.New("run not found")

// Store persists tournament results in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// RunSummary is the stored header of one tournament run.
type RunSummary struct {
	RunID         string
	Seed          int64
	Rounds        int
	ValuationMode sim.ValuationMode
	Strategies    int
	Matches       int
	StartedAt     time.Time
	WallTime      time.Duration
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) the results database at path and applies
// embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveRun writes the run header, every match and the standings in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, res *sim.TournamentResult) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if res == nil || strings.TrimSpace(res.RunID) == "" {
		return fmt.Errorf("run id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, seed, rounds, valuation_mode, strategies, matches, started_at, wall_time_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		res.Config.Seed,
		res.Config.Rounds,
		string(res.Config.ValuationMode),
		len(res.Standings),
		len(res.Matches),
		toMillis(res.StartedAt),
		res.WallTime.Milliseconds(),
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrRunExists, res.RunID)
		}
		return fmt.Errorf("insert run: %w", err)
	}

	matchStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO matches (run_id, match_index, auction, seat, strategy, raw_score, payment, roi_target, wins, final_score, disqualified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare match insert: %w", err)
	}
	defer matchStmt.Close()
	for _, m := range res.Matches {
		for seat, p := range m.Players {
			if _, err = matchStmt.ExecContext(ctx,
				res.RunID, m.Matchup.Index, m.Matchup.Auction, seat+1, p.Strategy,
				p.RawScore, p.Payment, p.ROITarget, p.Wins, p.FinalScore, p.Disqualified,
			); err != nil {
				return fmt.Errorf("insert match %d seat %d: %w", m.Matchup.Index, seat+1, err)
			}
		}
	}

	for _, st := range res.Standings {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO standings (run_id, rank, strategy, total_score, opponents) VALUES (?, ?, ?, ?, ?)`,
			res.RunID, st.Rank, st.Strategy, st.TotalScore, st.Opponents,
		); err != nil {
			return fmt.Errorf("insert standing %s: %w", st.Strategy, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save run: %w", err)
	}
	return nil
}

// ListRuns returns stored run headers, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT run_id, seed, rounds, valuation_mode, strategies, matches, started_at, wall_time_ms
		 FROM runs ORDER BY started_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r         RunSummary
			mode      string
			startedAt int64
			wallMs    int64
		)
		if err := rows.Scan(&r.RunID, &r.Seed, &r.Rounds, &mode, &r.Strategies, &r.Matches, &startedAt, &wallMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.ValuationMode = sim.ValuationMode(mode)
		r.StartedAt = fromMillis(startedAt)
		r.WallTime = time.Duration(wallMs) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LoadStandings returns the leaderboard stored for runID.
func (s *Store) LoadStandings(ctx context.Context, runID string) (sim.Standings, error) {
	var exists int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE run_id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT rank, strategy, total_score, opponents FROM standings WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("load standings: %w", err)
	}
	defer rows.Close()

	var out sim.Standings
	for rows.Next() {
		var st sim.Standing
		if err := rows.Scan(&st.Rank, &st.Strategy, &st.TotalScore, &st.Opponents); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		if st.HasAverage() {
			st.AverageScore = st.TotalScore / float64(st.Opponents)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate standings: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
