package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// BeginRun journals the start of a sync cycle and returns its run id, a
// UUID v7 so ids sort by start time.
func (s *Store) BeginRun(startedAt time.Time) (string, error) {
	db, err := s.conn()
	if err != nil {
		return "", err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating run id: %w", err)
	}
	runID := id.String()
	_, err = db.Exec(
		"INSERT INTO runs (run_id, started_at) VALUES (?, ?)",
		runID, startedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("journaling run start: %w", err)
	}
	return runID, nil
}

// FinishRun records the outcome of a cycle. A nil cycleErr marks success.
func (s *Store) FinishRun(runID string, finishedAt time.Time, fetched, backfilled int, cycleErr error) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	var msg sql.NullString
	if cycleErr != nil {
		msg = sql.NullString{String: cycleErr.Error(), Valid: true}
	}
	res, err := db.Exec(
		"UPDATE runs SET finished_at = ?, fetched = ?, backfilled = ?, error = ? WHERE run_id = ?",
		finishedAt.UTC().Format(time.RFC3339), fetched, backfilled, msg, runID,
	)
	if err != nil {
		return fmt.Errorf("journaling run finish: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("journaling run finish: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, types.ErrNotFound)
	}
	return nil
}

// LastRun returns the most recently started cycle, or false if none.
func (s *Store) LastRun() (types.Run, bool, error) {
	db, err := s.conn()
	if err != nil {
		return types.Run{}, false, err
	}

	var (
		run        types.Run
		startedAt  string
		finishedAt sql.NullString
		runErr     sql.NullString
	)
	err = db.QueryRow(
		`SELECT run_id, started_at, finished_at, fetched, backfilled, error
		 FROM runs ORDER BY started_at DESC, run_id DESC LIMIT 1`,
	).Scan(&run.RunID, &startedAt, &finishedAt, &run.Fetched, &run.Backfilled, &runErr)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Run{}, false, nil
	}
	if err != nil {
		return types.Run{}, false, fmt.Errorf("reading last run: %w", err)
	}

	if run.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
		return types.Run{}, false, fmt.Errorf("parsing started_at: %w", err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(time.RFC3339, finishedAt.String)
		if err != nil {
			return types.Run{}, false, fmt.Errorf("parsing finished_at: %w", err)
		}
		run.FinishedAt = &t
	}
	run.Error = stringPtr(runErr)
	return run, true, nil
}
