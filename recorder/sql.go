// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/danielhkuo/rankvote/db"
	"github.com/danielhkuo/rankvote/models"
)

// SQLRecorder stores runs in the run and step tables. Each step row holds only
// the ballot appended at that step; Steps and Step rebuild the full ballot
// sets from the prefix.
type SQLRecorder struct {
	db     *sql.DB
	dbType string
	now    func() time.Time
}

// NewSQLRecorder uses an open connection whose schema already exists (see db.Open).
func NewSQLRecorder(conn *sql.DB, dbType string) *SQLRecorder {
	return &SQLRecorder{db: conn, dbType: dbType, now: time.Now}
}

func (r *SQLRecorder) q(query string) string {
	return db.Rebind(r.dbType, query)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// StartRun replaces any earlier, possibly partial, recording of the run.
func (r *SQLRecorder) StartRun(ctx context.Context, runID int, candidates models.CandidateSet) error {
	labels, err := json.Marshal(candidates.Labels())
	if err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM step WHERE run_id = ?`), runID); err != nil {
		return fmt.Errorf("failed to clear steps of run %d: %w", runID, err)
	}
	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM run WHERE id = ?`), runID); err != nil {
		return fmt.Errorf("failed to clear run %d: %w", runID, err)
	}
	_, err = tx.ExecContext(ctx, r.q(`
		INSERT INTO run (id, candidates, started_at, ended_at, steps)
		VALUES (?, ?, ?, NULL, 0)
	`), runID, string(labels), unixSeconds(r.now()))
	if err != nil {
		return fmt.Errorf("failed to insert run %d: %w", runID, err)
	}

	return tx.Commit()
}

func (r *SQLRecorder) AppendStep(ctx context.Context, rec models.StepRecord) error {
	if len(rec.Ballots) == 0 {
		return fmt.Errorf("step %d of run %d has no ballots", rec.Step, rec.RunID)
	}
	ballot, err := json.Marshal(rec.Ballots[len(rec.Ballots)-1])
	if err != nil {
		return fmt.Errorf("failed to encode ballot: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.q(`
		INSERT INTO step (run_id, step, recorded_at, ballot, plurality, borda, condorcet, irv)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), rec.RunID, rec.Step, rec.Timestamp, string(ballot),
		rec.Winners.Plurality, rec.Winners.Borda, rec.Winners.Condorcet, rec.Winners.IRV)
	if err != nil {
		return fmt.Errorf("failed to insert step %d of run %d: %w", rec.Step, rec.RunID, err)
	}

	res, err := tx.ExecContext(ctx, r.q(`UPDATE run SET steps = ? WHERE id = ?`), rec.Step, rec.RunID)
	if err != nil {
		return fmt.Errorf("failed to update run %d: %w", rec.RunID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: run %d", ErrRunNotStarted, rec.RunID)
	}

	return tx.Commit()
}

func (r *SQLRecorder) EndRun(ctx context.Context, runID int) error {
	res, err := r.db.ExecContext(ctx, r.q(`UPDATE run SET ended_at = ? WHERE id = ?`), unixSeconds(r.now()), runID)
	if err != nil {
		return fmt.Errorf("failed to end run %d: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: run %d", ErrRunNotStarted, runID)
	}
	return nil
}

// RunExists reports whether the run was recorded to the end.
func (r *SQLRecorder) RunExists(ctx context.Context, runID int) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.q(`
		SELECT COUNT(*) FROM run WHERE id = ? AND ended_at IS NOT NULL
	`), runID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query run %d: %w", runID, err)
	}
	return count > 0, nil
}

// Close does not close the shared connection.
func (r *SQLRecorder) Close() error {
	return nil
}

// Runs lists recorded runs by id.
func (r *SQLRecorder) Runs(ctx context.Context) ([]models.RunInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, candidates, started_at, ended_at, steps FROM run ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.RunInfo{}
	for rows.Next() {
		var info models.RunInfo
		var labels string
		var ended sql.NullFloat64
		if err := rows.Scan(&info.ID, &labels, &info.StartedAt, &ended, &info.Steps); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(labels), &info.Candidates); err != nil {
			return nil, fmt.Errorf("failed to decode candidates of run %d: %w", info.ID, err)
		}
		if ended.Valid {
			info.EndedAt = &ended.Float64
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// Steps rebuilds every step record of a run, in order.
func (r *SQLRecorder) Steps(ctx context.Context, runID int) ([]models.StepRecord, error) {
	return r.steps(ctx, runID, 0)
}

// Step rebuilds a single step record.
func (r *SQLRecorder) Step(ctx context.Context, runID, step int) (models.StepRecord, error) {
	if step < 1 {
		return models.StepRecord{}, fmt.Errorf("%w: step %d of run %d", ErrNotFound, step, runID)
	}
	recs, err := r.steps(ctx, runID, step)
	if err != nil {
		return models.StepRecord{}, err
	}
	if len(recs) < step {
		return models.StepRecord{}, fmt.Errorf("%w: step %d of run %d", ErrNotFound, step, runID)
	}
	return recs[step-1], nil
}

// steps reads the steps of a run up to and including upTo; 0 means all.
func (r *SQLRecorder) steps(ctx context.Context, runID, upTo int) ([]models.StepRecord, error) {
	query := `
		SELECT step, recorded_at, ballot, plurality, borda, condorcet, irv
		FROM step
		WHERE run_id = ?`
	args := []any{runID}
	if upTo > 0 {
		query += ` AND step <= ?`
		args = append(args, upTo)
	}
	query += ` ORDER BY step`

	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps of run %d: %w", runID, err)
	}
	defer rows.Close()

	var ballots []models.Ballot
	var recs []models.StepRecord
	for rows.Next() {
		rec := models.StepRecord{RunID: runID}
		var ballot string
		var pl, bd, cd, irv sql.NullString
		if err := rows.Scan(&rec.Step, &rec.Timestamp, &ballot, &pl, &bd, &cd, &irv); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		var b models.Ballot
		if err := json.Unmarshal([]byte(ballot), &b); err != nil {
			return nil, fmt.Errorf("failed to decode ballot of step %d: %w", rec.Step, err)
		}
		ballots = append(ballots, b)
		rec.Ballots = slices.Clip(ballots)
		rec.Winners = models.Winners{
			Plurality: nullString(pl),
			Borda:     nullString(bd),
			Condorcet: nullString(cd),
			IRV:       nullString(irv),
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		exists, err := r.runStarted(ctx, runID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: run %d", ErrNotFound, runID)
		}
	}
	return recs, nil
}

func (r *SQLRecorder) runStarted(ctx context.Context, runID int) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM run WHERE id = ?`), runID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query run %d: %w", runID, err)
	}
	return count > 0, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
