package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Begin inserts a run in the running status.
func (s *Store) Begin(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("begin run: id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = StatusRunning
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (
            id, batch_id, input_path, source_path, run_key, output_root, models,
            state, status, title, artist, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		nullableString(run.BatchID),
		run.InputPath,
		nullableString(run.SourcePath),
		nullableString(run.RunKey),
		nullableString(run.OutputRoot),
		nullableString(strings.Join(run.Models, ",")),
		run.State,
		run.Status,
		nullableString(run.Title),
		nullableString(run.Artist),
		formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordPhase appends a phase transition and moves the run to that state.
func (s *Store) RecordPhase(ctx context.Context, event PhaseEvent) error {
	if event.RecordedAt.IsZero() {
		event.RecordedAt = time.Now()
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO run_phases (run_id, phase, outcome, detail, elapsed_ms, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		event.RunID,
		event.Phase,
		event.Outcome,
		nullableString(event.Detail),
		event.Elapsed.Milliseconds(),
		formatTime(event.RecordedAt),
	); err != nil {
		return fmt.Errorf("record phase: %w", err)
	}
	if _, err := s.execWithRetry(ctx, `UPDATE runs SET state = ? WHERE id = ?`, event.Phase, event.RunID); err != nil {
		return fmt.Errorf("record phase state: %w", err)
	}
	return nil
}

// Finish stores the terminal status, counts and error of a run.
func (s *Store) Finish(ctx context.Context, run Run) error {
	finished := time.Now()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET
            state = ?, status = ?, failure_kind = ?, error_message = ?,
            segments = ?, stems = ?, enhanced = ?, finished_at = ?
        WHERE id = ?`,
		run.State,
		run.Status,
		nullableString(run.FailureKind),
		nullableString(run.ErrorMessage),
		run.Segments,
		run.Stems,
		run.Enhanced,
		formatTime(finished),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// MarkInterrupted finalizes runs under outputRoot still marked running. The
// caller must hold the output lock so no live batch owns those rows.
func (s *Store) MarkInterrupted(ctx context.Context, outputRoot string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ?
         WHERE status = ? AND output_root = ?`,
		StatusInterrupted,
		InterruptedReason,
		formatTime(time.Now()),
		StatusRunning,
		outputRoot,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// Get fetches a run by exact identifier.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Find resolves a full identifier or a unique prefix of one.
func (s *Store) Find(ctx context.Context, idOrPrefix string) (*Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, fmt.Errorf("find run: %w", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ESCAPE '\' ORDER BY started_at LIMIT 2`,
		escapeLike(idOrPrefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%s: %w", idOrPrefix, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%s: %w", idOrPrefix, ErrAmbiguous)
	}
}

// List returns the most recent runs first, filtered by status when any are
// given. A non-positive limit returns every match.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Phases returns the recorded transitions of a run in order.
func (s *Store) Phases(ctx context.Context, runID string) ([]PhaseEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, phase, outcome, detail, elapsed_ms, recorded_at
         FROM run_phases WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	defer rows.Close()

	var events []PhaseEvent
	for rows.Next() {
		var (
			event      PhaseEvent
			detail     sql.NullString
			elapsedMS  int64
			recordedAt string
		)
		if err := rows.Scan(&event.RunID, &event.Phase, &event.Outcome, &detail, &elapsedMS, &recordedAt); err != nil {
			return nil, err
		}
		event.Detail = detail.String
		event.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if ts, err := parseTimeString(recordedAt); err == nil {
			event.RecordedAt = ts
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Stats returns a count of runs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}
