package db

import (
	"database/sql"
	"fmt"
)

// Run represents a row in the runs table.
type Run struct {
	ID         int
	Dir        string
	Command    string
	Outcome    string
	Iterations int
	DurationMs int
	Timestamp  string
}

// FixEvent represents a row in the fix_events table.
type FixEvent struct {
	ID        int
	RunID     int
	Iteration int
	File      string
	Line      int
	Code      string
	Action    string
	Timestamp string
}

// BeginRun inserts a run in the 'running' state and returns its id.
func (d *DB) BeginRun(dir string, command string) (int64, error) {
	res, err := d.conn.Exec(
		`INSERT INTO runs (dir, command) VALUES (?, ?)`,
		dir, command,
	)
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("begin run id: %w", err)
	}
	return id, nil
}

// FinishRun records a run's terminal outcome.
func (d *DB) FinishRun(runID int64, outcome string, iterations int, durationMs int) error {
	_, err := d.conn.Exec(
		`UPDATE runs SET outcome = ?, iterations = ?, duration_ms = ? WHERE id = ?`,
		outcome, iterations, durationMs, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// LogFixEvent inserts one classified fix.
func (d *DB) LogFixEvent(runID int64, iteration int, file string, line int, code string, action string) error {
	_, err := d.conn.Exec(
		`INSERT INTO fix_events (run_id, iteration, file, line, code, action) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, iteration, file, line, code, action,
	)
	if err != nil {
		return fmt.Errorf("log fix event: %w", err)
	}
	return nil
}

// GetRunHistory returns all runs, newest first.
func (d *DB) GetRunHistory() ([]Run, error) {
	rows, err := d.conn.Query(
		`SELECT id, dir, command, outcome, iterations, duration_ms, timestamp
		 FROM runs ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("get run history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetLatestRun returns the most recent run, or nil when none exist.
func (d *DB) GetLatestRun() (*Run, error) {
	rows, err := d.conn.Query(
		`SELECT id, dir, command, outcome, iterations, duration_ms, timestamp
		 FROM runs ORDER BY id DESC LIMIT 1`,
	)
	if err != nil {
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRun(rows)
}

// GetFixEvents returns the fixes recorded for a run in application order.
func (d *DB) GetFixEvents(runID int) ([]FixEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, iteration, file, line, code, action, timestamp
		 FROM fix_events WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get fix events: %w", err)
	}
	defer rows.Close()

	var events []FixEvent
	for rows.Next() {
		var e FixEvent
		if err := rows.Scan(&e.ID, &e.RunID, &e.Iteration, &e.File, &e.Line, &e.Code, &e.Action, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan fix event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var r Run
	var durationMs sql.NullInt64
	if err := rows.Scan(&r.ID, &r.Dir, &r.Command, &r.Outcome, &r.Iterations, &durationMs, &r.Timestamp); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if durationMs.Valid {
		r.DurationMs = int(durationMs.Int64)
	}
	return &r, nil
}
