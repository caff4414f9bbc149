package analytics

import (
	"database/sql"
	"fmt"
)

// DB is the interface for database queries used by analytics.
type DB interface {
	Conn() *sql.DB
}

// CodeCount aggregates how often an error code was classified and what
// action it resolved to.
type CodeCount struct {
	Code   string `json:"code"`
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// OutcomeStat aggregates runs by terminal outcome.
type OutcomeStat struct {
	Outcome       string  `json:"outcome"`
	Count         int     `json:"count"`
	AvgIterations float64 `json:"avg_iterations"`
}

// QueryCodeCounts returns fix counts grouped by error code, most frequent
// first.
func QueryCodeCounts(database DB) ([]CodeCount, error) {
	rows, err := database.Conn().Query(`
		SELECT code, action, COUNT(*) as n
		FROM fix_events
		GROUP BY code, action
		ORDER BY n DESC, code ASC`)
	if err != nil {
		return nil, fmt.Errorf("query code counts: %w", err)
	}
	defer rows.Close()

	var results []CodeCount
	for rows.Next() {
		var c CodeCount
		if err := rows.Scan(&c.Code, &c.Action, &c.Count); err != nil {
			return nil, fmt.Errorf("scan code count: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// QueryOutcomeStats returns run counts and average iterations per terminal
// outcome. Runs still marked 'running' (crashed mid-loop) are excluded.
func QueryOutcomeStats(database DB) ([]OutcomeStat, error) {
	rows, err := database.Conn().Query(`
		SELECT outcome, COUNT(*), AVG(iterations)
		FROM runs
		WHERE outcome != 'running'
		GROUP BY outcome
		ORDER BY outcome ASC`)
	if err != nil {
		return nil, fmt.Errorf("query outcome stats: %w", err)
	}
	defer rows.Close()

	var results []OutcomeStat
	for rows.Next() {
		var s OutcomeStat
		var avg sql.NullFloat64
		if err := rows.Scan(&s.Outcome, &s.Count, &avg); err != nil {
			return nil, fmt.Errorf("scan outcome stat: %w", err)
		}
		if avg.Valid {
			s.AvgIterations = avg.Float64
		}
		results = append(results, s)
	}
	return results, rows.Err()
}
