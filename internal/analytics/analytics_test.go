package analytics

import (
	"database/sql"
	"testing"

	"github.com/cargomend/cargomend/internal/db"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func exec(t *testing.T, conn *sql.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := conn.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func TestQueryCodeCounts(t *testing.T) {
	d := testDB(t)
	c := d.Conn()

	exec(t, c, `INSERT INTO runs (dir, command, outcome, iterations) VALUES ('.', 'cargo check', 'success', 3)`)
	exec(t, c, `INSERT INTO fix_events (run_id, iteration, file, line, code, action) VALUES (1, 1, 'a.rs', 10, 'E0308', 'borrow')`)
	exec(t, c, `INSERT INTO fix_events (run_id, iteration, file, line, code, action) VALUES (1, 1, 'a.rs', 12, 'E0308', 'borrow')`)
	exec(t, c, `INSERT INTO fix_events (run_id, iteration, file, line, code, action) VALUES (1, 2, 'b.rs', 5, 'E0596', 'mut')`)

	counts, err := QueryCodeCounts(d)
	if err != nil {
		t.Fatalf("QueryCodeCounts: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 code groups, got %d", len(counts))
	}
	if counts[0].Code != "E0308" || counts[0].Count != 2 || counts[0].Action != "borrow" {
		t.Errorf("counts[0] = %+v", counts[0])
	}
	if counts[1].Code != "E0596" || counts[1].Count != 1 {
		t.Errorf("counts[1] = %+v", counts[1])
	}
}

func TestQueryOutcomeStats(t *testing.T) {
	d := testDB(t)
	c := d.Conn()

	exec(t, c, `INSERT INTO runs (dir, command, outcome, iterations) VALUES ('.', 'cargo check', 'success', 2)`)
	exec(t, c, `INSERT INTO runs (dir, command, outcome, iterations) VALUES ('.', 'cargo check', 'success', 4)`)
	exec(t, c, `INSERT INTO runs (dir, command, outcome, iterations) VALUES ('.', 'cargo check', 'no_fix', 1)`)
	// A crashed run still marked running must not be counted.
	exec(t, c, `INSERT INTO runs (dir, command) VALUES ('.', 'cargo check')`)

	stats, err := QueryOutcomeStats(d)
	if err != nil {
		t.Fatalf("QueryOutcomeStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 outcome groups, got %d", len(stats))
	}

	byOutcome := make(map[string]OutcomeStat)
	for _, s := range stats {
		byOutcome[s.Outcome] = s
	}
	if s := byOutcome["success"]; s.Count != 2 || s.AvgIterations != 3.0 {
		t.Errorf("success stat = %+v", s)
	}
	if s := byOutcome["no_fix"]; s.Count != 1 || s.AvgIterations != 1.0 {
		t.Errorf("no_fix stat = %+v", s)
	}
}

func TestEmptyDatabase(t *testing.T) {
	d := testDB(t)

	counts, err := QueryCodeCounts(d)
	if err != nil {
		t.Fatalf("QueryCodeCounts: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("expected no counts, got %v", counts)
	}

	stats, err := QueryOutcomeStats(d)
	if err != nil {
		t.Fatalf("QueryOutcomeStats: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("expected no stats, got %v", stats)
	}
}
