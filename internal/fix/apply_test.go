package fix

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readSource(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// --- BorrowRule ---

func TestBorrowRule_BareOccurrence(t *testing.T) {
	rule := NewBorrowRule("conn")
	lines := []string{"    foo(conn)"}
	if !rule.Apply(lines, 0) {
		t.Fatal("expected a change")
	}
	if lines[0] != "    foo(&conn)" {
		t.Errorf("line = %q, want %q", lines[0], "    foo(&conn)")
	}
}

func TestBorrowRule_EveryBareOccurrenceOnLine(t *testing.T) {
	rule := NewBorrowRule("conn")
	lines := []string{"bar(conn, conn)"}
	if !rule.Apply(lines, 0) {
		t.Fatal("expected a change")
	}
	if lines[0] != "bar(&conn, &conn)" {
		t.Errorf("line = %q, want %q", lines[0], "bar(&conn, &conn)")
	}
}

func TestBorrowRule_SkipsBorrowedAndMemberAccess(t *testing.T) {
	rule := NewBorrowRule("conn")
	lines := []string{"use_it(&conn, conn.query())"}
	if rule.Apply(lines, 0) {
		t.Error("expected no change")
	}
	if lines[0] != "use_it(&conn, conn.query())" {
		t.Errorf("line mutated: %q", lines[0])
	}
}

func TestBorrowRule_WholeWordOnly(t *testing.T) {
	rule := NewBorrowRule("conn")
	lines := []string{"connect(connection, my_conn)"}
	if rule.Apply(lines, 0) {
		t.Error("expected no change for non-whole-word occurrences")
	}
}

func TestBorrowRule_MixedLine(t *testing.T) {
	rule := NewBorrowRule("conn")
	lines := []string{"run(conn, &conn, conn.id, conn)"}
	if !rule.Apply(lines, 0) {
		t.Fatal("expected a change")
	}
	if lines[0] != "run(&conn, &conn, conn.id, &conn)" {
		t.Errorf("line = %q", lines[0])
	}
}

// --- MutRule ---

func TestMutRule_RewritesNearestDeclaration(t *testing.T) {
	rule := NewMutRule("conn")
	lines := []string{
		"fn a() {",
		"    let conn = open();",
		"}",
		"fn b() {",
		"    let conn = open();",
		"    other();",
		"    conn.execute();",
		"}",
	}
	if !rule.Apply(lines, 6) {
		t.Fatal("expected a change")
	}
	if lines[4] != "    let mut conn = open();" {
		t.Errorf("nearest declaration not rewritten: %q", lines[4])
	}
	if lines[1] != "    let conn = open();" {
		t.Errorf("earlier declaration must stay untouched: %q", lines[1])
	}
	if lines[6] != "    conn.execute();" {
		t.Errorf("flagged line must stay untouched: %q", lines[6])
	}
}

func TestMutRule_NoDeclarationIsNoOp(t *testing.T) {
	rule := NewMutRule("conn")
	lines := []string{"foo();", "conn.execute();"}
	if rule.Apply(lines, 1) {
		t.Error("expected no change without a declaration")
	}
}

func TestMutRule_DeclarationOnFlaggedLine(t *testing.T) {
	// The walk includes the flagged line itself.
	rule := NewMutRule("conn")
	lines := []string{"let conn = open();"}
	if !rule.Apply(lines, 0) {
		t.Fatal("expected a change")
	}
	if lines[0] != "let mut conn = open();" {
		t.Errorf("line = %q", lines[0])
	}
}

// --- Applier ---

func TestApplier_ScenarioBorrow(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	for i := 1; i <= 9; i++ {
		b.WriteString("// filler\n")
	}
	b.WriteString("foo(conn)\n")
	writeSource(t, dir, "a.rs", b.String())

	plan := Plan{"a.rs": {10: ActionInsertBorrow}}
	result, err := NewApplier("conn").Apply(dir, plan)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.FilesTouched() != 1 {
		t.Errorf("files touched = %d, want 1", result.FilesTouched())
	}

	content := readSource(t, filepath.Join(dir, "a.rs"))
	lines := strings.Split(content, "\n")
	if lines[9] != "foo(&conn)" {
		t.Errorf("line 10 = %q, want %q", lines[9], "foo(&conn)")
	}
}

func TestApplier_ScenarioMut(t *testing.T) {
	dir := t.TempDir()
	lines := make([]string, 21)
	for i := range lines {
		lines[i] = "// filler"
	}
	lines[4] = "let conn = open();"
	lines[19] = "conn.execute();"
	writeSource(t, dir, "a.rs", strings.Join(lines, "\n"))

	plan := Plan{"a.rs": {20: ActionMakeMutable}}
	if _, err := NewApplier("conn").Apply(dir, plan); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got := strings.Split(readSource(t, filepath.Join(dir, "a.rs")), "\n")
	if got[4] != "let mut conn = open();" {
		t.Errorf("line 5 = %q, want %q", got[4], "let mut conn = open();")
	}
	if got[19] != "conn.execute();" {
		t.Errorf("line 20 = %q, must be unchanged", got[19])
	}
}

func TestApplier_AbsentDeclarationLeavesFileUnchanged(t *testing.T) {
	dir := t.TempDir()
	original := "foo();\nconn.execute();\n"
	writeSource(t, dir, "a.rs", original)

	plan := Plan{"a.rs": {2: ActionMakeMutable}}
	if _, err := NewApplier("conn").Apply(dir, plan); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if got := readSource(t, filepath.Join(dir, "a.rs")); got != original {
		t.Errorf("file changed byte-for-byte:\n%q\nwant\n%q", got, original)
	}
}

func TestApplier_OutOfRangeLineSkipped(t *testing.T) {
	dir := t.TempDir()
	original := "foo(conn)\n"
	writeSource(t, dir, "a.rs", original)

	plan := Plan{"a.rs": {100: ActionInsertBorrow}}
	result, err := NewApplier("conn").Apply(dir, plan)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Changes[0].Edits != 0 {
		t.Errorf("edits = %d, want 0", result.Changes[0].Edits)
	}
	if got := readSource(t, filepath.Join(dir, "a.rs")); got != original {
		t.Errorf("file changed: %q", got)
	}
}

func TestApplier_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.rs", "foo(conn)\n")
	writeSource(t, dir, "b.rs", "let conn = open();\nconn.execute();\n")

	plan := Plan{
		"a.rs": {1: ActionInsertBorrow},
		"b.rs": {2: ActionMakeMutable},
	}
	result, err := NewApplier("conn").Apply(dir, plan)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.FilesTouched() != 2 {
		t.Errorf("files touched = %d, want 2", result.FilesTouched())
	}

	if got := readSource(t, filepath.Join(dir, "a.rs")); !strings.HasPrefix(got, "foo(&conn)") {
		t.Errorf("a.rs = %q", got)
	}
	if got := readSource(t, filepath.Join(dir, "b.rs")); !strings.HasPrefix(got, "let mut conn = open();") {
		t.Errorf("b.rs = %q", got)
	}
}

func TestApplier_MissingFileIsAnError(t *testing.T) {
	plan := Plan{"nope.rs": {1: ActionInsertBorrow}}
	if _, err := NewApplier("conn").Apply(t.TempDir(), plan); err == nil {
		t.Error("expected error for missing file")
	}
}
