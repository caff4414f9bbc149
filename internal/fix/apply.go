package fix

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// LineRule rewrites a file's lines for one flagged line. idx is zero-based
// and always within range. It reports whether anything changed.
//
// Rules are deliberately textual, not syntactic. Keeping them behind this
// interface means a syntax-aware patcher can replace an implementation
// without touching the classifier or the loop.
type LineRule interface {
	Apply(lines []string, idx int) bool
}

// BorrowRule rewrites bare occurrences of the target identifier on the
// flagged line into borrowed form. An occurrence qualifies when it is a
// whole word, not already preceded by `&`, and not followed by `.` — already
// borrowed uses and member-access receivers are left alone.
type BorrowRule struct {
	target string
	word   *regexp.Regexp
}

// NewBorrowRule builds a BorrowRule for the given identifier.
func NewBorrowRule(target string) *BorrowRule {
	return &BorrowRule{
		target: target,
		word:   regexp.MustCompile(`\b` + regexp.QuoteMeta(target) + `\b`),
	}
}

func (r *BorrowRule) Apply(lines []string, idx int) bool {
	line := lines[idx]
	matches := r.word.FindAllStringIndex(line, -1)
	if len(matches) == 0 {
		return false
	}

	var b strings.Builder
	last := 0
	changed := false
	for _, m := range matches {
		start, end := m[0], m[1]
		b.WriteString(line[last:start])
		borrowed := start > 0 && line[start-1] == '&'
		member := end < len(line) && line[end] == '.'
		if !borrowed && !member {
			b.WriteByte('&')
			changed = true
		}
		b.WriteString(line[start:end])
		last = end
	}
	b.WriteString(line[last:])

	if !changed {
		return false
	}
	lines[idx] = b.String()
	return true
}

// MutRule walks upward from the flagged line looking for the nearest
// preceding `let <target> =` declaration and adds the mut qualifier to it.
// No matching declaration between the flagged line and the start of file is
// a silent no-op: the diagnostic may recur next iteration, and the loop's
// stall guard is what breaks that cycle.
type MutRule struct {
	target string
}

// NewMutRule builds a MutRule for the given identifier.
func NewMutRule(target string) *MutRule {
	return &MutRule{target: target}
}

func (r *MutRule) Apply(lines []string, idx int) bool {
	decl := "let " + r.target + " ="
	for i := idx; i >= 0; i-- {
		if strings.Contains(lines[i], decl) {
			lines[i] = strings.ReplaceAll(lines[i], decl, "let mut "+r.target+" =")
			return true
		}
	}
	return false
}

// FileChange summarises the edits performed on one file.
type FileChange struct {
	Path  string `json:"path"`
	Edits int    `json:"edits"`
}

// ApplyResult aggregates the file changes of one apply pass.
type ApplyResult struct {
	Changes []FileChange `json:"changes"`
}

// FilesTouched returns the number of files written in the pass.
func (r *ApplyResult) FilesTouched() int {
	return len(r.Changes)
}

// Applier rewrites source files according to a Plan, one LineRule per action.
type Applier struct {
	rules map[Action]LineRule
}

// NewApplier builds an Applier whose rules resolve against the given target
// identifier at apply time.
func NewApplier(target string) *Applier {
	return &Applier{
		rules: map[Action]LineRule{
			ActionInsertBorrow: NewBorrowRule(target),
			ActionMakeMutable:  NewMutRule(target),
		},
	}
}

// Apply consumes the plan: for every file it reads the full line sequence,
// applies each (line, action) pair, and writes the sequence back. Plan file
// names come from compiler diagnostics and are resolved relative to dir, the
// directory the build-check ran in. Flagged lines outside the file's range
// and actions without a rule are skipped. Nothing here verifies that an edit
// addresses its diagnostic — the next compiler invocation is the only judge.
func (a *Applier) Apply(dir string, plan Plan) (*ApplyResult, error) {
	result := &ApplyResult{}
	for _, name := range plan.Files() {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return result, fmt.Errorf("read %s: %w", path, err)
		}
		lines := strings.Split(string(data), "\n")

		edits := 0
		for _, lnum := range plan.Lines(name) {
			idx := lnum - 1
			if idx < 0 || idx >= len(lines) {
				continue
			}
			rule, ok := a.rules[plan[name][lnum]]
			if !ok {
				continue
			}
			if rule.Apply(lines, idx) {
				edits++
			}
		}

		mode := os.FileMode(0o644)
		if info, err := os.Stat(path); err == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), mode); err != nil {
			return result, fmt.Errorf("write %s: %w", path, err)
		}
		result.Changes = append(result.Changes, FileChange{Path: name, Edits: edits})
	}
	return result, nil
}
