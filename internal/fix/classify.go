package fix

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/cargomend/cargomend/internal/diag"
)

// Action names a textual fix rule.
type Action string

const (
	// ActionInsertBorrow prefixes bare uses of the target binding with a
	// reference marker on the flagged line.
	ActionInsertBorrow Action = "borrow"
	// ActionMakeMutable adds a mutability qualifier to the nearest preceding
	// declaration of the target binding.
	ActionMakeMutable Action = "mut"
)

// KnownAction reports whether name is a recognized fix action.
func KnownAction(name string) bool {
	switch Action(name) {
	case ActionInsertBorrow, ActionMakeMutable:
		return true
	}
	return false
}

// DefaultRules returns the built-in error-code-to-action table.
//
// E0277 resolving to a borrow is a heuristic, not a guarantee: many trait
// bound failures on the target binding clear up once it is passed by
// reference, but not all. The next compiler run is the arbiter either way.
func DefaultRules() map[string]Action {
	return map[string]Action{
		"E0308": ActionInsertBorrow, // value used where a reference was expected
		"E0596": ActionMakeMutable,  // cannot borrow immutable binding as mutable
		"E0277": ActionInsertBorrow, // unsatisfied trait bound, commonly fixed by borrowing
	}
}

// Plan maps file name -> line number -> action for a single loop iteration.
// Plans are built fresh from each compiler run and never persist across
// iterations.
type Plan map[string]map[int]Action

// Classify maps each diagnostic's error code through the rule table and
// collects the results into a Plan. Unknown codes produce no entry. When two
// diagnostics land on the same (file, line), the later one in input order
// overwrites the earlier — last write wins, no merging.
func Classify(diags []diag.Diagnostic, rules map[string]Action) Plan {
	plan := make(Plan)
	for _, d := range diags {
		action, ok := rules[d.Code]
		if !ok {
			continue
		}
		if plan[d.File] == nil {
			plan[d.File] = make(map[int]Action)
		}
		plan[d.File][d.Line] = action
	}
	return plan
}

// Empty reports whether the plan contains no fixes. An empty plan on a
// failing build is the loop's no-fix termination signal.
func (p Plan) Empty() bool {
	return len(p) == 0
}

// Files returns the plan's file names in sorted order so applies are
// deterministic.
func (p Plan) Files() []string {
	files := make([]string, 0, len(p))
	for f := range p {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Lines returns the flagged line numbers for a file in ascending order.
func (p Plan) Lines(file string) []int {
	lines := make([]int, 0, len(p[file]))
	for l := range p[file] {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

// Fingerprint returns a stable hash of the plan's contents. The loop uses it
// to detect an iteration that produced the exact fix set of an earlier one,
// which means the fixes are not landing.
func (p Plan) Fingerprint() string {
	h := fnv.New64a()
	for _, file := range p.Files() {
		for _, line := range p.Lines(file) {
			fmt.Fprintf(h, "%s:%d:%s;", file, line, p[file][line])
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
