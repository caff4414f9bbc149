package loop

import (
	"fmt"
	"io"

	"github.com/cargomend/cargomend/internal/check"
	"github.com/cargomend/cargomend/internal/diag"
	"github.com/cargomend/cargomend/internal/fix"
)

// Outcome names a terminal state of the convergence loop.
type Outcome string

const (
	// OutcomeSuccess: the build-check command reported a clean build.
	OutcomeSuccess Outcome = "success"
	// OutcomeNoFix: the build failed and no diagnostic matched the rule
	// table. The raw compiler text is surfaced for human inspection.
	OutcomeNoFix Outcome = "no_fix"
	// OutcomeMaxIterations: the iteration cap was reached before the build
	// went green.
	OutcomeMaxIterations Outcome = "max_iterations"
	// OutcomeStalled: an iteration produced the exact fix set of an earlier
	// one, so the applied fixes are not landing.
	OutcomeStalled Outcome = "stalled"
)

// Recorder receives classified fixes as they are about to be applied. The
// history store implements it; a nil Recorder disables recording.
type Recorder interface {
	RecordFix(iteration int, file string, line int, code string, action string)
}

// Summary describes a finished loop run.
type Summary struct {
	Outcome    Outcome `json:"outcome"`
	Iterations int     `json:"iterations"`
	// Stderr carries the last raw compiler error text when the loop stops
	// without a green build.
	Stderr string `json:"stderr,omitempty"`
}

// Engine drives the invoke → parse → classify → patch cycle. It is strictly
// sequential: one compiler invocation at a time, each plan fully applied
// before the next invocation, and no state between iterations beyond the
// files on disk.
type Engine struct {
	invoker  *check.Invoker
	applier  *fix.Applier
	rules    map[string]fix.Action
	maxIters int
	recorder Recorder
	out      io.Writer
}

// NewEngine creates an Engine. maxIters caps the number of compiler
// invocations; zero removes the cap. recorder may be nil.
func NewEngine(invoker *check.Invoker, applier *fix.Applier, rules map[string]fix.Action, maxIters int, recorder Recorder, out io.Writer) *Engine {
	return &Engine{
		invoker:  invoker,
		applier:  applier,
		rules:    rules,
		maxIters: maxIters,
		recorder: recorder,
		out:      out,
	}
}

// Run executes the loop in dir until a terminal outcome. The only error
// return is a broken boundary — a command that cannot launch or a flagged
// file that cannot be read or written; everything the compiler itself
// reports is handled inside the loop.
func (e *Engine) Run(dir string) (*Summary, error) {
	seen := make(map[string]bool)
	lastStderr := ""

	for iteration := 1; ; iteration++ {
		if e.maxIters > 0 && iteration > e.maxIters {
			fmt.Fprintf(e.out, "Stopping after %d iterations without a clean build.\n", e.maxIters)
			return &Summary{Outcome: OutcomeMaxIterations, Iterations: e.maxIters, Stderr: lastStderr}, nil
		}

		fmt.Fprintf(e.out, "[%d] %s\n", iteration, e.invoker.Command())
		res, err := e.invoker.Check(dir)
		if err != nil {
			return nil, err
		}
		if res.Succeeded {
			return &Summary{Outcome: OutcomeSuccess, Iterations: iteration}, nil
		}
		lastStderr = res.Stderr

		diags := diag.Parse(res.Stdout)
		plan := fix.Classify(diags, e.rules)
		if plan.Empty() {
			return &Summary{Outcome: OutcomeNoFix, Iterations: iteration, Stderr: res.Stderr}, nil
		}

		fp := plan.Fingerprint()
		if seen[fp] {
			return &Summary{Outcome: OutcomeStalled, Iterations: iteration, Stderr: res.Stderr}, nil
		}
		seen[fp] = true

		if e.recorder != nil {
			for _, d := range diags {
				if action, ok := e.rules[d.Code]; ok {
					e.recorder.RecordFix(iteration, d.File, d.Line, d.Code, string(action))
				}
			}
		}

		result, err := e.applier.Apply(dir, plan)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(e.out, "Applied fixes to %d files.\n", result.FilesTouched())
	}
}
