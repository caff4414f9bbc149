package check

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandRunner abstracts command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir string, command string) (stdout string, stderr string, exitCode int, err error)
}

// ExecRunner implements CommandRunner by shelling out.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, dir string, command string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return stdoutBuf.String(), stderrBuf.String(), -1, fmt.Errorf("exec: %w", err)
		}
	}
	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// Result holds the outcome of one build-check invocation. Stdout carries the
// machine-readable diagnostic stream, Stderr the human-readable text that is
// echoed verbatim when the loop gives up.
type Result struct {
	Succeeded  bool   `json:"succeeded"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int    `json:"duration_ms"`
	TimedOut   bool   `json:"timed_out,omitempty"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
}

// Invoker runs the build-check command, one invocation per call, no retries.
type Invoker struct {
	cmd     CommandRunner
	command string
	timeout time.Duration
}

// NewInvoker creates an Invoker for the given command. A zero timeout means
// the invocation may run forever, matching a compiler that is simply slow.
func NewInvoker(cmd CommandRunner, command string, timeout time.Duration) *Invoker {
	return &Invoker{cmd: cmd, command: command, timeout: timeout}
}

// Command returns the configured build-check command line.
func (inv *Invoker) Command() string {
	return inv.command
}

// Check invokes the build-check command in dir. A command that cannot be
// launched at all is returned as an error — a missing toolchain is not
// recoverable here. A command that runs and exits non-zero is a normal
// failed Result.
func (inv *Invoker) Check(dir string) (*Result, error) {
	ctx := context.Background()
	cancel := func() {}
	if inv.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, inv.timeout)
	}
	defer cancel()

	start := time.Now()
	stdout, stderr, exitCode, err := inv.cmd.Run(ctx, dir, inv.command)
	durationMs := int(time.Since(start).Milliseconds())

	if err != nil {
		return nil, fmt.Errorf("run %q: %w", inv.command, err)
	}

	timedOut := ctx.Err() == context.DeadlineExceeded
	return &Result{
		Succeeded:  !timedOut && exitCode == 0,
		ExitCode:   exitCode,
		DurationMs: durationMs,
		TimedOut:   timedOut,
		Stdout:     stdout,
		Stderr:     stderr,
	}, nil
}
