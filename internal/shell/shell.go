// Package shell runs external commands with a bounded execution time and
// captures their output.
//
// A nonzero exit status is not an error here: callers inspect
// Result.Succeeded and decide what a failure means for them. Run only
// returns an error when the command could not be started at all, when the
// timeout fired, or when the caller's context was cancelled.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single command when the Runner has none configured.
const DefaultTimeout = 60 * time.Second

var (
	// ErrTimeout is returned when a command outlives the runner timeout.
	ErrTimeout = errors.New("command timed out")

	// ErrStart is returned when a command could not be spawned
	// (missing binary, permission denied, ...).
	ErrStart = errors.New("command could not be started")
)

// Result is the captured outcome of a command that ran to completion.
type Result struct {
	Stdout []byte
	Stderr []byte
	Code   int
}

// Succeeded reports whether the command exited with status zero.
func (r Result) Succeeded() bool {
	return r.Code == 0
}

// Runner executes commands on the local host.
type Runner struct {
	// Timeout bounds each command. Zero means DefaultTimeout.
	Timeout time.Duration

	// Env is appended to the parent environment for every command.
	Env []string
}

// NewRunner creates a Runner with the given per-command timeout.
// Commands run with LC_ALL=C so that tool messages are not localized.
func NewRunner(timeout time.Duration) *Runner {
	return &Runner{
		Timeout: timeout,
		Env:     []string{"LC_ALL=C"},
	}
}

// Run executes name with args and waits for it to exit.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	res := Result{Stdout: outBuf.Bytes(), Stderr: errBuf.Bytes(), Code: exitCode(err)}

	// Check the parent first so a caller cancellation is not reported as our timeout.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", name, ctxErr)
	}
	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%s: %w after %s", name, ErrTimeout, timeout)
	}

	var ee *exec.ExitError
	if err != nil && !errors.As(err, &ee) {
		return res, fmt.Errorf("%w: %s: %v", ErrStart, name, err)
	}
	return res, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
