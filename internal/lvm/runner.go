package lvm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jbweber/lvmpool/internal/metrics"
	"github.com/jbweber/lvmpool/internal/shell"
)

// Runner executes an external command.
// This allows for dependency injection and testing; *shell.Runner
// implements it for the local host.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (shell.Result, error)
}

// Failure reasons used as the "reason" label of CommandFailures.
const (
	reasonExit      = "exit"
	reasonTimeout   = "timeout"
	reasonCancelled = "cancelled"
	reasonSpawn     = "spawn"
)

// invoker runs LVM subcommands and turns their outcome into the error
// kinds of this package.
type invoker struct {
	runner Runner
	binary string // optional multiplexer binary, e.g. "lvm"
	logger zerolog.Logger
}

// run executes an LVM subcommand and returns its stdout.
//
// A nonzero exit becomes an *ExecError carrying the decoded stderr. A
// timeout or cancellation becomes an *ExecError wrapping the cause. Any
// other runner error means the command could not be started and matches
// ErrEnvironment.
func (i *invoker) run(ctx context.Context, command string, args ...string) ([]byte, error) {
	name, argv := command, args
	if i.binary != "" {
		name = i.binary
		argv = append([]string{command}, args...)
	}

	i.logger.Debug().Str("command", command).Strs("args", args).Msg("running LVM command")

	timer := metrics.NewTimer()
	res, err := i.runner.Run(ctx, name, argv...)
	timer.ObserveDuration(metrics.CommandDuration.WithLabelValues(command))

	if err != nil {
		reason := reasonSpawn
		switch {
		case errors.Is(err, shell.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
			reason = reasonTimeout
		case errors.Is(err, context.Canceled):
			reason = reasonCancelled
		}
		metrics.CommandFailures.WithLabelValues(command, reason).Inc()

		if reason == reasonSpawn {
			i.logger.Error().Err(err).Str("command", command).Msg("LVM command could not be started")
			return nil, fmt.Errorf("%w: %w", ErrEnvironment, err)
		}
		i.logger.Warn().Err(err).Str("command", command).Msg("LVM command interrupted")
		return nil, &ExecError{
			Command: command,
			Code:    res.Code,
			Stderr:  decodeStderr(res.Stderr),
			Err:     err,
		}
	}

	if !res.Succeeded() {
		metrics.CommandFailures.WithLabelValues(command, reasonExit).Inc()
		stderr := decodeStderr(res.Stderr)
		i.logger.Debug().Str("command", command).Int("code", res.Code).Str("stderr", stderr).Msg("LVM command failed")
		return nil, &ExecError{Command: command, Code: res.Code, Stderr: stderr}
	}

	return res.Stdout, nil
}
