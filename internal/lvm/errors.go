package lvm

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrFailedExec     = errors.New("command failed")
	ErrFailedParsing  = errors.New("failed to parse command output")
	ErrNotFound       = errors.New("not found")
	ErrEnvironment    = errors.New("command could not be run")
	ErrInvalidRequest = errors.New("invalid request")
)

// Kind names, as returned by Kind.
const (
	KindFailedExec     = "FailedExec"
	KindFailedParsing  = "FailedParsing"
	KindNotFound       = "NotFound"
	KindEnvironment    = "Environment"
	KindInvalidRequest = "InvalidRequest"
	KindInternal       = "Internal"
)

// stderrFallback replaces error output that is not valid text.
const stderrFallback = "command failed with unreadable error output"

// ExecError reports an LVM command that ran but did not succeed.
type ExecError struct {
	Command string // LVM subcommand, e.g. "vgcreate"
	Code    int    // Exit status, -1 when killed
	Stderr  string // Decoded error output
	Err     error  // Set when the command was interrupted (timeout, cancellation)
}

func (e *ExecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	if e.Stderr == "" {
		return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Stderr)
}

func (e *ExecError) Is(target error) bool {
	return target == ErrFailedExec
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// ParseError reports a report that could not be turned into a record.
type ParseError struct {
	Report string // Report family, e.g. "pool-size"
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("failed to parse %s report: %s", e.Report, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Is(target error) bool {
	return target == ErrFailedParsing
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a pool or volume that does not exist.
type NotFoundError struct {
	Resource string // "pool" or "volume"
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func invalidRequest(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}

// Kind returns the name of the error kind err belongs to.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrFailedParsing):
		return KindFailedParsing
	case errors.Is(err, ErrFailedExec):
		return KindFailedExec
	case errors.Is(err, ErrEnvironment):
		return KindEnvironment
	default:
		return KindInternal
	}
}

func decodeStderr(b []byte) string {
	if !utf8.Valid(b) {
		return stderrFallback
	}
	return strings.TrimSpace(string(b))
}
