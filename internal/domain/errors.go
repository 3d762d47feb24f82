package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alessio/shellescape"
)

// Domain errors represent the failure conditions callers can match on.
// The three typed errors below form a closed set: every failure surfaced by
// the controller is one of them, a wrap of one of them, or a sentinel below.
var (
	// ErrRestoreFailed wraps any failure of the restoring half of a scoped operation.
	ErrRestoreFailed = errors.New("restore failed")

	// ErrInvalidDelay is returned for non-positive or sub-millisecond delays.
	ErrInvalidDelay = errors.New("delay must be a positive number of milliseconds")

	// ErrInvalidTimeout is returned when a wait is given a non-positive timeout.
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrNoServices is returned when a lifecycle operation is given no service.
	ErrNoServices = errors.New("no services given")
)

// ExecutionError reports an external command that exited non-zero or could not be launched.
type ExecutionError struct {
	Command  []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command %s failed", shellescape.QuoteCommand(e.Command))
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " with exit code %d", e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, ": %s", stderr)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// NotFoundError reports a service that resolves to no running container, or
// that the topology does not declare.
type NotFoundError struct {
	Service string
	Err     error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %q not found: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("service %q not found", e.Service)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ConfigError reports a missing or malformed topology declaration or configuration.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "invalid configuration: " + msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// JoinRestore combines the error of a protected region with the error of its
// restore action. The original cause always comes first.
func JoinRestore(err, restoreErr error) error {
	if restoreErr == nil {
		return err
	}
	restoreErr = fmt.Errorf("%w: %w", ErrRestoreFailed, restoreErr)
	if err == nil {
		return restoreErr
	}
	return errors.Join(err, restoreErr)
}
