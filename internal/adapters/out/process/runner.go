// Package process implements the command runner port on top of os/exec.
package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"time"
	"unicode"

	"github.com/alessio/shellescape"
	"github.com/charmbracelet/log"

	"github.com/bnema/composectl/internal/domain"
)

// Runner executes external commands and blocks until they exit. It never retries.
type Runner struct {
	log *log.Logger
}

// NewRunner creates a runner that logs every invocation to logger.
func NewRunner(logger *log.Logger) *Runner {
	return &Runner{log: logger.With("component", "process")}
}

// Run executes argv and returns its trimmed stdout.
func (r *Runner) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", &domain.ExecutionError{ExitCode: -1, Err: errors.New("empty command")}
	}

	r.log.Info("running command", "cmd", shellescape.QuoteCommand(argv))
	start := time.Now()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		execErr := newExecutionError(argv, err, stderr.String())
		r.log.Debug("command failed", "cmd", argv[0], "exit_code", execErr.ExitCode, "duration", time.Since(start))
		return "", execErr
	}

	r.log.Debug("command finished", "cmd", argv[0], "duration", time.Since(start))
	return strings.TrimRightFunc(stdout.String(), unicode.IsSpace), nil
}

// Stream executes argv with the given streams attached. Stderr is also
// captured so that a failure carries it.
func (r *Runner) Stream(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(argv) == 0 {
		return &domain.ExecutionError{ExitCode: -1, Err: errors.New("empty command")}
	}

	r.log.Info("running command", "cmd", shellescape.QuoteCommand(argv), "attached", true)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var captured bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	if stderr != nil {
		cmd.Stderr = io.MultiWriter(stderr, &captured)
	} else {
		cmd.Stderr = &captured
	}

	if err := cmd.Run(); err != nil {
		return newExecutionError(argv, err, captured.String())
	}
	return nil
}

func newExecutionError(argv []string, err error, stderr string) *domain.ExecutionError {
	execErr := &domain.ExecutionError{
		Command:  append([]string(nil), argv...),
		ExitCode: -1,
		Stderr:   stderr,
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr.ExitCode = exitErr.ExitCode()
	}
	return execErr
}
