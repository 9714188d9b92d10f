package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/palletworks/pallet/internal/errs"
)

type Mode int

const (
	Capture Mode = iota
	Stream
)

// Options shape a single subprocess invocation.
type Options struct {
	// Dir is the working directory. Empty inherits the parent's.
	Dir string
	// Timeout bounds the run. Zero means no deadline beyond ctx.
	Timeout time.Duration
	Mode    Mode
	// Check escalates a non-zero exit into a *errs.CommandError.
	// A timeout is never escalated; it is reported on the Result.
	Check bool
}

// Result is what a finished subprocess left behind. Stdout and Stderr
// are only populated in Capture mode.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

type CommandRunner interface {
	Run(ctx context.Context, opts Options, name string, args ...string) (Result, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(
	parent context.Context,
	opts Options,
	name string,
	args ...string,
) (Result, error) {
	ctx := parent
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	// Do not hang on grandchildren that inherited our pipes.
	cmd.WaitDelay = 10 * time.Second

	var stdout, stderr bytes.Buffer
	switch opts.Mode {
	case Stream:
		cmd.Stdout, cmd.Stderr, cmd.Stdin = os.Stdout, os.Stderr, os.Stdin
	default:
		cmd.Stdout, cmd.Stderr = &stdout, &stderr
	}

	err := cmd.Run()

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	switch {
	case err == nil:
		return res, nil
	case parent.Err() != nil:
		// The caller is unwinding; surface that, not the kill fallout.
		return Result{}, &errs.CommandError{
			Cmd:      cmdString(name, args),
			ExitCode: -1,
			Err:      parent.Err(),
		}
	case opts.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded):
		// Partial capture is dropped; the caller only needs the marker.
		return Result{
			ExitCode: -1,
			TimedOut: true,
			Stderr:   fmt.Sprintf("command timed out after %s", opts.Timeout),
		}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if opts.Check {
			return Result{}, &errs.CommandError{
				Cmd:      cmdString(name, args),
				ExitCode: res.ExitCode,
				Stdout:   res.Stdout,
				Stderr:   res.Stderr,
			}
		}
		return res, nil
	}

	if errors.Is(err, exec.ErrWaitDelay) {
		// The process exited; only its pipes were left open.
		res.ExitCode = cmd.ProcessState.ExitCode()
		if opts.Check && res.ExitCode != 0 {
			return Result{}, &errs.CommandError{
				Cmd:      cmdString(name, args),
				ExitCode: res.ExitCode,
				Stdout:   res.Stdout,
				Stderr:   res.Stderr,
			}
		}
		return res, nil
	}

	return Result{}, &errs.CommandError{
		Cmd:      cmdString(name, args),
		ExitCode: -1,
		Err:      err,
	}
}

func cmdString(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
