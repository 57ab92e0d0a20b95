// local.go implements the host-shell execution backend.
//
// Each job gets a scratch directory used as its HOME, so toolchain
// bootstraps (which install under $HOME/miniconda) stay isolated between
// parallel matrix jobs even though all jobs share the project directory.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/convoy-run/convoy/internal/model"
)

// DefaultShell is the shell used to run steps when none is configured.
const DefaultShell = "/bin/sh"

// LocalOptions configures the local executor.
type LocalOptions struct {
	// Shell is the shell binary for steps. Defaults to DefaultShell.
	Shell string

	// Output receives the combined stdout/stderr of every step.
	// Defaults to os.Stdout.
	Output io.Writer

	// KeepScratch leaves the per-job scratch directories behind for
	// inspection instead of removing them in Cleanup.
	KeepScratch bool
}

// Local runs steps directly on the host.
type Local struct {
	shell       string
	out         io.Writer
	keepScratch bool

	// mu guards scratch; jobs prepare and clean up concurrently.
	mu      sync.Mutex
	scratch map[int]string
}

// NewLocal creates a local executor.
func NewLocal(opts LocalOptions) *Local {
	shell := opts.Shell
	if shell == "" {
		shell = DefaultShell
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	return &Local{
		shell:       shell,
		out:         out,
		keepScratch: opts.KeepScratch,
		scratch:     make(map[int]string),
	}
}

// Name identifies the backend.
func (l *Local) Name() string {
	return "local"
}

// Prepare creates the job's scratch directory and points the job's HOME
// at it unless the pipeline already set one.
func (l *Local) Prepare(_ context.Context, job *Job) error {
	dir, err := os.MkdirTemp("", fmt.Sprintf("convoy-job-%d-", job.Spec.Index))
	if err != nil {
		return fmt.Errorf("failed to create scratch directory for job %d: %w", job.Spec.Index, err)
	}

	l.mu.Lock()
	l.scratch[job.Spec.Index] = dir
	l.mu.Unlock()

	if job.Env == nil {
		job.Env = make(map[string]string)
	}
	if _, ok := job.Env["HOME"]; !ok {
		job.Env["HOME"] = dir
	}
	return nil
}

// RunStep executes one command via `shell -c` in the project directory.
// A non-zero exit is reported through the StepResult, not as an error.
func (l *Local) RunStep(ctx context.Context, job *Job, phase model.PhaseName, command string) (model.StepResult, error) {
	result := model.StepResult{Phase: phase, Command: command, ExitCode: -1}

	cmd := exec.CommandContext(ctx, l.shell, "-c", shellCommand(job, command))
	cmd.Dir = job.Dir
	// Inherit the host environment and overlay the job env. Entries
	// appended later win, so the job env overrides inherited values.
	cmd.Env = append(os.Environ(), job.EnvList()...)
	cmd.Stdout = l.out
	cmd.Stderr = l.out

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)

	if err == nil {
		result.ExitCode = 0
		return result, nil
	}

	// A step exiting non-zero is a normal outcome.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	// Cancellation and spawn failures are infrastructure errors.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	return result, fmt.Errorf("failed to run step %q: %w", command, err)
}

// Cleanup removes the job's scratch directory.
func (l *Local) Cleanup(_ context.Context, job *Job) error {
	l.mu.Lock()
	dir := l.scratch[job.Spec.Index]
	delete(l.scratch, job.Spec.Index)
	l.mu.Unlock()

	if dir == "" || l.keepScratch {
		return nil
	}
	return os.RemoveAll(dir)
}

// Close is a no-op for the local backend.
func (l *Local) Close() error {
	return nil
}
