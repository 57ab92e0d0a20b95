// executor.go defines the Executor interface and the per-job unit of
// work handed to a backend.
//
// Both backends run every step in a fresh shell. Environment that must
// survive between steps (the job env, the toolchain PATH entry) is
// therefore injected per step rather than exported by earlier steps.
package executor

import (
	"context"
	"fmt"
	"sort"

	"github.com/convoy-run/convoy/internal/model"
)

// Job is the runtime context for one matrix job: the immutable spec plus
// everything the runner resolved for execution.
type Job struct {
	// Spec is the expanded matrix entry.
	Spec model.JobSpec

	// Dir is the host project directory steps run in. For the docker
	// backend it is bind-mounted into the container.
	Dir string

	// Env is the fully merged step environment: the spec's env plus the
	// variables the runner injects (CI, CONVOY, CONVOY_PYTHON_VERSION,
	// CONVOY_JOB_NUMBER, git metadata).
	Env map[string]string

	// PathEntry is an optional directory prepended to PATH for every
	// step. It may reference shell variables ($HOME), so it is expanded
	// by the step's shell, not by convoy.
	PathEntry string
}

// EnvList renders the job environment as sorted KEY=VALUE pairs.
// Sorting keeps process invocations reproducible.
func (j *Job) EnvList() []string {
	list := make([]string, 0, len(j.Env))
	for k, v := range j.Env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}

// Executor runs the steps of a job. Implementations must be safe for
// concurrent use: the runner calls Prepare/RunStep/Cleanup for different
// jobs from different goroutines, though steps of a single job are
// always sequential.
//
// RunStep returns an error only for infrastructure failures (the shell
// could not be spawned, the Docker daemon went away). A step exiting
// non-zero is a normal outcome reported through StepResult.ExitCode.
type Executor interface {
	// Name identifies the backend ("local" or "docker") for logs.
	Name() string

	// Prepare provisions per-job resources before the first step:
	// a scratch directory, or a started container.
	Prepare(ctx context.Context, job *Job) error

	// RunStep executes one shell command of the given phase.
	RunStep(ctx context.Context, job *Job, phase model.PhaseName, command string) (model.StepResult, error)

	// Cleanup releases the job's resources after its last step.
	Cleanup(ctx context.Context, job *Job) error

	// Close releases backend-wide resources.
	Close() error
}

// shellCommand builds the command line handed to `shell -c`. When the
// job has a PathEntry, the command is prefixed with a PATH assignment so
// the toolchain's binaries resolve; the assignment must happen inside
// the shell because the entry may reference $HOME.
func shellCommand(job *Job, command string) string {
	if job.PathEntry == "" {
		return command
	}
	return fmt.Sprintf("PATH=%s:$PATH; %s", job.PathEntry, command)
}
