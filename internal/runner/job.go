package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/convoy-run/convoy/internal/config"
	"github.com/convoy-run/convoy/internal/executor"
	"github.com/convoy-run/convoy/internal/gitinfo"
	"github.com/convoy-run/convoy/internal/model"
	"github.com/convoy-run/convoy/internal/python"
)

// runJob drives one matrix job through its lifecycle phases and returns
// its terminal result. Semantics follow the usual CI contract:
//
//  1. A non-zero exit in before_install, install, or before_script
//     errors the job: the remaining main phases and all after phases
//     are skipped.
//  2. A non-zero exit in script fails the job, but the remaining
//     script commands still run.
//  3. after_success runs only for passing jobs, after_failure only for
//     failing ones, after_script for both. After-phase exit codes are
//     recorded but never change the job state.
func (r *Runner) runJob(ctx context.Context, p *config.Pipeline, spec model.JobSpec, dir string, git *gitinfo.Info) model.JobResult {
	result := model.JobResult{
		Spec:      spec,
		State:     model.JobPassed,
		StartedAt: time.Now(),
	}
	defer func() {
		result.Duration = time.Since(result.StartedAt)
	}()

	toolchain := python.NewToolchain(python.MustParseVersion(spec.Python))
	job := &executor.Job{
		Spec:      spec,
		Dir:       dir,
		Env:       buildJobEnv(&spec, git),
		PathEntry: toolchain.PathEntry(),
	}

	r.banner(&spec, "starting (python %s, executor %s)", spec.Python, r.exec.Name())

	// Cleanup is registered before Prepare: a Prepare that fails halfway
	// (container created but not started) has still provisioned
	// resources that must be released. It gets a fresh context so an
	// interrupted run also tears down containers and scratch
	// directories.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.exec.Cleanup(cleanupCtx, job); err != nil {
			r.opts.Verbose("Cleanup for job %d failed: %v", spec.Index, err)
		}
	}()

	if err := r.exec.Prepare(ctx, job); err != nil {
		r.banner(&spec, "environment setup failed: %v", err)
		result.State = stateForInfraError(ctx)
		return result
	}

	scriptRan := false

main:
	for _, phase := range model.MainPhases {
		commands := r.phaseCommands(p, phase, toolchain)
		if len(commands) == 0 {
			continue
		}
		if phase == model.PhaseScript {
			scriptRan = true
		}
		for _, command := range commands {
			res, err := r.step(ctx, job, phase, command)
			result.Steps = append(result.Steps, res)
			if err != nil {
				r.banner(&spec, "%s: %v", phase, err)
				result.State = stateForInfraError(ctx)
				result.FailedPhase = phase
				return result
			}
			if res.OK() {
				continue
			}
			if phase.IsSetup() {
				// Broken environment, not broken code.
				result.State = model.JobErrored
				result.FailedPhase = phase
				r.banner(&spec, "%s exited %d, job errored", phase, res.ExitCode)
				break main
			}
			// script: first non-zero exit fails the job, remaining
			// script commands still run.
			if result.State != model.JobFailed {
				result.State = model.JobFailed
				result.FailedPhase = phase
				r.banner(&spec, "script exited %d, job failed", res.ExitCode)
			}
		}
	}

	// After phases only make sense once the script verdict exists; an
	// errored job never reaches them.
	if scriptRan && result.State != model.JobErrored {
		after := model.PhaseAfterSuccess
		if result.State == model.JobFailed {
			after = model.PhaseAfterFailure
		}
		r.runAfterPhase(ctx, p, job, &result, after)
		r.runAfterPhase(ctx, p, job, &result, model.PhaseAfterScript)
	}

	r.banner(&spec, "%s in %s", result.State, time.Since(result.StartedAt).Round(time.Millisecond))
	return result
}

// runAfterPhase executes one after phase. Non-zero exits and even
// infrastructure errors are recorded but never alter the job state.
func (r *Runner) runAfterPhase(ctx context.Context, p *config.Pipeline, job *executor.Job, result *model.JobResult, phase model.PhaseName) {
	for _, command := range p.Phase(phase) {
		res, err := r.step(ctx, job, phase, command)
		result.Steps = append(result.Steps, res)
		if err != nil {
			r.banner(&job.Spec, "%s: %v", phase, err)
			return
		}
		if !res.OK() {
			r.opts.Verbose("Job %d: %s step exited %d (ignored)", job.Spec.Index, phase, res.ExitCode)
		}
	}
}

// step echoes the command and hands it to the executor.
func (r *Runner) step(ctx context.Context, job *executor.Job, phase model.PhaseName, command string) (model.StepResult, error) {
	fmt.Fprintf(r.opts.Output, "$ %s\n", command)
	return r.exec.RunStep(ctx, job, phase, command)
}

// phaseCommands resolves the commands of a main phase. The setup
// defaults mirror a hosted Python builder: when the pipeline declares
// no before_install, the miniconda bootstrap runs; when it declares no
// install, the project is pip-installed in editable mode. A declared
// phase replaces its default entirely.
func (r *Runner) phaseCommands(p *config.Pipeline, phase model.PhaseName, toolchain *python.Toolchain) []string {
	commands := p.Phase(phase)
	if len(commands) > 0 {
		return commands
	}
	switch phase {
	case model.PhaseBeforeInstall:
		return toolchain.BootstrapSteps()
	case model.PhaseInstall:
		return toolchain.InstallSteps()
	}
	return nil
}

// stateForInfraError distinguishes a user-driven interrupt from a
// backend failure.
func stateForInfraError(ctx context.Context) model.JobState {
	if ctx.Err() != nil {
		return model.JobCanceled
	}
	return model.JobErrored
}

// buildJobEnv assembles the step environment: well-known CI variables
// first, then git metadata when available, then the job's own env so
// pipeline-declared values always win.
func buildJobEnv(spec *model.JobSpec, git *gitinfo.Info) map[string]string {
	env := map[string]string{
		"CI":                     "true",
		"CONTINUOUS_INTEGRATION": "true",
		"CONVOY":                 "true",
		"CONVOY_RUN_ID":          spec.RunID,
		"CONVOY_JOB_NUMBER":      fmt.Sprintf("%d", spec.Index),
		"CONVOY_JOB_NAME":        spec.Name,
		"CONVOY_PYTHON_VERSION":  spec.Python,
	}
	if git != nil {
		if git.Branch != "" {
			env["CONVOY_BRANCH"] = git.Branch
		}
		if git.Commit != "" {
			env["CONVOY_COMMIT"] = git.Commit
		}
		if git.Slug != "" {
			env["CONVOY_REPO_SLUG"] = git.Slug
		}
	}
	for k, v := range spec.Env {
		env[k] = v
	}
	return env
}
