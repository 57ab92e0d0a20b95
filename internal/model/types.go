// types.go holds every domain type: lifecycle phases, job specs and
// results, run reports, exit codes, and the CLIError that carries an
// exit code up through cobra.
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// PhaseName identifies one lifecycle phase of a job. Phases execute in
// the order defined by MainPhases, followed by the conditional after
// phases:
//
//	before_install → install → before_script → script
//	  → after_success (script passed) | after_failure (script failed)
//	  → after_script
type PhaseName string

const (
	// PhaseBeforeInstall prepares the build environment, e.g. toolchain
	// bootstrap. A failure here errors the job.
	PhaseBeforeInstall PhaseName = "before_install"

	// PhaseInstall installs the project's dependencies. A failure here
	// errors the job.
	PhaseInstall PhaseName = "install"

	// PhaseBeforeScript runs final setup before the test command.
	// A failure here errors the job.
	PhaseBeforeScript PhaseName = "before_script"

	// PhaseScript is the single required phase. Its exit codes decide
	// whether the job passes or fails.
	PhaseScript PhaseName = "script"

	// PhaseAfterSuccess runs only when every script command exited zero.
	// Its exit codes never change the job state.
	PhaseAfterSuccess PhaseName = "after_success"

	// PhaseAfterFailure runs only when a script command exited non-zero.
	// Its exit codes never change the job state.
	PhaseAfterFailure PhaseName = "after_failure"

	// PhaseAfterScript runs whenever the job reached the script phase,
	// regardless of outcome. Its exit codes never change the job state.
	PhaseAfterScript PhaseName = "after_script"
)

// MainPhases lists the phases whose exit codes affect the job state,
// in execution order.
var MainPhases = []PhaseName{
	PhaseBeforeInstall,
	PhaseInstall,
	PhaseBeforeScript,
	PhaseScript,
}

// String returns the string representation of the phase name.
func (p PhaseName) String() string {
	return string(p)
}

// IsValid checks whether the PhaseName is one of the defined phases.
func (p PhaseName) IsValid() bool {
	switch p {
	case PhaseBeforeInstall, PhaseInstall, PhaseBeforeScript, PhaseScript,
		PhaseAfterSuccess, PhaseAfterFailure, PhaseAfterScript:
		return true
	default:
		return false
	}
}

// IsSetup reports whether a non-zero exit in this phase errors the job
// (as opposed to failing it). Setup phases are everything before script.
func (p PhaseName) IsSetup() bool {
	return p == PhaseBeforeInstall || p == PhaseInstall || p == PhaseBeforeScript
}

// IsAfter reports whether the phase runs after script and is therefore
// best-effort: its exit codes are recorded but never change the job state.
func (p PhaseName) IsAfter() bool {
	return p == PhaseAfterSuccess || p == PhaseAfterFailure || p == PhaseAfterScript
}

// JobState represents the terminal state of a single matrix job.
//
//	[Created] → passed | failed | errored | canceled
//
// The failed/errored split mirrors hosted CI semantics: "failed" means
// the test command itself exited non-zero, "errored" means the job never
// got a meaningful test result because environment setup broke.
type JobState string

const (
	// JobPassed indicates every script command exited zero.
	JobPassed JobState = "passed"

	// JobFailed indicates at least one script command exited non-zero.
	JobFailed JobState = "failed"

	// JobErrored indicates a setup phase (before_install, install,
	// before_script) exited non-zero, so the script phase never ran.
	JobErrored JobState = "errored"

	// JobCanceled indicates the run was interrupted before the job
	// finished (or started).
	JobCanceled JobState = "canceled"
)

// String returns the string representation of the job state.
func (s JobState) String() string {
	return string(s)
}

// IsValid checks whether the JobState is one of the defined states.
func (s JobState) IsValid() bool {
	switch s {
	case JobPassed, JobFailed, JobErrored, JobCanceled:
		return true
	default:
		return false
	}
}

// ParseJobState converts a string to a JobState.
// Returns an error if the string does not match any valid state.
func ParseJobState(s string) (JobState, error) {
	state := JobState(strings.ToLower(s))
	if !state.IsValid() {
		return "", fmt.Errorf("invalid job state: %q (valid: passed, failed, errored, canceled)", s)
	}
	return state, nil
}

// JobSpec describes one expanded matrix entry: a concrete interpreter
// version plus its merged environment. Specs are produced by matrix
// expansion and are immutable during the run.
type JobSpec struct {
	// Index is the 1-based job number in matrix declaration order.
	Index int `json:"index"`

	// Name is the human-readable job label, e.g. "python 3.6" or
	// "python 2.7 (DB=postgres)".
	Name string `json:"name"`

	// Python is the interpreter version string from the matrix,
	// e.g. "2.7", "3.6". Never empty after expansion.
	Python string `json:"python"`

	// Env is the merged environment for this job: global env entries
	// overlaid with the job's matrix row. Runner-injected variables
	// (CI, CONVOY_JOB_NUMBER, ...) are added at execution time and are
	// not part of the spec.
	Env map[string]string `json:"env,omitempty"`

	// RunID identifies the pipeline run this job belongs to. All jobs
	// of one run share the same RunID; it is also stamped on job
	// containers for later discovery.
	RunID string `json:"runId"`
}

// slugRegex matches everything that is not safe in a container name.
var slugRegex = regexp.MustCompile(`[^a-zA-Z0-9-]+`)

// Slug returns an identifier for the job that is safe to use as a
// container name: "convoy-<runID>-job-<n>".
func (s *JobSpec) Slug() string {
	runID := slugRegex.ReplaceAllString(s.RunID, "-")
	return fmt.Sprintf("convoy-%s-job-%d", strings.Trim(runID, "-"), s.Index)
}

// runIDRegex validates run identifiers: alphanumeric + hyphens only,
// must start and end with alphanumeric.
var runIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateRunID checks if the given string is a valid run identifier.
// Valid IDs contain only alphanumeric characters and hyphens,
// and must start/end with an alphanumeric character.
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("run id must not be empty")
	}
	if !runIDRegex.MatchString(id) {
		return fmt.Errorf("invalid run id %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", id)
	}
	return nil
}

// StepResult records the outcome of a single shell command within a phase.
type StepResult struct {
	// Phase is the lifecycle phase this command belongs to.
	Phase PhaseName `json:"phase"`

	// Command is the shell command as written in the pipeline file
	// (or generated by the toolchain provisioner).
	Command string `json:"command"`

	// ExitCode is the command's process exit code. Zero means success.
	// -1 indicates the command could not be started or was interrupted.
	ExitCode int `json:"exitCode"`

	// Duration is the wall-clock time the command took.
	Duration time.Duration `json:"duration"`
}

// OK reports whether the step exited zero.
func (r *StepResult) OK() bool {
	return r.ExitCode == 0
}

// JobResult is the terminal record of one matrix job.
type JobResult struct {
	// Spec is the job specification that was executed.
	Spec JobSpec `json:"spec"`

	// State is the terminal state of the job.
	State JobState `json:"state"`

	// Steps holds the results of every command that ran, in order.
	Steps []StepResult `json:"steps,omitempty"`

	// FailedPhase names the phase whose non-zero exit decided the
	// failed/errored state. Empty for passed and canceled jobs.
	FailedPhase PhaseName `json:"failedPhase,omitempty"`

	// StartedAt is when the job began executing.
	StartedAt time.Time `json:"startedAt"`

	// Duration is the job's total wall-clock time.
	Duration time.Duration `json:"duration"`
}

// Passed reports whether the job reached the passed state.
func (r *JobResult) Passed() bool {
	return r.State == JobPassed
}

// RunReport aggregates the results of all matrix jobs in one run.
type RunReport struct {
	// RunID identifies the run.
	RunID string `json:"runId"`

	// Jobs holds one result per matrix job, in matrix order.
	Jobs []JobResult `json:"jobs"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"startedAt"`

	// Duration is the run's total wall-clock time.
	Duration time.Duration `json:"duration"`
}

// Passed reports whether every job in the run passed. A run with zero
// jobs is not considered passed.
func (r *RunReport) Passed() bool {
	if len(r.Jobs) == 0 {
		return false
	}
	for i := range r.Jobs {
		if !r.Jobs[i].Passed() {
			return false
		}
	}
	return true
}

// Counts tallies jobs by terminal state.
func (r *RunReport) Counts() (passed, failed, errored, canceled int) {
	for i := range r.Jobs {
		switch r.Jobs[i].State {
		case JobPassed:
			passed++
		case JobFailed:
			failed++
		case JobErrored:
			errored++
		case JobCanceled:
			canceled++
		}
	}
	return passed, failed, errored, canceled
}

// ExitCode defines the CLI's process exit codes. These codes allow
// scripts and outer CI systems to programmatically determine the
// outcome of a convoy invocation.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigNotFound indicates no pipeline file was found in the
	// expected locations.
	ExitConfigNotFound ExitCode = 2

	// ExitConfigInvalid indicates the pipeline file was found but failed
	// schema validation.
	ExitConfigInvalid ExitCode = 3

	// ExitDockerNotRunning indicates the Docker daemon is not accessible
	// while the docker executor is selected.
	ExitDockerNotRunning ExitCode = 4

	// ExitJobFailed indicates at least one matrix job failed
	// (its script phase exited non-zero).
	ExitJobFailed ExitCode = 5

	// ExitJobErrored indicates at least one matrix job errored
	// (a setup phase exited non-zero).
	ExitJobErrored ExitCode = 6

	// ExitInterrupted indicates the run was canceled before completion.
	ExitInterrupted ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
