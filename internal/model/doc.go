// Package model defines the domain types and value objects for the
// convoy CLI.
//
// This package contains pure data structures with no external
// dependencies. All entities (JobSpec, JobResult, StepResult, RunReport)
// are transient: a pipeline run produces them in memory and renders them
// at the end, with no persistent state file.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
