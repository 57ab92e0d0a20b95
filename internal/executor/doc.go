// Package executor runs pipeline job steps through pluggable backends.
//
// The Local backend spawns host shells; the Docker backend provisions
// one labeled container per job via the Docker Engine SDK and injects
// steps through the exec API. Both report per-step exit codes through
// model.StepResult and reserve Go errors for infrastructure failures.
//
// Containers are stamped with "ci.convoy.*" labels so that interrupted
// runs can be cleaned up later without any on-disk state.
package executor
