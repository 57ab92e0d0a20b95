// validate.go performs schema-conformance checks on a parsed pipeline.
//
// Validation is deliberately strict about the parts convoy executes
// (script presence, version strings, env rows) and silent about
// everything else: unknown keys were already dropped at parse time.
package config

import (
	"fmt"
	"strings"

	"github.com/convoy-run/convoy/internal/model"
	"github.com/convoy-run/convoy/internal/python"
)

// ValidationError represents a specific validation failure in a
// pipeline file.
type ValidationError struct {
	// Field is the document path that failed validation
	// (e.g. "python[1]", "env.matrix[0]").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("pipeline validation error: %s: %s", e.Field, e.Message)
}

// Validate checks a parsed pipeline against the recognized schema.
// It returns a list of validation errors (empty list = valid pipeline)
// and never mutates the pipeline.
//
// Checks performed:
//   - language must be "python" (or empty, which defaults to python)
//   - script must be present and contain no blank commands
//   - every python version must parse as MAJOR.MINOR[.PATCH], major 2 or 3
//   - duplicate python versions are rejected
//   - env rows (global and matrix) must consist of KEY=VALUE tokens
//   - no phase may contain a blank command
func Validate(p *Pipeline) []ValidationError {
	var errs []ValidationError

	// Check 1: language. Empty defaults to python; anything else is
	// outside convoy's toolchain support.
	if p.Language != "" && !strings.EqualFold(p.Language, "python") {
		errs = append(errs, ValidationError{
			Field:   "language",
			Message: fmt.Sprintf("unsupported language %q (only \"python\" is supported)", p.Language),
		})
	}

	// Check 2: script is the one required phase. Its exit code is what
	// decides pass/fail, so a pipeline without it has no result.
	if len(p.Script) == 0 {
		errs = append(errs, ValidationError{
			Field:   "script",
			Message: "script phase is required",
		})
	}

	// Check 3: version strings must parse, and each version may appear
	// only once (a duplicate would silently double a matrix job).
	seen := make(map[string]bool, len(p.Python))
	for i, v := range p.Python {
		if _, err := python.ParseVersion(v); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("python[%d]", i),
				Message: err.Error(),
			})
			continue
		}
		if seen[v] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("python[%d]", i),
				Message: fmt.Sprintf("duplicate python version %q", v),
			})
		}
		seen[v] = true
	}

	// Check 4: env rows must split into KEY=VALUE tokens.
	for i, row := range p.Env.Global {
		if _, err := ParseEnvRow(row); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("env.global[%d]", i),
				Message: err.Error(),
			})
		}
	}
	for i, row := range p.Env.Matrix {
		if _, err := ParseEnvRow(row); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("env.matrix[%d]", i),
				Message: err.Error(),
			})
		}
	}

	// Check 5: blank commands. An empty string would run a no-op shell
	// and mask a YAML mistake (e.g. a stray "-").
	for _, phase := range allPhases {
		for i, cmd := range p.Phase(phase) {
			if strings.TrimSpace(cmd) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s[%d]", phase, i),
					Message: "command must not be blank",
				})
			}
		}
	}

	return errs
}

// ValidateStrict wraps Validate for callers that need a single error.
// All failures are joined into one CLIError with ExitConfigInvalid so
// the user sees every problem in one pass.
func ValidateStrict(p *Pipeline) error {
	errs := Validate(p)
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i := range errs {
		lines[i] = fmt.Sprintf("%s: %s", errs[i].Field, errs[i].Message)
	}
	return model.NewCLIError(
		model.ExitConfigInvalid,
		fmt.Sprintf("invalid pipeline:\n  %s", strings.Join(lines, "\n  ")),
	)
}

// allPhases lists every lifecycle phase for the blank-command sweep.
var allPhases = []model.PhaseName{
	model.PhaseBeforeInstall,
	model.PhaseInstall,
	model.PhaseBeforeScript,
	model.PhaseScript,
	model.PhaseAfterSuccess,
	model.PhaseAfterFailure,
	model.PhaseAfterScript,
}
