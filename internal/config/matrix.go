// matrix.go expands the declared version × env matrix into the ordered
// list of independent jobs for one run.
package config

import (
	"fmt"

	"github.com/convoy-run/convoy/internal/model"
	"github.com/convoy-run/convoy/internal/python"
)

// DefaultPythonVersion is the interpreter used when the pipeline file
// declares no python matrix at all. A pipeline always expands to at
// least one job.
const DefaultPythonVersion = "3.6"

// ExpandMatrix produces one JobSpec per interpreter-version × env-matrix-row
// combination, numbered 1..N in declaration order (versions outermost).
//
// A pipeline with python {2.7, 3.5, 3.6} and no env matrix expands to
// exactly 3 jobs. An empty python list expands against
// DefaultPythonVersion; an empty env matrix contributes a single empty
// row. Global env rows are merged into every job, with the matrix row
// overriding on key collisions.
func ExpandMatrix(p *Pipeline, runID string) ([]model.JobSpec, error) {
	if err := model.ValidateRunID(runID); err != nil {
		return nil, err
	}

	versions := []string(p.Python)
	if len(versions) == 0 {
		versions = []string{DefaultPythonVersion}
	}

	// Parse the global rows once; they are shared by every job.
	global := make(map[string]string)
	for _, row := range p.Env.Global {
		kv, err := ParseEnvRow(row)
		if err != nil {
			return nil, fmt.Errorf("env.global: %w", err)
		}
		for k, v := range kv {
			global[k] = v
		}
	}

	// An empty env matrix still contributes one (empty) row, so the job
	// count is always len(versions) × max(1, len(matrix rows)).
	rows := p.Env.Matrix
	if len(rows) == 0 {
		rows = []string{""}
	}

	specs := make([]model.JobSpec, 0, len(versions)*len(rows))
	for _, ver := range versions {
		if _, err := python.ParseVersion(ver); err != nil {
			return nil, err
		}

		for _, row := range rows {
			rowEnv, err := ParseEnvRow(row)
			if err != nil {
				return nil, fmt.Errorf("env.matrix: %w", err)
			}

			// Merge global under the row: the row wins on collisions.
			env := make(map[string]string, len(global)+len(rowEnv))
			for k, v := range global {
				env[k] = v
			}
			for k, v := range rowEnv {
				env[k] = v
			}

			name := "python " + ver
			if row != "" {
				name = fmt.Sprintf("python %s (%s)", ver, row)
			}

			specs = append(specs, model.JobSpec{
				Index:  len(specs) + 1,
				Name:   name,
				Python: ver,
				Env:    env,
				RunID:  runID,
			})
		}
	}

	return specs, nil
}
