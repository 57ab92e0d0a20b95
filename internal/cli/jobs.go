// Package cli — jobs.go implements the "convoy jobs" command.
//
// The jobs command shows the expanded job matrix — one row per python
// version and env matrix combination — without executing anything.
// It answers "what would run" the same way the run command would
// expand it.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/convoy-run/convoy/internal/config"
	"github.com/convoy-run/convoy/internal/runner"
)

// NewJobsCommand creates the "jobs" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewJobsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs [dir]",
		Short: "Show the expanded job matrix without running it",
		Long: `Expand the pipeline's python version and env matrix into the list of
jobs a run would execute, and print them as a table or JSON.

Examples:
  convoy jobs
  convoy jobs ~/src/project --json`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(args)
		},
	}
}

// runJobs is the main logic function for the jobs command.
func runJobs(args []string) error {
	dir, err := workingDir(args)
	if err != nil {
		return err
	}
	pipeline, path, err := loadPipeline(dir)
	if err != nil {
		return err
	}
	if err := config.ValidateStrict(pipeline); err != nil {
		return err
	}
	VerboseLog("Loaded pipeline from %s", path)

	// The placeholder run ID never leaves this process: expansion only
	// needs one to fill in the job specs.
	specs, err := config.ExpandMatrix(pipeline, "preview")
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		data, err := json.MarshalIndent(specs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal jobs: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	runner.RenderJobsTable(os.Stdout, specs)
	return nil
}
