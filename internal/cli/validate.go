// Package cli — validate.go implements the "convoy validate" command.
//
// The validate command parses and checks the pipeline file without
// running anything. It is meant for editor integrations and pre-commit
// hooks: exit code 0 means the file would run, 3 means it would not.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/convoy-run/convoy/internal/config"
)

// NewValidateCommand creates the "validate" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Validate the pipeline file without running it",
		Long: `Parse and validate the pipeline file of the given project directory
(default: the current directory).

Checks the language declaration, the python version matrix, env rows,
and that a script phase is present. Nothing is executed.

Examples:
  convoy validate
  convoy validate ~/src/project
  convoy validate -c .travis.yml --json`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args)
		},
	}
}

// runValidate is the main logic function for the validate command.
func runValidate(args []string) error {
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

	if IsJSONOutput() {
		out := map[string]interface{}{
			"valid":  true,
			"path":   path,
			"python": []string(pipeline.Python),
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Fprintf(os.Stdout, "%s is valid\n", path)
	return nil
}
