// Package cli — clean.go implements the "convoy clean" command.
//
// The clean command removes leftover job containers. Containers are
// discovered purely through their "ci.convoy.*" labels, so interrupted
// or --docker.keep_containers runs can always be cleaned up later
// without any on-disk state.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/convoy-run/convoy/internal/executor"
	"github.com/convoy-run/convoy/internal/model"
)

// cleanFlags holds the flag values for the clean command.
type cleanFlags struct {
	// runID restricts removal to one run's containers. Empty removes
	// the containers of every run.
	runID string

	// list only shows what would be removed.
	list bool
}

// NewCleanCommand creates the "clean" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCleanCommand() *cobra.Command {
	flags := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover job containers",
		Long: `Remove job containers left behind by interrupted runs or by runs
started with --docker.keep_containers.

Examples:
  convoy clean
  convoy clean --run-id 20260830-142055
  convoy clean --list --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.runID, "run-id", "", "Only remove containers of this run")
	cmd.Flags().BoolVar(&flags.list, "list", false, "List matching containers without removing them")

	return cmd
}

// runClean is the main logic function for the clean command.
func runClean(ctx context.Context, flags *cleanFlags) error {
	// Step 1: Validate the --run-id filter before touching Docker.
	if flags.runID != "" {
		if err := model.ValidateRunID(flags.runID); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "invalid --run-id", err)
		}
	}

	// Step 2: Connect to the Docker daemon.
	cli, err := executor.NewClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	// Step 3: List mode — show what a removal would touch.
	if flags.list {
		containers, err := executor.ListJobContainers(ctx, cli)
		if err != nil {
			return err
		}
		matching := containers[:0]
		for _, c := range containers {
			if flags.runID == "" || c.RunID == flags.runID {
				matching = append(matching, c)
			}
		}
		return printContainers(matching)
	}

	// Step 4: Remove.
	removed, err := executor.RemoveJobContainers(ctx, cli, flags.runID)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]int{"removed": removed}, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("Removed %d container(s)\n", removed)
	return nil
}

// printContainers renders the container list in the appropriate format.
func printContainers(containers []executor.JobContainer) error {
	if IsJSONOutput() {
		data, err := json.MarshalIndent(containers, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal containers: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(containers) == 0 {
		fmt.Println("No job containers found")
		return nil
	}
	for _, c := range containers {
		fmt.Printf("%s  run=%s  job=%d  python=%s  %s\n",
			c.Name, c.RunID, c.JobNumber, c.Python, c.State)
	}
	return nil
}
