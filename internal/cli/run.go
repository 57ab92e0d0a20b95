// Package cli — run.go implements the "convoy run" command.
//
// The run command loads the pipeline file, validates it, expands the
// python matrix, and executes every job through the configured backend.
// The process exit code reflects the run outcome (see model.ExitCode),
// so the command composes with shell scripting and outer automation.
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/convoy-run/convoy/internal/config"
	"github.com/convoy-run/convoy/internal/executor"
	"github.com/convoy-run/convoy/internal/model"
	"github.com/convoy-run/convoy/internal/runner"
	"github.com/convoy-run/convoy/internal/settings"
)

// runCmdFlags holds the flag values specific to the run command that
// are not part of the settings stack.
type runCmdFlags struct {
	// runID overrides the generated run identifier.
	runID string
}

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	flags := &runCmdFlags{}

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Run the pipeline of a project directory",
		Long: `Run the pipeline file of the given project directory (default: the
current directory).

Every python version in the matrix becomes one job; each job runs the
lifecycle phases in order and ends in a terminal state (passed, failed,
errored, or canceled). The run passes only if every job passed.

Examples:
  convoy run
  convoy run ~/src/project --executor docker --concurrency 3
  convoy run -c ci/.convoy.yml --json`,

		// The optional positional argument is the project directory.
		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, flags)
		},
	}

	// Settings-backed flags share their names with the koanf key space
	// so the settings loader can merge them directly.
	settings.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&flags.runID, "run-id", "", "Override the generated run identifier")

	return cmd
}

// runRun is the main logic function for the run command.
func runRun(cmd *cobra.Command, args []string, flags *runCmdFlags) error {
	// Step 1: Resolve the runner settings stack (defaults < file < env < flags).
	cfg, err := settings.Load(settingsPath, cmd.Flags())
	if err != nil {
		return err
	}

	// Step 2: Resolve the project directory, then load and validate
	// its pipeline file.
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

	if flags.runID != "" {
		if err := model.ValidateRunID(flags.runID); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "invalid --run-id", err)
		}
	}

	// Step 3: Cancel the run context on SIGINT/SIGTERM so containers
	// and scratch directories are still cleaned up.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Step 4: Build the step backend.
	backend := resolveBackend(cfg.Executor, pipeline)
	VerboseLog("Using %s executor", backend)

	var exec executor.Executor
	switch backend {
	case settings.ExecutorDocker:
		exec, err = executor.NewDocker(ctx, executor.DockerOptions{
			Images:         cfg.Docker.Images,
			ImagePattern:   cfg.Docker.ImagePattern,
			Shell:          cfg.Shell,
			Output:         os.Stdout,
			KeepContainers: cfg.Docker.KeepContainers,
		})
		if err != nil {
			return err
		}
	default:
		exec = executor.NewLocal(executor.LocalOptions{
			Shell:  cfg.Shell,
			Output: os.Stdout,
		})
	}
	defer exec.Close()

	// Step 5: Execute the matrix.
	r := runner.New(exec, runner.Options{
		Concurrency: cfg.Concurrency,
		RunID:       flags.runID,
		Output:      os.Stdout,
		Verbose:     VerboseLog,
	})
	report, err := r.Run(ctx, pipeline, dir)
	if err != nil {
		return err
	}

	// Step 6: Render the summary and translate the outcome into the
	// process exit code.
	if IsJSONOutput() {
		if err := runner.RenderJSON(os.Stdout, report); err != nil {
			return err
		}
	} else {
		runner.RenderTable(os.Stdout, report)
	}

	if code := runner.ReportExitCode(report); code != model.ExitSuccess {
		_, failed, errored, canceled := report.Counts()
		return model.NewCLIError(code, fmt.Sprintf(
			"run %s did not pass: %d failed, %d errored, %d canceled",
			report.RunID, failed, errored, canceled))
	}
	return nil
}

// resolveBackend maps the configured executor selector to a concrete
// backend. "auto" defers to the pipeline file: "sudo: false" requests
// the container infrastructure, anything else runs locally.
func resolveBackend(selector string, pipeline *config.Pipeline) string {
	if selector != settings.ExecutorAuto {
		return selector
	}
	if pipeline.WantsContainer() {
		return settings.ExecutorDocker
	}
	return settings.ExecutorLocal
}

// workingDir resolves a command's optional [dir] argument to an
// absolute project directory, defaulting to the working directory.
func workingDir(args []string) (string, error) {
	if len(args) == 0 {
		dir, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to determine working directory: %w", err)
		}
		return dir, nil
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory %q: %w", args[0], err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("not a directory: %s", args[0]),
		)
	}
	return dir, nil
}

// loadPipeline resolves the pipeline file: the --config flag wins,
// otherwise the well-known names are searched in the project directory.
func loadPipeline(dir string) (*config.Pipeline, string, error) {
	if configPath != "" {
		p, err := config.Load(configPath)
		return p, configPath, err
	}
	return config.FindAndLoad(dir)
}
