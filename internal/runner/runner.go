// Package runner orchestrates pipeline runs: matrix expansion, job
// fan-out over a bounded worker pool, per-job phase sequencing, and
// result aggregation.
//
// Matrix jobs are independent by construction, so they may run in
// parallel; within one job, phases and steps are strictly sequential.
// One job failing never stops the others — the run outcome is decided
// only after every job has a terminal state.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/convoy-run/convoy/internal/config"
	"github.com/convoy-run/convoy/internal/executor"
	"github.com/convoy-run/convoy/internal/gitinfo"
	"github.com/convoy-run/convoy/internal/model"
)

// Options configures a Runner.
type Options struct {
	// Concurrency bounds how many jobs run at once. Zero or negative
	// means one worker per job: matrix entries are independent, so by
	// default they all run in parallel.
	Concurrency int

	// RunID overrides the generated run identifier. Mostly for tests.
	RunID string

	// Output receives step echoes and job banners. Executors should be
	// constructed with the same writer so command output lands between
	// its echo and the next one. Defaults to os.Stdout.
	Output io.Writer

	// Verbose, when non-nil, receives debug/trace messages.
	Verbose func(format string, args ...interface{})
}

// Runner executes pipelines against a step execution backend.
type Runner struct {
	exec executor.Executor
	opts Options
}

// New creates a Runner on the given backend.
func New(exec executor.Executor, opts Options) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Verbose == nil {
		opts.Verbose = func(string, ...interface{}) {}
	}
	return &Runner{exec: exec, opts: opts}
}

// NewRunID generates a timestamp-based run identifier, e.g.
// "20260830-142055". Local runs are far enough apart that wall-clock
// seconds are unique enough.
func NewRunID() string {
	return time.Now().UTC().Format("20060102-150405")
}

// Run executes every matrix job of the pipeline and returns the
// aggregated report. The returned error covers only pre-flight failures
// (matrix expansion); job failures are reported through the report's
// job states, mirroring how a CI provider treats a red build as a
// normal outcome.
//
// A canceled ctx stops scheduling new jobs and interrupts running ones;
// affected jobs end up in the canceled state.
func (r *Runner) Run(ctx context.Context, p *config.Pipeline, dir string) (*model.RunReport, error) {
	runID := r.opts.RunID
	if runID == "" {
		runID = NewRunID()
	}

	specs, err := config.ExpandMatrix(p, runID)
	if err != nil {
		return nil, err
	}

	// Unset concurrency expands to the job count: every matrix entry
	// gets its own worker.
	concurrency := r.opts.Concurrency
	if concurrency < 1 {
		concurrency = len(specs)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	r.opts.Verbose("Run %s: %d job(s), executor %s, concurrency %d",
		runID, len(specs), r.exec.Name(), concurrency)

	// Git metadata is optional: a plain directory still runs, it just
	// gets no CONVOY_BRANCH/COMMIT/REPO_SLUG variables.
	var git *gitinfo.Info
	if gitinfo.IsRepo(dir) {
		if git, err = gitinfo.Collect(dir); err != nil {
			r.opts.Verbose("Could not collect git metadata: %v", err)
			git = nil
		}
	}

	startedAt := time.Now()
	results := make([]model.JobResult, len(specs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i := range specs {
		i := i
		g.Go(func() error {
			// Jobs not yet started when the run is interrupted are
			// recorded as canceled without touching the executor.
			if ctx.Err() != nil {
				results[i] = model.JobResult{Spec: specs[i], State: model.JobCanceled, StartedAt: time.Now()}
				return nil
			}
			results[i] = r.runJob(ctx, p, specs[i], dir, git)
			return nil
		})
	}
	// Job outcomes travel through the results slice; the group only
	// provides bounded fan-out.
	_ = g.Wait()

	report := &model.RunReport{
		RunID:     runID,
		Jobs:      results,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
	}

	passed, failed, errored, canceled := report.Counts()
	r.opts.Verbose("Run %s finished: %d passed, %d failed, %d errored, %d canceled",
		runID, passed, failed, errored, canceled)

	return report, nil
}

// banner writes a job-scoped line to the run output.
func (r *Runner) banner(spec *model.JobSpec, format string, args ...interface{}) {
	fmt.Fprintf(r.opts.Output, "[job %d: %s] %s\n", spec.Index, spec.Name, fmt.Sprintf(format, args...))
}
