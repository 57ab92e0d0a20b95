// docker.go implements the container-backed execution backend.
//
// Each job gets one container, created from an image matching the job's
// interpreter version and kept alive for the duration of the job. Steps
// run through the Docker exec API, with output demuxed onto the step
// log and the exit code read back from exec inspection.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/convoy-run/convoy/internal/model"
)

// ContainerWorkdir is where the project directory is mounted inside job
// containers and where every step runs.
const ContainerWorkdir = "/convoy/workspace"

// execPollInterval is how often a finished exec is polled for its exit
// code. The attach stream closing does not guarantee the exec record is
// final yet.
const execPollInterval = 100 * time.Millisecond

// DockerOptions configures the docker executor.
type DockerOptions struct {
	// Images maps interpreter versions to container images, e.g.
	// {"2.7": "python:2.7-slim"}. Versions not in the map fall back to
	// ImagePattern.
	Images map[string]string

	// ImagePattern is a fmt pattern with one %s verb for the version.
	// Defaults to "python:%s-slim".
	ImagePattern string

	// Shell is the in-container shell for steps. Defaults to DefaultShell.
	Shell string

	// Output receives the combined stdout/stderr of every step.
	// Defaults to os.Stdout.
	Output io.Writer

	// KeepContainers leaves job containers behind after the run,
	// for post-mortem inspection with docker exec. `convoy clean`
	// removes them later.
	KeepContainers bool
}

// Docker runs each job inside its own labeled container.
type Docker struct {
	cli  *Client
	opts DockerOptions
	out  io.Writer

	// mu guards containers; jobs prepare and clean up concurrently.
	mu         sync.Mutex
	containers map[int]string
}

// NewDocker creates a docker executor and verifies the daemon is
// reachable before the first job starts.
func NewDocker(ctx context.Context, opts DockerOptions) (*Docker, error) {
	cli, err := NewClient()
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, err
	}

	if opts.Shell == "" {
		opts.Shell = DefaultShell
	}
	if opts.ImagePattern == "" {
		opts.ImagePattern = "python:%s-slim"
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	return &Docker{
		cli:        cli,
		opts:       opts,
		out:        out,
		containers: make(map[int]string),
	}, nil
}

// Name identifies the backend.
func (d *Docker) Name() string {
	return "docker"
}

// Image resolves the container image for an interpreter version.
func (d *Docker) Image(version string) string {
	if img, ok := d.opts.Images[version]; ok {
		return img
	}
	return fmt.Sprintf(d.opts.ImagePattern, version)
}

// Prepare pulls the job's image, then creates and starts its container.
// The container idles on `sleep infinity`; steps are injected via exec.
func (d *Docker) Prepare(ctx context.Context, job *Job) error {
	img := d.Image(job.Spec.Python)

	// Best-effort pull: a failure is tolerated because the image may
	// already exist locally. ContainerCreate is the authoritative check.
	if rc, err := d.cli.Inner().ImagePull(ctx, img, image.PullOptions{}); err == nil {
		// The pull stream must be drained for the pull to complete.
		_, _ = io.Copy(io.Discard, rc)
		_ = rc.Close()
	}

	created, err := d.cli.Inner().ContainerCreate(ctx,
		&container.Config{
			Image:      img,
			Cmd:        []string{"sleep", "infinity"},
			WorkingDir: ContainerWorkdir,
			Env:        job.EnvList(),
			Labels:     BuildJobLabels(&job.Spec, time.Now()),
		},
		&container.HostConfig{
			Binds: []string{job.Dir + ":" + ContainerWorkdir},
		},
		nil, nil, job.Spec.Slug(),
	)
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create container for job %q (image %s)", job.Spec.Name, img),
			err,
		)
	}

	// Record the container before starting it, so Cleanup still removes
	// it when the start fails.
	d.mu.Lock()
	d.containers[job.Spec.Index] = created.ID
	d.mu.Unlock()

	if err := d.cli.Inner().ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to start container for job %q", job.Spec.Name),
			err,
		)
	}
	return nil
}

// RunStep executes one command inside the job's container via the exec
// API. A non-zero exit is reported through the StepResult, not as an
// error.
func (d *Docker) RunStep(ctx context.Context, job *Job, phase model.PhaseName, command string) (model.StepResult, error) {
	result := model.StepResult{Phase: phase, Command: command, ExitCode: -1}

	d.mu.Lock()
	containerID := d.containers[job.Spec.Index]
	d.mu.Unlock()
	if containerID == "" {
		return result, fmt.Errorf("no container prepared for job %d", job.Spec.Index)
	}

	start := time.Now()

	execCreated, err := d.cli.Inner().ContainerExecCreate(ctx, containerID, container.ExecOptions{
		Cmd:          []string{d.opts.Shell, "-c", shellCommand(job, command)},
		Env:          job.EnvList(),
		WorkingDir:   ContainerWorkdir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return result, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create exec for step %q", command),
			err,
		)
	}

	attach, err := d.cli.Inner().ContainerExecAttach(ctx, execCreated.ID, container.ExecAttachOptions{})
	if err != nil {
		return result, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to attach to step %q", command),
			err,
		)
	}

	// The attached stream multiplexes stdout and stderr; stdcopy splits
	// it. Both go to the same sink, like a terminal would show them.
	_, copyErr := stdcopy.StdCopy(d.out, d.out, attach.Reader)
	attach.Close()
	if copyErr != nil && ctx.Err() == nil {
		return result, fmt.Errorf("failed to stream output of step %q: %w", command, copyErr)
	}

	// The stream closing does not mean the exec record is final; poll
	// until Running turns false.
	for {
		inspect, err := d.cli.Inner().ContainerExecInspect(ctx, execCreated.ID)
		if err != nil {
			return result, model.WrapCLIError(
				model.ExitDockerNotRunning,
				fmt.Sprintf("failed to inspect step %q", command),
				err,
			)
		}
		if !inspect.Running {
			result.ExitCode = inspect.ExitCode
			break
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(execPollInterval):
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// Cleanup force-removes the job's container unless KeepContainers is set.
func (d *Docker) Cleanup(ctx context.Context, job *Job) error {
	d.mu.Lock()
	containerID := d.containers[job.Spec.Index]
	delete(d.containers, job.Spec.Index)
	d.mu.Unlock()

	if containerID == "" || d.opts.KeepContainers {
		return nil
	}

	if err := d.cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container for job %q", job.Spec.Name),
			err,
		)
	}
	return nil
}

// Close releases the Docker client.
func (d *Docker) Close() error {
	return d.cli.Close()
}
