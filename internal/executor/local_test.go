package executor

import (
	"bytes"
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoy-run/convoy/internal/model"
)

// newTestJob returns a minimal prepared job running in a temp dir.
func newTestJob(t *testing.T) *Job {
	t.Helper()
	return &Job{
		Spec: model.JobSpec{Index: 1, Name: "python 3.6", Python: "3.6", RunID: "test-run"},
		Dir:  t.TempDir(),
		Env:  map[string]string{"CONVOY_TEST_VAR": "hello"},
	}
}

// skipOnWindows skips shell-dependent tests where /bin/sh is absent.
func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestLocal_RunStep_Success(t *testing.T) {
	skipOnWindows(t)

	var out bytes.Buffer
	l := NewLocal(LocalOptions{Output: &out})
	job := newTestJob(t)
	require.NoError(t, l.Prepare(context.Background(), job))
	defer func() { _ = l.Cleanup(context.Background(), job) }()

	result, err := l.RunStep(context.Background(), job, model.PhaseScript, "echo building")
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.True(t, result.OK())
	assert.Equal(t, model.PhaseScript, result.Phase)
	assert.Equal(t, "echo building", result.Command)
	assert.Contains(t, out.String(), "building")
}

// TestLocal_RunStep_NonZeroExit verifies a failing step is a normal
// result, not a Go error, and the exact code is preserved.
func TestLocal_RunStep_NonZeroExit(t *testing.T) {
	skipOnWindows(t)

	l := NewLocal(LocalOptions{Output: &bytes.Buffer{}})
	job := newTestJob(t)
	require.NoError(t, l.Prepare(context.Background(), job))
	defer func() { _ = l.Cleanup(context.Background(), job) }()

	result, err := l.RunStep(context.Background(), job, model.PhaseScript, "exit 3")
	require.NoError(t, err, "non-zero exit is not an infrastructure error")
	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.OK())
}

// TestLocal_RunStep_JobEnv verifies the job env reaches the step and
// overrides inherited values.
func TestLocal_RunStep_JobEnv(t *testing.T) {
	skipOnWindows(t)

	t.Setenv("CONVOY_TEST_VAR", "from-host")

	var out bytes.Buffer
	l := NewLocal(LocalOptions{Output: &out})
	job := newTestJob(t) // sets CONVOY_TEST_VAR=hello
	require.NoError(t, l.Prepare(context.Background(), job))
	defer func() { _ = l.Cleanup(context.Background(), job) }()

	result, err := l.RunStep(context.Background(), job, model.PhaseScript, "echo val=$CONVOY_TEST_VAR")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, out.String(), "val=hello", "job env should override the host env")
}

// TestLocal_Prepare_ScratchHome verifies each job gets its own HOME so
// parallel toolchain bootstraps cannot collide.
func TestLocal_Prepare_ScratchHome(t *testing.T) {
	skipOnWindows(t)

	l := NewLocal(LocalOptions{Output: &bytes.Buffer{}})

	jobA := newTestJob(t)
	jobB := newTestJob(t)
	jobB.Spec.Index = 2

	require.NoError(t, l.Prepare(context.Background(), jobA))
	require.NoError(t, l.Prepare(context.Background(), jobB))
	defer func() {
		_ = l.Cleanup(context.Background(), jobA)
		_ = l.Cleanup(context.Background(), jobB)
	}()

	require.NotEmpty(t, jobA.Env["HOME"])
	require.NotEmpty(t, jobB.Env["HOME"])
	assert.NotEqual(t, jobA.Env["HOME"], jobB.Env["HOME"])
}

// TestLocal_PathEntry verifies the PATH prefix is applied inside the
// step's shell (so $HOME expands to the job's scratch HOME).
func TestLocal_PathEntry(t *testing.T) {
	skipOnWindows(t)

	var out bytes.Buffer
	l := NewLocal(LocalOptions{Output: &out})
	job := newTestJob(t)
	job.PathEntry = "$HOME/toolchain/bin"
	require.NoError(t, l.Prepare(context.Background(), job))
	defer func() { _ = l.Cleanup(context.Background(), job) }()

	result, err := l.RunStep(context.Background(), job, model.PhaseBeforeInstall, "echo $PATH")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, out.String(), job.Env["HOME"]+"/toolchain/bin",
		"PATH should start with the expanded toolchain entry")
}

func TestLocal_Cleanup_RemovesScratch(t *testing.T) {
	skipOnWindows(t)

	l := NewLocal(LocalOptions{Output: &bytes.Buffer{}})
	job := newTestJob(t)
	require.NoError(t, l.Prepare(context.Background(), job))

	scratch := job.Env["HOME"]
	require.DirExists(t, scratch)

	require.NoError(t, l.Cleanup(context.Background(), job))
	assert.NoDirExists(t, scratch)
}

func TestJob_EnvList_Sorted(t *testing.T) {
	job := &Job{Env: map[string]string{"B": "2", "A": "1", "C": "3"}}
	assert.Equal(t, []string{"A=1", "B=2", "C=3"}, job.EnvList())
}

func TestShellCommand(t *testing.T) {
	job := &Job{}
	assert.Equal(t, "make test", shellCommand(job, "make test"))

	job.PathEntry = "/opt/conda/envs/ci/bin"
	assert.Equal(t, "PATH=/opt/conda/envs/ci/bin:$PATH; make test", shellCommand(job, "make test"))
}
