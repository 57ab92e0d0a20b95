package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "convoy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err, "explicit missing settings file must fail")

	s, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ExecutorAuto, s.Executor)
	assert.Equal(t, 0, s.Concurrency, "unset concurrency means one worker per job")
	assert.Equal(t, "/bin/sh", s.Shell)
	assert.Equal(t, "python:%s-slim", s.Docker.ImagePattern)
	assert.False(t, s.Docker.KeepContainers)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeSettingsFile(t, `
executor: docker
concurrency: 4
docker:
  image_pattern: "registry.local/python:%s"
  images:
    "2.7": my/py27:latest
`)

	s, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ExecutorDocker, s.Executor)
	assert.Equal(t, 4, s.Concurrency)
	assert.Equal(t, "registry.local/python:%s", s.Docker.ImagePattern)
	assert.Equal(t, "my/py27:latest", s.Docker.Images["2.7"])
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeSettingsFile(t, "executor: local\n")
	t.Setenv("CONVOY_EXECUTOR", "docker")
	t.Setenv("CONVOY_DOCKER_IMAGE_PATTERN", "python:%s-bookworm")
	t.Setenv("CONVOY_DOCKER_KEEP_CONTAINERS", "true")

	s, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ExecutorDocker, s.Executor)
	assert.Equal(t, "python:%s-bookworm", s.Docker.ImagePattern)
	assert.True(t, s.Docker.KeepContainers)
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	path := writeSettingsFile(t, "executor: docker\nconcurrency: 4\n")
	t.Setenv("CONVOY_CONCURRENCY", "8")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--concurrency", "2"}))

	s, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Concurrency, "set flag wins over env and file")
	assert.Equal(t, ExecutorDocker, s.Executor, "unset flag defaults must not clobber the file")
}

func TestLoadInvalidExecutor(t *testing.T) {
	path := writeSettingsFile(t, "executor: kubernetes\n")

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid executor")
}

func TestLoadClampsConcurrency(t *testing.T) {
	path := writeSettingsFile(t, "concurrency: -3\n")

	s, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Concurrency)
}
