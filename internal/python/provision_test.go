package python

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInstallerFor verifies that every supported version resolves to
// exactly one of the two installer filenames, keyed on the major version.
func TestInstallerFor(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"2.7", "Miniconda2-latest-Linux-x86_64.sh"},
		{"3.5", "Miniconda3-latest-Linux-x86_64.sh"},
		{"3.6", "Miniconda3-latest-Linux-x86_64.sh"},
		{"3.6.8", "Miniconda3-latest-Linux-x86_64.sh"},
	}

	for _, tt := range tests {
		got := InstallerFor(MustParseVersion(tt.version))
		assert.Equal(t, tt.want, got, "installer for python %s", tt.version)
	}
}

func TestInstallerURL(t *testing.T) {
	url := InstallerURL(MustParseVersion("2.7"))
	assert.Equal(t, "https://repo.continuum.io/miniconda/Miniconda2-latest-Linux-x86_64.sh", url)
}

func TestToolchain_BootstrapSteps(t *testing.T) {
	tc := NewToolchain(MustParseVersion("3.6"))
	steps := tc.BootstrapSteps()
	require.Len(t, steps, 6)

	// Download + install come first.
	assert.Contains(t, steps[0], "Miniconda3-latest-Linux-x86_64.sh")
	assert.Contains(t, steps[0], "wget -q")
	assert.Equal(t, "bash /tmp/miniconda.sh -b -p $HOME/miniconda", steps[1])

	// conda is addressed by absolute path in every subsequent step:
	// steps run in separate shells, so PATH exports would not persist.
	for _, step := range steps[2:] {
		assert.True(t, strings.HasPrefix(step, "$HOME/miniconda/bin/conda "),
			"step %q should invoke conda by absolute path", step)
	}

	// The env create step pins the matrix version.
	assert.Equal(t, "$HOME/miniconda/bin/conda create -q -n test-environment python=3.6", steps[5])
}

func TestToolchain_InstallSteps(t *testing.T) {
	tc := NewToolchain(MustParseVersion("2.7"))
	steps := tc.InstallSteps()
	require.Len(t, steps, 1)
	assert.Equal(t, "$HOME/miniconda/envs/test-environment/bin/pip install -e .[dev]", steps[0])
}

func TestToolchain_PathEntry(t *testing.T) {
	tc := NewToolchain(MustParseVersion("3.5"))
	assert.Equal(t, "$HOME/miniconda/envs/test-environment/bin", tc.PathEntry())

	// Custom prefix and env name flow through.
	tc = &Toolchain{Version: MustParseVersion("3.5"), EnvName: "ci", Prefix: "/opt/conda"}
	assert.Equal(t, "/opt/conda/envs/ci/bin", tc.PathEntry())
}
