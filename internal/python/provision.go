// provision.go generates the default toolchain bootstrap commands for a
// job. These commands correspond to the conventional CI recipe for conda
// projects: fetch the Miniconda installer matching the interpreter major
// version, batch-install it, create a version-pinned conda environment,
// and install the project with its dev extras.
//
// The generated commands are only used when the pipeline file omits the
// corresponding phase; an explicit before_install/install in the file
// always wins.
package python

import (
	"fmt"
	"path"
)

const (
	// MinicondaBaseURL is the download location for Miniconda installers.
	MinicondaBaseURL = "https://repo.continuum.io/miniconda"

	// installerPython2 and installerPython3 are the two possible
	// installer filenames. InstallerFor resolves every supported version
	// to exactly one of them.
	installerPython2 = "Miniconda2-latest-Linux-x86_64.sh"
	installerPython3 = "Miniconda3-latest-Linux-x86_64.sh"

	// DefaultEnvName is the conda environment created for each job.
	DefaultEnvName = "test-environment"

	// DefaultPrefix is where Miniconda is installed inside the job's
	// HOME. Each job has its own HOME (container or scratch dir), so
	// parallel matrix jobs do not share a prefix.
	DefaultPrefix = "$HOME/miniconda"
)

// InstallerFor selects the Miniconda installer filename for an
// interpreter version. Python 2.x resolves to the Miniconda2 installer,
// Python 3.x to Miniconda3. ParseVersion guarantees there is no third
// case.
func InstallerFor(v Version) string {
	if v.IsPython2() {
		return installerPython2
	}
	return installerPython3
}

// InstallerURL returns the full download URL for the version's installer.
func InstallerURL(v Version) string {
	return MinicondaBaseURL + "/" + path.Base(InstallerFor(v))
}

// Toolchain describes the conda setup for one job.
type Toolchain struct {
	// Version is the job's interpreter version.
	Version Version

	// EnvName is the conda environment name. Defaults to DefaultEnvName.
	EnvName string

	// Prefix is the Miniconda install prefix. Defaults to DefaultPrefix.
	// The value is expanded by the job's shell, so it may reference
	// variables like $HOME.
	Prefix string
}

// NewToolchain creates a Toolchain for a version with default env name
// and prefix.
func NewToolchain(v Version) *Toolchain {
	return &Toolchain{Version: v, EnvName: DefaultEnvName, Prefix: DefaultPrefix}
}

// conda returns the absolute path of the conda binary under the prefix.
// Commands reference conda by absolute path rather than relying on PATH
// mutation surviving between steps: every step runs in a fresh shell.
func (t *Toolchain) conda() string {
	return t.Prefix + "/bin/conda"
}

// BootstrapSteps returns the default before_install commands: download
// and batch-install Miniconda, then bring conda itself up to date.
func (t *Toolchain) BootstrapSteps() []string {
	return []string{
		fmt.Sprintf("wget -q %s -O /tmp/miniconda.sh", InstallerURL(t.Version)),
		fmt.Sprintf("bash /tmp/miniconda.sh -b -p %s", t.Prefix),
		fmt.Sprintf("%s config --set always_yes yes --set changeps1 no", t.conda()),
		fmt.Sprintf("%s update -q conda", t.conda()),
		// conda info -a is diagnostic output for the job log.
		fmt.Sprintf("%s info -a", t.conda()),
		fmt.Sprintf("%s create -q -n %s python=%s", t.conda(), t.EnvName, t.Version),
	}
}

// InstallSteps returns the default install commands: install the project
// in editable mode with the dev extras group, using the conda
// environment's pip.
func (t *Toolchain) InstallSteps() []string {
	return []string{
		fmt.Sprintf("%s install -e .[dev]", t.pip()),
	}
}

// pip returns the absolute path of pip inside the conda environment.
func (t *Toolchain) pip() string {
	return fmt.Sprintf("%s/envs/%s/bin/pip", t.Prefix, t.EnvName)
}

// PathEntry returns the directory that must be prepended to PATH so that
// python, pip and the project's installed entry points resolve inside
// the conda environment. The executor injects this into every step's
// environment; steps cannot export PATH for each other.
func (t *Toolchain) PathEntry() string {
	return fmt.Sprintf("%s/envs/%s/bin", t.Prefix, t.EnvName)
}
