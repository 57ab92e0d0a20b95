// Package python implements interpreter version handling and Miniconda
// toolchain provisioning for matrix jobs.
//
// A pipeline declares interpreter versions as strings ("2.7", "3.6").
// This package parses them, and generates the default bootstrap commands
// a job runs when the pipeline file does not supply its own
// before_install/install phases: download the matching Miniconda
// installer, install it, create a conda environment pinned to the job's
// version, and install the project in editable mode.
package python

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed interpreter version from the pipeline matrix.
// The original string form is preserved so "3.0" does not collapse to "3".
type Version struct {
	// Major is the interpreter major version (2 or 3).
	Major int

	// Minor is the interpreter minor version.
	Minor int

	// Patch is the optional patch version. -1 if absent.
	Patch int

	// raw is the version string exactly as declared in the matrix.
	raw string
}

// ParseVersion parses a matrix version string of the form
// MAJOR.MINOR[.PATCH]. The major version must be 2 or 3.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, fmt.Errorf("python version must not be empty")
	}

	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid python version %q: expected MAJOR.MINOR[.PATCH]", s)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("invalid python version %q: major part is not a number", s)
	}
	if major != 2 && major != 3 {
		return Version{}, fmt.Errorf("invalid python version %q: major version must be 2 or 3", s)
	}

	minor, err := strconv.Atoi(parts[1])
	if err != nil || minor < 0 {
		return Version{}, fmt.Errorf("invalid python version %q: minor part is not a number", s)
	}

	patch := -1
	if len(parts) == 3 {
		patch, err = strconv.Atoi(parts[2])
		if err != nil || patch < 0 {
			return Version{}, fmt.Errorf("invalid python version %q: patch part is not a number", s)
		}
	}

	return Version{Major: major, Minor: minor, Patch: patch, raw: s}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
// For use in tests and package-level defaults only.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version exactly as it was declared in the matrix.
func (v Version) String() string {
	return v.raw
}

// IsPython2 reports whether this is a Python 2.x version.
func (v Version) IsPython2() bool {
	return v.Major == 2
}

// Compare returns -1, 0 or 1 depending on whether v is older than,
// equal to, or newer than other. The patch part is compared with an
// absent patch (-1) sorting before ".0".
func (v Version) Compare(other Version) int {
	if c := cmp(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp(v.Minor, other.Minor); c != 0 {
		return c
	}
	return cmp(v.Patch, other.Patch)
}

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
