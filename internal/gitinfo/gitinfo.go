// Package gitinfo collects Git metadata about the project under test.
//
// Hosted CI runners expose the build's branch, commit, and repository
// slug to build scripts through environment variables. convoy does the
// same for local runs: when the project directory is a Git checkout,
// the runner injects CONVOY_BRANCH, CONVOY_COMMIT, and CONVOY_REPO_SLUG
// into every job's environment.
//
// The package shells out to the git CLI rather than using a Go Git
// library: rev-parse covers everything needed and the CLI is already a
// hard requirement of any checkout convoy would run against.
package gitinfo

import (
	"fmt"
	"os/exec"
	"strings"
)

// Info holds the Git metadata of a checkout. Fields are empty when the
// corresponding data is unavailable (e.g. no remote configured).
type Info struct {
	// Branch is the short name of the checked-out branch, or "HEAD"
	// in a detached state.
	Branch string

	// Commit is the full SHA of HEAD.
	Commit string

	// Slug is "owner/name" derived from the origin remote URL.
	// Empty when no origin remote exists or its URL is unrecognized.
	Slug string
}

// Collect gathers Git metadata for the checkout containing dir.
// Returns an error only when dir is not inside a Git working tree;
// missing optional data (remote slug) degrades to empty fields.
func Collect(dir string) (*Info, error) {
	if _, err := runGit(dir, "rev-parse", "--show-toplevel"); err != nil {
		return nil, fmt.Errorf("not a Git repository: %s", dir)
	}

	info := &Info{}

	if out, err := runGit(dir, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		info.Branch = strings.TrimSpace(out)
	}
	if out, err := runGit(dir, "rev-parse", "HEAD"); err == nil {
		info.Commit = strings.TrimSpace(out)
	}
	if out, err := runGit(dir, "remote", "get-url", "origin"); err == nil {
		info.Slug = SlugFromRemote(strings.TrimSpace(out))
	}

	return info, nil
}

// IsRepo reports whether dir is inside a Git working tree.
func IsRepo(dir string) bool {
	_, err := runGit(dir, "rev-parse", "--show-toplevel")
	return err == nil
}

// SlugFromRemote derives an "owner/name" slug from a Git remote URL.
// Both SSH and HTTPS forms are recognized:
//
//	git@github.com:owner/name.git    → owner/name
//	https://github.com/owner/name    → owner/name
//
// Returns "" for URLs that don't yield exactly owner/name.
func SlugFromRemote(url string) string {
	s := strings.TrimSuffix(url, ".git")

	// SSH form: everything after the colon.
	if at := strings.Index(s, "@"); at >= 0 && !strings.Contains(s, "://") {
		if colon := strings.Index(s, ":"); colon >= 0 {
			s = s[colon+1:]
		}
	} else if scheme := strings.Index(s, "://"); scheme >= 0 {
		// HTTPS form: strip scheme and host.
		s = s[scheme+3:]
		if slash := strings.Index(s, "/"); slash >= 0 {
			s = s[slash+1:]
		} else {
			return ""
		}
	}

	s = strings.Trim(s, "/")
	if parts := strings.Split(s, "/"); len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return s
	}
	return ""
}

// runGit executes a git command in the given directory and returns its
// combined output. The output is included in the error on failure, as
// git writes diagnostics to stderr.
func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %s: %w",
			strings.Join(args, " "), strings.TrimSpace(string(output)), err)
	}
	return string(output), nil
}
