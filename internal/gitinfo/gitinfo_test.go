package gitinfo

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo creates a temporary Git repository with a single commit.
// User identity is configured repo-locally so `git commit` works in
// environments without a global Git configuration.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	runTestGit(t, dir, "init", "-b", "main")
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")

	readme := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("# test\n"), 0644))

	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "initial commit")

	return dir
}

// runTestGit runs a git command in dir and fails the test on error.
func runTestGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, output)
}

func TestCollect(t *testing.T) {
	dir := setupTestRepo(t)
	runTestGit(t, dir, "remote", "add", "origin", "git@github.com:acme/widget.git")

	info, err := Collect(dir)
	require.NoError(t, err)

	assert.Equal(t, "main", info.Branch)
	assert.Len(t, info.Commit, 40, "commit should be a full SHA")
	assert.Equal(t, "acme/widget", info.Slug)
}

func TestCollect_NoRemote(t *testing.T) {
	dir := setupTestRepo(t)

	info, err := Collect(dir)
	require.NoError(t, err)
	assert.Equal(t, "main", info.Branch)
	assert.Empty(t, info.Slug, "missing origin degrades to an empty slug")
}

func TestCollect_NotARepo(t *testing.T) {
	_, err := Collect(t.TempDir())
	assert.Error(t, err)
}

func TestIsRepo(t *testing.T) {
	assert.True(t, IsRepo(setupTestRepo(t)))
	assert.False(t, IsRepo(t.TempDir()))
}

func TestSlugFromRemote(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"git@github.com:acme/widget.git", "acme/widget"},
		{"git@github.com:acme/widget", "acme/widget"},
		{"https://github.com/acme/widget.git", "acme/widget"},
		{"https://github.com/acme/widget", "acme/widget"},
		{"ssh://git@github.com/acme/widget.git", "acme/widget"},
		{"https://example.com/just-one-part", ""},
		{"not a url", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SlugFromRemote(tt.url), "url %q", tt.url)
	}
}
