// Package testutil sets up scratch git repositories for tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Run executes a command in dir and fails the test on error. The output is
// returned trimmed so it compares cleanly against expected strings.
func Run(t *testing.T, dir string, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v failed: %v\n%s", name, args, err, out)
	}
	return strings.TrimSpace(string(out))
}

// Git runs a git command in dir and fails the test on error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	return Run(t, dir, "git", args...)
}

// InitRepo creates a git repository with one initial commit on master and
// returns its path.
func InitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	Git(t, dir, "init", "-b", "master")
	Git(t, dir, "config", "user.email", "test@example.com")
	Git(t, dir, "config", "user.name", "test")
	Git(t, dir, "config", "commit.gpgsign", "false")
	WriteFile(t, dir, "README", "initial\n")
	Git(t, dir, "add", "README")
	Git(t, dir, "commit", "-m", "initial commit")
	return dir
}

// InitBareRemote creates a bare repository seeded from repo's master branch
// and registers it as the "origin" remote of repo.
func InitBareRemote(t *testing.T, repo string) string {
	t.Helper()
	remote := t.TempDir()
	Git(t, remote, "init", "--bare", "-b", "master")
	Git(t, repo, "remote", "add", "origin", remote)
	Git(t, repo, "push", "origin", "master")
	return remote
}

// WriteFile writes content to a file under dir.
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// CommitFile writes content to a file and commits it.
func CommitFile(t *testing.T, dir, name, content, message string) {
	t.Helper()
	WriteFile(t, dir, name, content)
	Git(t, dir, "add", name)
	Git(t, dir, "commit", "-m", message)
}

// ReadFile returns the content of a file under dir.
func ReadFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}
