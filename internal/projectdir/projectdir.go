// Package projectdir resolves CLAUDE_PROJECT_DIR for the environment handed
// to every hook child (§6).
package projectdir

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// gitTimeout bounds the git rev-parse shell-out, grounded on the teacher's
// own bounded exec.CommandContext pattern for git subprocess calls.
const gitTimeout = 3 * time.Second

// execCommandContext is overridden in tests.
var execCommandContext = exec.CommandContext

// Resolve returns CLAUDE_PROJECT_DIR, trying in order: the host-provided
// env var, `git rev-parse --show-toplevel` from cwd, the nearest ancestor
// directory containing a `.claude` directory, and finally cwd itself (§6).
func Resolve(hostEnvValue, cwd string) string {
	if hostEnvValue != "" {
		return hostEnvValue
	}
	if top, err := gitToplevel(cwd); err == nil && top != "" {
		return top
	}
	if dir, ok := nearestAncestorWithClaudeDir(cwd); ok {
		return dir
	}
	return cwd
}

func gitToplevel(cwd string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	cmd := execCommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = cwd
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ctx.Err()
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func nearestAncestorWithClaudeDir(cwd string) (string, bool) {
	dir := cwd
	for {
		info, err := os.Stat(filepath.Join(dir, ".claude"))
		if err == nil && info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
