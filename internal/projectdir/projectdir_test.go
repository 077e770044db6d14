package projectdir

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePrefersHostEnvValue(t *testing.T) {
	got := Resolve("/from/host", t.TempDir())
	if got != "/from/host" {
		t.Fatalf("expected host value, got %q", got)
	}
}

func TestResolveFallsBackToNearestClaudeDirAncestor(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".claude"), 0700); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatal(err)
	}

	got := Resolve("", nested)
	resolvedRoot, _ := filepath.EvalSymlinks(root)
	resolvedGot, _ := filepath.EvalSymlinks(got)
	if resolvedGot != resolvedRoot {
		t.Fatalf("expected %q, got %q", root, got)
	}
}

func TestResolveFallsBackToCwdWhenNothingElseMatches(t *testing.T) {
	dir := t.TempDir()
	got := Resolve("", dir)
	// No git repo and no .claude ancestor in a fresh temp dir (best-effort:
	// this assumes the temp dir isn't itself inside a git worktree with a
	// .claude directory above it, true in CI sandboxes).
	if got == "" {
		t.Fatalf("expected a non-empty fallback")
	}
}
