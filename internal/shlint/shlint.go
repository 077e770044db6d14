// Package shlint provides an advisory, best-effort shell-syntax check for a
// hook's command array, gated behind --lint-command (§11). It never changes
// how a hook is spawned: argv is still passed directly to exec, never
// through a shell, regardless of what this package reports (§9).
package shlint

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Check inspects a hook's command array. When command[0] is "sh" and
// command[1] is "-c", the remaining argument is parsed as a shell script and
// any syntax error is returned for display; this never blocks the hook, it
// only surfaces an early warning before it would otherwise fail silently or
// confusingly inside the child.
func Check(command []string) error {
	if len(command) < 3 {
		return nil
	}
	if command[0] != "sh" || command[1] != "-c" {
		return nil
	}

	script := strings.Join(command[2:], " ")
	parser := syntax.NewParser()
	if _, err := parser.Parse(strings.NewReader(script), ""); err != nil {
		return fmt.Errorf("shell syntax: %w", err)
	}
	return nil
}
