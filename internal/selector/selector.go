// Package selector implements the Hook Selector (C3): filtering hooks by
// event kind and per-event match value, then ordering the survivors.
package selector

import (
	"regexp"
	"sort"

	"github.com/cc-hooks/cchr/internal/hookconfig"
)

// Select returns the hooks eligible for this invocation, ordered ascending
// by priority with insertion-order tie-breaking (§4.3).
func Select(cfg *hookconfig.Config, kind hookconfig.EventKind, matchValue string, hasMatch bool) []hookconfig.HookDefinition {
	var eligible []hookconfig.HookDefinition
	for _, h := range cfg.HooksForEvent(kind) {
		if matches(h.Matcher, matchValue, hasMatch, kind) {
			eligible = append(eligible, h)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority < eligible[j].Priority
		}
		return eligible[i].InsertionIndex() < eligible[j].InsertionIndex()
	})
	return eligible
}

// matches implements the matcher semantics of §4.3. Absent matcher, empty
// string, or literal "*" match everything. Tool events treat the matcher as
// a regular expression, anchoring it if it contains neither ^ nor $, and
// falling back to literal equality if compilation fails (matcher safety,
// §8). Trigger/source events use literal string equality only.
func matches(matcher, value string, hasMatch bool, kind hookconfig.EventKind) bool {
	if matcher == "" || matcher == "*" {
		return true
	}
	if !hasMatch {
		// Event kinds with no match value (Stop, SubagentStop, UserPromptSubmit,
		// Notification) are eligible regardless of a declared matcher: there is
		// nothing for it to filter against.
		return true
	}

	if isToolEvent(kind) {
		pattern := matcher
		if !containsAnchor(pattern) {
			pattern = "^" + pattern + "$"
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return matcher == value
		}
		return re.MatchString(value)
	}

	return matcher == value
}

func isToolEvent(kind hookconfig.EventKind) bool {
	return kind == "PreToolUse" || kind == "PostToolUse"
}

func containsAnchor(pattern string) bool {
	for _, r := range pattern {
		if r == '^' || r == '$' {
			return true
		}
	}
	return false
}
