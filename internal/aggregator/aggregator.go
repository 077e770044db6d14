// Package aggregator implements the Aggregator & Emitter (C8): picking the
// winning MappedResult and rendering it to the host per the emission
// contract of §4.8 and the structured-output wrapping rules of §6.
package aggregator

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cc-hooks/cchr/internal/hookconfig"
	"github.com/cc-hooks/cchr/internal/hookevent"
	"github.com/cc-hooks/cchr/internal/resultmap"
)

// Aggregate selects the winning result: most severe verdict first, then
// ascending priority, then ascending insertion order for ties (§4.8).
func Aggregate(results []resultmap.MappedResult) (resultmap.MappedResult, bool) {
	if len(results) == 0 {
		return resultmap.MappedResult{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		if wins(r, best) {
			best = r
		}
	}
	return best, true
}

func wins(a, b resultmap.MappedResult) bool {
	if a.Verdict != b.Verdict {
		return a.Verdict.Less(b.Verdict)
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.InsertionIndex < b.InsertionIndex
}

// Emit renders winner to stdout/stderr per §4.8 and returns the process exit
// code.
func Emit(stdout, stderr io.Writer, kind hookevent.Kind, winner resultmap.MappedResult) int {
	switch winner.Verdict {
	case hookconfig.VerdictBlockingError:
		fmt.Fprintln(stderr, winner.Message)
		if winner.FixInstructions != "" {
			fmt.Fprintln(stderr, winner.FixInstructions)
		}
		return 2

	case hookconfig.VerdictNonBlockingError:
		fmt.Fprintln(stderr, winner.Message)
		return 0

	default: // success
		if wrapped, ok := wrapForHost(kind, winner.Parsed); ok {
			if b, err := json.Marshal(wrapped); err == nil {
				stdout.Write(b)
				fmt.Fprintln(stdout)
				return 0
			}
		}
		if len(winner.RawStdout) > 0 {
			stdout.Write(winner.RawStdout)
		}
		return 0
	}
}

// wrapForHost applies the §6 structured-output wrapping rules: PreToolUse
// permissionDecision, and UserPromptSubmit/SessionStart additionalContext.
// Unconsumed fields (other than the wrapped ones and the deprecated
// decision/reason pair) are copied verbatim onto the output object.
func wrapForHost(kind hookevent.Kind, parsed map[string]interface{}) (map[string]interface{}, bool) {
	if parsed == nil {
		return nil, false
	}

	switch kind {
	case hookevent.KindPreToolUse:
		decision, ok := parsed["permissionDecision"]
		if !ok {
			return nil, false
		}
		hookSpecific := map[string]interface{}{
			"hookEventName":     string(kind),
			"permissionDecision": decision,
		}
		if reason, ok := parsed["permissionDecisionReason"]; ok {
			hookSpecific["permissionDecisionReason"] = reason
		}
		consumed := map[string]bool{
			"permissionDecision":       true,
			"permissionDecisionReason": true,
			"decision":                 true,
			"reason":                   true,
		}
		return mergeVerbatim(hookSpecific, parsed, consumed), true

	case hookevent.KindUserPromptSubmit, hookevent.KindSessionStart:
		ctx, ok := parsed["additionalContext"]
		if !ok {
			return nil, false
		}
		hookSpecific := map[string]interface{}{
			"hookEventName":     string(kind),
			"additionalContext": ctx,
		}
		consumed := map[string]bool{
			"additionalContext": true,
			"decision":          true,
			"reason":            true,
		}
		return mergeVerbatim(hookSpecific, parsed, consumed), true

	default:
		return nil, false
	}
}

func mergeVerbatim(hookSpecific map[string]interface{}, parsed map[string]interface{}, consumed map[string]bool) map[string]interface{} {
	out := map[string]interface{}{"hookSpecificOutput": hookSpecific}
	for k, v := range parsed {
		if !consumed[k] {
			out[k] = v
		}
	}
	return out
}
