// Package resultmap implements the Result Mapper (C7): turning a single
// HookRunOutcome into a flow-control verdict under one of the two hook
// contracts (text or structured).
package resultmap

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cc-hooks/cchr/internal/hookconfig"
	"github.com/cc-hooks/cchr/internal/hookrunner"
)

// Finding is one entry of a DiagnosticReport's findings array.
type Finding struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ControlFlow is the optional controlFlow sub-object of a DiagnosticReport.
type ControlFlow struct {
	Continue *bool  `json:"continue,omitempty"`
	Reason   string `json:"reason"`
	Decision string `json:"decision,omitempty"`
}

// DiagnosticReport is the structural shape recognized in addition to the
// decision/continue keys (§4.7).
type DiagnosticReport struct {
	Success     bool
	Findings    []Finding
	ControlFlow *ControlFlow
}

// MappedResult is the verdict and supporting material the Aggregator needs
// to pick a winner and render output.
type MappedResult struct {
	HookName        string
	Verdict         hookconfig.Verdict
	Message         string
	FixInstructions string
	RawStdout       []byte
	Parsed          map[string]interface{}
	Diagnostics     *DiagnosticReport
	TimedOut        bool
	Truncated       bool
	Priority        int
	InsertionIndex  int
}

// Map applies the contract named by hook.Format to outcome.
func Map(hook hookconfig.HookDefinition, outcome hookrunner.Outcome) MappedResult {
	base := MappedResult{
		HookName:       hook.Name,
		RawStdout:      outcome.Stdout,
		TimedOut:       outcome.TimedOut,
		Truncated:      outcome.Truncated,
		Priority:       hook.Priority,
		InsertionIndex: hook.InsertionIndex(),
	}

	if outcome.SpawnErr != nil {
		base.Verdict = hookconfig.VerdictNonBlockingError
		base.Message = fmt.Sprintf("hook %q failed to run: %v", hook.Name, outcome.SpawnErr)
		return base
	}

	switch hook.Format {
	case hookconfig.FormatText:
		return mapText(hook, outcome, base)
	default:
		return mapStructured(hook, outcome, base)
	}
}

func mapText(hook hookconfig.HookDefinition, outcome hookrunner.Outcome, base MappedResult) MappedResult {
	verdict, ok := lookupExitCodeMap(hook.ExitCodeMap, outcome.ExitCode)
	if !ok {
		verdict = conventionVerdict(outcome.ExitCode)
	}

	message := hook.Message
	if outcome.TimedOut {
		message = appendQualifier(message, "timed out")
	}
	if outcome.Truncated {
		message = appendQualifier(message, "output truncated")
	}

	base.Verdict = verdict
	base.Message = message
	base.FixInstructions = hook.FixInstructions
	return base
}

func lookupExitCodeMap(m map[string]hookconfig.Verdict, code *int) (hookconfig.Verdict, bool) {
	if m == nil {
		return "", false
	}
	if code != nil {
		if v, ok := m[strconv.Itoa(*code)]; ok {
			return v, true
		}
	}
	if v, ok := m["default"]; ok {
		return v, true
	}
	return "", false
}

// conventionVerdict applies the 0/2/else fallback. A nil code (killed by
// signal, no exit status) is treated as "anything else".
func conventionVerdict(code *int) hookconfig.Verdict {
	if code == nil {
		return hookconfig.VerdictNonBlockingError
	}
	switch *code {
	case 0:
		return hookconfig.VerdictSuccess
	case 2:
		return hookconfig.VerdictBlockingError
	default:
		return hookconfig.VerdictNonBlockingError
	}
}

func appendQualifier(message, qualifier string) string {
	if message == "" {
		return fmt.Sprintf("(%s)", qualifier)
	}
	return fmt.Sprintf("%s (%s)", message, qualifier)
}

func mapStructured(hook hookconfig.HookDefinition, outcome hookrunner.Outcome, base MappedResult) MappedResult {
	verdict := conventionVerdict(outcome.ExitCode)
	message := ""

	var parsed map[string]interface{}
	if len(outcome.Stdout) > 0 {
		if err := json.Unmarshal(outcome.Stdout, &parsed); err == nil {
			base.Parsed = parsed

			if decision, ok := stringField(parsed, "decision"); ok {
				switch decision {
				case "block":
					verdict = strengthen(verdict, hookconfig.VerdictBlockingError)
					message = firstNonEmpty(stringFieldOr(parsed, "reason"), stringFieldOr(parsed, "message"))
				case "non-blocking-error":
					verdict = strengthen(verdict, hookconfig.VerdictNonBlockingError)
				}
			}

			if cont, ok := parsed["continue"]; ok {
				if b, ok := cont.(bool); ok && !b {
					verdict = strengthen(verdict, hookconfig.VerdictBlockingError)
					if message == "" {
						message = stringFieldOr(parsed, "stopReason")
					}
				}
			}

			if report, ok := parseDiagnosticReport(parsed); ok {
				base.Diagnostics = report
				var diagVerdict hookconfig.Verdict
				switch {
				case report.ControlFlow != nil && report.ControlFlow.Decision == "block":
					diagVerdict = hookconfig.VerdictBlockingError
				case !report.Success:
					diagVerdict = hookconfig.VerdictNonBlockingError
				default:
					diagVerdict = hookconfig.VerdictSuccess
				}
				verdict = strengthen(verdict, diagVerdict)
				if message == "" && report.ControlFlow != nil {
					message = report.ControlFlow.Reason
				}
			}
		}
		// Parse failure is not an error (§4.7): the exit-code-derived verdict
		// stands and the raw bytes remain in base.RawStdout for the Emitter.
	}

	if outcome.TimedOut {
		message = appendQualifier(message, "timed out")
		verdict = strengthen(verdict, hookconfig.VerdictNonBlockingError)
	}
	if outcome.Truncated {
		message = appendQualifier(message, "output truncated")
	}

	base.Verdict = verdict
	base.Message = message
	return base
}

// strengthen returns whichever of current/candidate is the more severe
// verdict, per the "later rules may strengthen, never relax" design note.
func strengthen(current, candidate hookconfig.Verdict) hookconfig.Verdict {
	if candidate.Less(current) {
		return candidate
	}
	return current
}

func stringField(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func stringFieldOr(m map[string]interface{}, key string) string {
	s, _ := stringField(m, key)
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseDiagnosticReport checks the structural shape of §4.7: a boolean
// "success", a "findings" array of {file,line,message,severity}, and an
// optional "controlFlow" sub-object. Any deviation fails the match.
func parseDiagnosticReport(m map[string]interface{}) (*DiagnosticReport, bool) {
	successRaw, ok := m["success"]
	if !ok {
		return nil, false
	}
	success, ok := successRaw.(bool)
	if !ok {
		return nil, false
	}

	findingsRaw, ok := m["findings"]
	if !ok {
		return nil, false
	}
	items, ok := findingsRaw.([]interface{})
	if !ok {
		return nil, false
	}

	findings := make([]Finding, 0, len(items))
	for _, item := range items {
		fm, ok := item.(map[string]interface{})
		if !ok {
			return nil, false
		}
		file, ok := stringField(fm, "file")
		if !ok {
			return nil, false
		}
		lineRaw, ok := fm["line"]
		if !ok {
			return nil, false
		}
		lineNum, ok := lineRaw.(float64)
		if !ok {
			return nil, false
		}
		msg, ok := stringField(fm, "message")
		if !ok {
			return nil, false
		}
		severity, ok := stringField(fm, "severity")
		if !ok || (severity != "error" && severity != "warning") {
			return nil, false
		}
		findings = append(findings, Finding{File: file, Line: int(lineNum), Message: msg, Severity: severity})
	}

	report := &DiagnosticReport{Success: success, Findings: findings}

	if cfRaw, ok := m["controlFlow"]; ok {
		cfm, ok := cfRaw.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cf := &ControlFlow{Reason: stringFieldOr(cfm, "reason")}
		if decision, ok := stringField(cfm, "decision"); ok {
			cf.Decision = decision
		}
		if contRaw, ok := cfm["continue"]; ok {
			if b, ok := contRaw.(bool); ok {
				cf.Continue = &b
			}
		}
		report.ControlFlow = cf
	}

	return report, true
}
