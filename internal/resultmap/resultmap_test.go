package resultmap

import (
	"testing"

	"github.com/cc-hooks/cchr/internal/hookconfig"
	"github.com/cc-hooks/cchr/internal/hookrunner"
)

func intPtr(n int) *int { return &n }

func textHook(exitCodeMap map[string]hookconfig.Verdict, message string) hookconfig.HookDefinition {
	return hookconfig.HookDefinition{
		Name:        "e",
		Format:      hookconfig.FormatText,
		ExitCodeMap: exitCodeMap,
		Message:     message,
	}
}

func TestTextContractExitCodeRoundTrip(t *testing.T) {
	hook := textHook(map[string]hookconfig.Verdict{
		"0":       hookconfig.VerdictSuccess,
		"2":       hookconfig.VerdictBlockingError,
		"default": hookconfig.VerdictNonBlockingError,
	}, "blocked")

	cases := []struct {
		code    int
		verdict hookconfig.Verdict
	}{
		{0, hookconfig.VerdictSuccess},
		{2, hookconfig.VerdictBlockingError},
		{99, hookconfig.VerdictNonBlockingError},
	}
	for _, c := range cases {
		result := Map(hook, hookrunner.Outcome{ExitCode: intPtr(c.code)})
		if result.Verdict != c.verdict {
			t.Errorf("code %d: expected %s, got %s", c.code, c.verdict, result.Verdict)
		}
	}
}

func TestTextContractFallsBackToConvention(t *testing.T) {
	hook := textHook(nil, "")
	result := Map(hook, hookrunner.Outcome{ExitCode: intPtr(2)})
	if result.Verdict != hookconfig.VerdictBlockingError {
		t.Fatalf("expected blocking-error by convention, got %s", result.Verdict)
	}
}

func TestTextContractAppendsTimeoutQualifier(t *testing.T) {
	hook := textHook(map[string]hookconfig.Verdict{"default": hookconfig.VerdictNonBlockingError}, "slow hook")
	result := Map(hook, hookrunner.Outcome{ExitCode: intPtr(1), TimedOut: true})
	if result.Message != "slow hook (timed out)" {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}

func structuredHook() hookconfig.HookDefinition {
	return hookconfig.HookDefinition{Name: "guard", Format: hookconfig.FormatStructured}
}

func TestStructuredContinueFalseOverridesExitCode(t *testing.T) {
	result := Map(structuredHook(), hookrunner.Outcome{
		ExitCode: intPtr(0),
		Stdout:   []byte(`{"continue":false,"stopReason":"disallowed"}`),
	})
	if result.Verdict != hookconfig.VerdictBlockingError {
		t.Fatalf("expected blocking-error, got %s", result.Verdict)
	}
	if result.Message != "disallowed" {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}

func TestStructuredDecisionBlock(t *testing.T) {
	result := Map(structuredHook(), hookrunner.Outcome{
		ExitCode: intPtr(0),
		Stdout:   []byte(`{"decision":"block","reason":"nope"}`),
	})
	if result.Verdict != hookconfig.VerdictBlockingError || result.Message != "nope" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestStructuredParseFailureKeepsExitCodeVerdict(t *testing.T) {
	result := Map(structuredHook(), hookrunner.Outcome{
		ExitCode: intPtr(0),
		Stdout:   []byte(`not json`),
	})
	if result.Verdict != hookconfig.VerdictSuccess {
		t.Fatalf("expected success from exit code, got %s", result.Verdict)
	}
	if string(result.RawStdout) != "not json" {
		t.Fatalf("expected raw bytes retained")
	}
}

func TestStructuredDiagnosticReportBlockingControlFlow(t *testing.T) {
	result := Map(structuredHook(), hookrunner.Outcome{
		ExitCode: intPtr(0),
		Stdout:   []byte(`{"success":false,"findings":[{"file":"a.go","line":3,"message":"bad","severity":"error"}],"controlFlow":{"decision":"block","reason":"must fix"}}`),
	})
	if result.Verdict != hookconfig.VerdictBlockingError {
		t.Fatalf("expected blocking-error, got %s", result.Verdict)
	}
	if result.Diagnostics == nil || len(result.Diagnostics.Findings) != 1 {
		t.Fatalf("expected diagnostics with one finding, got %+v", result.Diagnostics)
	}
}

func TestStructuredDiagnosticReportSuccessFalseNoControlFlow(t *testing.T) {
	result := Map(structuredHook(), hookrunner.Outcome{
		ExitCode: intPtr(0),
		Stdout:   []byte(`{"success":false,"findings":[]}`),
	})
	if result.Verdict != hookconfig.VerdictNonBlockingError {
		t.Fatalf("expected non-blocking-error, got %s", result.Verdict)
	}
}

func TestStructuredNeverRelaxesBelowExitCodeVerdict(t *testing.T) {
	// Exit code 2 => blocking-error by convention; the DiagnosticReport says
	// success, which must not relax the already-blocking verdict.
	result := Map(structuredHook(), hookrunner.Outcome{
		ExitCode: intPtr(2),
		Stdout:   []byte(`{"success":true,"findings":[]}`),
	})
	if result.Verdict != hookconfig.VerdictBlockingError {
		t.Fatalf("expected blocking-error preserved, got %s", result.Verdict)
	}
}

func TestSpawnErrForcesNonBlockingError(t *testing.T) {
	result := Map(structuredHook(), hookrunner.Outcome{SpawnErr: errSentinel})
	if result.Verdict != hookconfig.VerdictNonBlockingError {
		t.Fatalf("expected non-blocking-error for spawn failure, got %s", result.Verdict)
	}
}

var errSentinel = fakeErr("boom")

type fakeErr string

func (f fakeErr) Error() string { return string(f) }
