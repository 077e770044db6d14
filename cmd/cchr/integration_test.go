package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	cchrconfig "github.com/cc-hooks/cchr/internal/config"
)

// writeHookConfig marshals hooks into a cchooks.json-shaped file and returns
// its path, mirroring the on-disk schema of §6.
func writeHookConfig(t *testing.T, dir string, hooks []map[string]interface{}) string {
	t.Helper()
	path := filepath.Join(dir, "cchooks.json")
	data, err := json.Marshal(map[string]interface{}{"hooks": hooks})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeMockData writes the fields runOrchestrator's --mock-data path folds
// into the synthesized event.
func writeMockData(t *testing.T, dir string, fields map[string]interface{}) string {
	t.Helper()
	path := filepath.Join(dir, "event.json")
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runOrchestratorCapturing drives runOrchestrator through the package-level
// flag variables cobra would otherwise populate, capturing stdout/stderr the
// way the teacher's own os.Pipe-swap integration tests do (see
// cli/cmd/ao/integration_test.go's TestIntegration_SessionCloseOutput).
func runOrchestratorCapturing(t *testing.T) (stdout, stderr string, runErr error) {
	t.Helper()

	oldStdout, oldStderr := os.Stdout, os.Stderr
	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout, os.Stderr = outW, errW

	runErr = runOrchestrator(runCmd, nil)

	_ = outW.Close()
	_ = errW.Close()
	os.Stdout, os.Stderr = oldStdout, oldStderr

	outBytes, _ := io.ReadAll(outR)
	errBytes, _ := io.ReadAll(errR)
	return string(outBytes), string(errBytes), runErr
}

func resetRunFlags(t *testing.T, logsDir string) {
	t.Helper()
	cfgFile = ""
	mockEventKind = ""
	mockDataPath = ""
	lintCommand = false
	debugFlag = false
	log = zerolog.New(io.Discard).Level(zerolog.Disabled)
	resolvedSettings = cchrconfig.Resolve(false, logsDir)
}

func TestIntegrationRunOrchestratorTextHookBlocks(t *testing.T) {
	dir := t.TempDir()
	cfgFile = writeHookConfig(t, dir, []map[string]interface{}{
		{
			"name":          "policy-gate",
			"command":       []string{"sh", "-c", "cat >/dev/null; exit 2"},
			"events":        []string{"PreToolUse"},
			"output_format": "text",
			"exit_code_map": map[string]string{"0": "success", "2": "blocking-error"},
			"message":       "blocked by policy",
		},
	})
	resetRunFlags(t, filepath.Join(dir, "logs"))
	cfgFile = filepath.Join(dir, "cchooks.json")

	mockEventKind = "PreToolUse"
	mockDataPath = writeMockData(t, dir, map[string]interface{}{
		"session_id": "text-hook-session",
		"cwd":        dir,
		"tool_name":  "Bash",
	})

	_, stderr, runErr := runOrchestratorCapturing(t)

	ee, ok := runErr.(errExit)
	if !ok {
		t.Fatalf("expected errExit, got %v (%T)", runErr, runErr)
	}
	if ee.code != 2 {
		t.Fatalf("expected exit code 2, got %d", ee.code)
	}
	if !strings.Contains(stderr, "blocked by policy") {
		t.Fatalf("expected stderr to carry the hook message, got %q", stderr)
	}
}

func TestIntegrationRunOrchestratorStructuredHookSucceeds(t *testing.T) {
	dir := t.TempDir()
	writeHookConfig(t, dir, []map[string]interface{}{
		{
			"name":          "structured-ok",
			"command":       []string{"sh", "-c", "cat >/dev/null; printf '%s' '{\"continue\":true}'"},
			"events":        []string{"PostToolUse"},
			"output_format": "structured",
		},
	})
	resetRunFlags(t, filepath.Join(dir, "logs"))
	cfgFile = filepath.Join(dir, "cchooks.json")

	mockEventKind = "PostToolUse"
	mockDataPath = writeMockData(t, dir, map[string]interface{}{
		"session_id": "structured-hook-session",
		"cwd":        dir,
		"tool_name":  "Write",
	})

	stdout, _, runErr := runOrchestratorCapturing(t)

	if runErr != nil {
		t.Fatalf("expected success, got %v", runErr)
	}
	if !strings.Contains(stdout, `"continue":true`) {
		t.Fatalf("expected raw structured stdout to be relayed, got %q", stdout)
	}
}
