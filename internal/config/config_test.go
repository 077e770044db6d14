package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Debug {
		t.Error("Default Debug = true, want false")
	}
	if cfg.LogFormat != "console" {
		t.Errorf("Default LogFormat = %q, want %q", cfg.LogFormat, "console")
	}
	if cfg.LogsDir == "" {
		t.Error("Default LogsDir should not be empty")
	}
}

func TestMergeStringFieldsOverride(t *testing.T) {
	dst := Default()
	src := &Config{LogsDir: "/custom/logs", LogFormat: "json"}

	result := merge(dst, src)

	if result.LogsDir != "/custom/logs" {
		t.Errorf("merge LogsDir = %q, want %q", result.LogsDir, "/custom/logs")
	}
	if result.LogFormat != "json" {
		t.Errorf("merge LogFormat = %q, want %q", result.LogFormat, "json")
	}
}

func TestMergeBooleanIsORed(t *testing.T) {
	dst := Default()
	if dst.Debug {
		t.Fatal("precondition: default Debug should be false")
	}

	merge(dst, &Config{Debug: true})
	if !dst.Debug {
		t.Error("expected Debug to become true after merging a true override")
	}

	// Merging a false override afterwards must not flip it back off.
	merge(dst, &Config{Debug: false})
	if !dst.Debug {
		t.Error("expected Debug to remain true; merge never relaxes a boolean back to false")
	}
}

func TestLoadFromYAMLPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(path, []byte("debug: true\nlogs_dir: /from/yaml\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath: %v", err)
	}
	if !cfg.Debug || cfg.LogsDir != "/from/yaml" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadFromTOMLPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cchooks.toml")
	if err := os.WriteFile(path, []byte("debug = true\nlogs_dir = \"/from/toml\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFromTOMLPath(path)
	if err != nil {
		t.Fatalf("loadFromTOMLPath: %v", err)
	}
	if !cfg.Debug || cfg.LogsDir != "/from/toml" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestApplyEnvOverridesDebugAndLogsDir(t *testing.T) {
	t.Setenv("CCHR_DEBUG", "1")
	t.Setenv("CCHR_LOGS_DIR", "/from/env")

	cfg := applyEnv(Default())
	if !cfg.Debug || cfg.LogsDir != "/from/env" {
		t.Fatalf("unexpected config after env: %+v", cfg)
	}
}

func TestResolveTracksFlagAsHighestPrecedence(t *testing.T) {
	rc := Resolve(true, "/flag/logs")
	if rc.Debug.Source != SourceFlag || rc.Debug.Value != true {
		t.Errorf("expected Debug from flag, got %+v", rc.Debug)
	}
	if rc.LogsDir.Source != SourceFlag || rc.LogsDir.Value != "/flag/logs" {
		t.Errorf("expected LogsDir from flag, got %+v", rc.LogsDir)
	}
}

func TestResolveDefaultsWhenNothingSet(t *testing.T) {
	rc := Resolve(false, "")
	if rc.Debug.Source != SourceDefault {
		t.Errorf("expected Debug default source, got %v", rc.Debug.Source)
	}
}
