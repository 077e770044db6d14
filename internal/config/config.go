// Package config provides the ambient tool-level settings for cchr — the
// logging defaults and path overrides that sit alongside, but are distinct
// from, the JSON hook-definition configuration in internal/hookconfig.
// Resolution order (highest to lowest priority):
//  1. Command-line flags
//  2. Environment variables (CCHR_*)
//  3. Project settings (.cchooks/settings.yaml, or cchooks.toml, in cwd)
//  4. Home settings (~/.cchooks/settings.yaml)
//  5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the ambient settings for one invocation of cchr.
type Config struct {
	// Debug enables verbose zerolog tracing to stderr even without -- debug
	// on the command line (§10).
	Debug bool `yaml:"debug" toml:"debug" json:"debug"`

	// LogsDir overrides the session log base directory, normally
	// <home>/.claude/logs/cc-hooks (§4.9, §6).
	LogsDir string `yaml:"logs_dir" toml:"logs_dir" json:"logs_dir"`

	// LogFormat selects the zerolog writer: "console" (human, TTY-friendly)
	// or "json" (machine-readable lines).
	LogFormat string `yaml:"log_format" toml:"log_format" json:"log_format"`

	// LintCommand is read from the settings files and CCHR_LINT_COMMAND by
	// Load, but ResolvedConfig does not carry it: the advisory
	// mvdan.cc/sh-based shell-syntax check of `run` (§11) is switched on only
	// by the --lint-command flag.
	LintCommand bool `yaml:"lint_command" toml:"lint_command" json:"lint_command"`
}

const (
	defaultLogFormat = "console"
)

// Default returns the zero-configuration settings.
func Default() *Config {
	return &Config{
		Debug:       false,
		LogsDir:     defaultLogsDir(),
		LogFormat:   defaultLogFormat,
		LintCommand: false,
	}
}

func defaultLogsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "logs", "cc-hooks")
}

// Load resolves settings with the full precedence chain described in the
// package doc comment. flagOverrides carries only the fields the caller
// explicitly set on the command line; zero-valued fields there are treated
// as "not set" (the teacher's own merge convention).
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	if home, err := loadFromPath(homeSettingsPath()); err == nil && home != nil {
		cfg = merge(cfg, home)
	}

	if project, err := loadProjectSettings(); err == nil && project != nil {
		cfg = merge(cfg, project)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

func homeSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cchooks", "settings.yaml")
}

// loadProjectSettings reads the project-level settings file from cwd,
// preferring .cchooks/settings.yaml and falling back to the TOML variant
// cchooks.toml when the YAML file is absent (§11: BurntSushi/toml wiring).
func loadProjectSettings() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	yamlPath := filepath.Join(cwd, ".cchooks", "settings.yaml")
	if cfg, err := loadFromPath(yamlPath); err == nil && cfg != nil {
		return cfg, nil
	}

	tomlPath := filepath.Join(cwd, "cchooks.toml")
	return loadFromTOMLPath(tomlPath)
}

func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFromTOMLPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("CCHR_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
	if v := strings.TrimSpace(os.Getenv("CCHR_LOGS_DIR")); v != "" {
		cfg.LogsDir = v
	}
	if v := strings.TrimSpace(os.Getenv("CCHR_LOG_FORMAT")); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("CCHR_LINT_COMMAND"); v == "true" || v == "1" {
		cfg.LintCommand = true
	}
	return cfg
}

// merge overlays src onto dst, src winning for every field it sets. Boolean
// fields use OR semantics (once true anywhere in the chain, it stays true),
// matching the teacher's own merge() convention.
func merge(dst, src *Config) *Config {
	if src.Debug {
		dst.Debug = true
	}
	if src.LogsDir != "" {
		dst.LogsDir = src.LogsDir
	}
	if src.LogFormat != "" {
		dst.LogFormat = src.LogFormat
	}
	if src.LintCommand {
		dst.LintCommand = true
	}
	return dst
}

// Source names where a resolved setting's value ultimately came from, for
// the --debug trace output (§12).
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.cchooks/settings.yaml"
	SourceProject Source = "project settings"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

type resolved struct {
	Value  interface{} `json:"value"`
	Source Source      `json:"source"`
}

// ResolvedConfig mirrors Config but with each field's winning source
// attached, surfaced by --debug for operability.
type ResolvedConfig struct {
	Debug     resolved `json:"debug"`
	LogsDir   resolved `json:"logs_dir"`
	LogFormat resolved `json:"log_format"`
}

// Resolve re-derives settings layer by layer so each field's Source can be
// reported, rather than just its final value.
func Resolve(flagDebug bool, flagLogsDir string) *ResolvedConfig {
	home, _ := loadFromPath(homeSettingsPath())
	project, _ := loadProjectSettings()

	rc := &ResolvedConfig{
		Debug:     resolved{Value: false, Source: SourceDefault},
		LogsDir:   resolved{Value: defaultLogsDir(), Source: SourceDefault},
		LogFormat: resolved{Value: defaultLogFormat, Source: SourceDefault},
	}

	applyLayer := func(cfg *Config, source Source) {
		if cfg == nil {
			return
		}
		if cfg.Debug {
			rc.Debug = resolved{Value: true, Source: source}
		}
		if cfg.LogsDir != "" {
			rc.LogsDir = resolved{Value: cfg.LogsDir, Source: source}
		}
		if cfg.LogFormat != "" {
			rc.LogFormat = resolved{Value: cfg.LogFormat, Source: source}
		}
	}

	applyLayer(home, SourceHome)
	applyLayer(project, SourceProject)

	env := applyEnv(&Config{})
	applyLayer(env, SourceEnv)

	if flagDebug {
		rc.Debug = resolved{Value: true, Source: SourceFlag}
	}
	if flagLogsDir != "" {
		rc.LogsDir = resolved{Value: flagLogsDir, Source: SourceFlag}
	}

	return rc
}
