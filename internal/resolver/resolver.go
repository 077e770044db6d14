// Package resolver turns the --config flag's value into a concrete file
// path before the Config Resolver (C2) opens it: a bare directory is probed
// for the layered file names, and an extension-less name is probed against
// the configuration file's supported extension.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
)

// candidateNames is tried, in order, when --config names a directory rather
// than a file directly.
var candidateNames = []string{"cchooks.local.json", "cchooks.json"}

// extensions is tried, in order, when --config names a bare identifier with
// no extension of its own.
var extensions = []string{".json"}

// ConfigPathResolver resolves a --config value to a single, existing file.
type ConfigPathResolver struct{}

// NewConfigPathResolver returns a resolver; it carries no state, but is a
// type (rather than a bare function) to mirror the rest of this package's
// callers, which hold a resolver alongside other per-invocation components.
func NewConfigPathResolver() *ConfigPathResolver {
	return &ConfigPathResolver{}
}

// Resolve returns the concrete file path for raw. Given the empty string it
// returns the empty string unchanged, signaling "no override" to the caller.
func (r *ConfigPathResolver) Resolve(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	info, err := os.Stat(raw)
	if err == nil {
		if info.IsDir() {
			if p := probeNames(raw); p != "" {
				return p, nil
			}
			return "", fmt.Errorf("no cchooks config file found in directory %s", raw)
		}
		return raw, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	if filepath.Ext(raw) == "" {
		if p := probeExtensions(raw); p != "" {
			return p, nil
		}
	}

	return "", fmt.Errorf("config file not found: %s", raw)
}

func probeNames(dir string) string {
	for _, name := range candidateNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func probeExtensions(base string) string {
	for _, ext := range extensions {
		path := base + ext
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
