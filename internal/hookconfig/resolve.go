package hookconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cc-hooks/cchr/internal/resolver"
)

// Layer identifies one of the three precedence tiers of §4.2.
type Layer struct {
	Name string
	Path string
}

// SearchPaths returns the three layers in increasing precedence order:
// global (user-home default), project (workspace default), local (workspace
// override). home and cwd are injected for testability.
func SearchPaths(home, cwd string) []Layer {
	return []Layer{
		{Name: "global", Path: filepath.Join(home, ".claude", "cchooks.json")},
		{Name: "project", Path: filepath.Join(cwd, ".claude", "cchooks.json")},
		{Name: "local", Path: filepath.Join(cwd, ".claude", "cchooks.local.json")},
	}
}

// Resolve loads and merges the configuration for one invocation. When
// cliPath is non-empty it replaces the search entirely: only that file is
// loaded, as its own single layer. Otherwise the three SearchPaths layers are
// loaded low-to-high; missing files contribute nothing, and missing all files
// yields an empty Config (§4.2, which the caller short-circuits on per §4.10).
//
// Resolve returns the merged Config and the list of files that were actually
// loaded, for diagnostics.
func Resolve(cliPath, home, cwd string) (*Config, []string, error) {
	if cliPath != "" {
		resolvedPath, err := resolver.NewConfigPathResolver().Resolve(cliPath)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
		cfg, err := loadFile(resolvedPath)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
		assignInsertionOrder(cfg)
		return cfg, []string{resolvedPath}, nil
	}

	merged := &Config{}
	var loaded []string
	for _, layer := range SearchPaths(home, cwd) {
		cfg, err := loadFile(layer.Path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
		loaded = append(loaded, layer.Path)
		mergeInto(merged, cfg)
	}
	assignInsertionOrder(merged)
	return merged, loaded, nil
}

// mergeInto merges src (a higher-precedence layer) into dst in place,
// following §4.2: per-name last-writer-wins, replacing in place to preserve
// first-appearance order; logging settings use last-defined-wins.
func mergeInto(dst, src *Config) {
	if src.Logging.Level != "" || src.Logging.Path != "" {
		dst.Logging = src.Logging
	}

	index := make(map[string]int, len(dst.Hooks))
	for i, h := range dst.Hooks {
		index[h.Name] = i
	}
	for _, h := range src.Hooks {
		if i, ok := index[h.Name]; ok {
			dst.Hooks[i] = h
			continue
		}
		index[h.Name] = len(dst.Hooks)
		dst.Hooks = append(dst.Hooks, h)
	}
}

// assignInsertionOrder stamps each hook with its stable position in the
// merged configuration, used by Hook Selector to break priority ties (§4.3).
func assignInsertionOrder(cfg *Config) {
	for i := range cfg.Hooks {
		cfg.Hooks[i].insertionIndex = i
	}
}
