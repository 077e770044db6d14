package hookconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// fileSchema mirrors the on-disk JSON shape of §3/§6 before validation turns
// it into the internal HookDefinition/Config types.
type fileSchema struct {
	Logging *loggingSchema `json:"logging,omitempty"`
	Hooks   []hookSchema   `json:"hooks"`
}

type loggingSchema struct {
	Level string `json:"level,omitempty"`
	Path  string `json:"path,omitempty"`
}

type hookSchema struct {
	Name         string          `json:"name"`
	Command      []string        `json:"command"`
	Events       []string        `json:"events"`
	Matcher      string          `json:"matcher,omitempty"`
	Priority     *int            `json:"priority,omitempty"`
	TimeoutSec   *float64        `json:"timeout_seconds,omitempty"`
	Description  string          `json:"description,omitempty"`
	OutputFormat string          `json:"output_format"`
	ExitCodeMap  map[string]string `json:"exit_code_map,omitempty"`
	Message      string          `json:"message,omitempty"`
	FixInstr     string          `json:"fix_instructions,omitempty"`
}

// loadFile reads and validates a single configuration file. Rejection is
// all-or-nothing (§4.2): a malformed file contributes zero hooks, never a
// partial set.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw fileSchema
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", path, err)
	}

	cfg := &Config{}
	if raw.Logging != nil {
		level := LogLevel(raw.Logging.Level)
		if raw.Logging.Level != "" && !validLogLevel(level) {
			return nil, fmt.Errorf("%s: logging.level: invalid value %q", path, raw.Logging.Level)
		}
		cfg.Logging = LoggingSettings{Level: level, Path: raw.Logging.Path}
	}

	seen := make(map[string]struct{}, len(raw.Hooks))
	for i, h := range raw.Hooks {
		def, err := validateHook(path, i, h)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("%s: hooks[%d]: duplicate hook name %q", path, i, def.Name)
		}
		seen[def.Name] = struct{}{}
		cfg.Hooks = append(cfg.Hooks, def)
	}
	return cfg, nil
}

func validLogLevel(l LogLevel) bool {
	switch l {
	case LogOff, LogErrors, LogVerbose:
		return true
	default:
		return false
	}
}

func validateHook(path string, i int, h hookSchema) (HookDefinition, error) {
	field := func(name string) string { return fmt.Sprintf("%s: hooks[%d].%s", path, i, name) }

	if h.Name == "" {
		return HookDefinition{}, fmt.Errorf("%s: must be non-empty", field("name"))
	}
	if len(h.Command) == 0 {
		return HookDefinition{}, fmt.Errorf("%s: must be a non-empty array", field("command"))
	}
	for j, c := range h.Command {
		if c == "" {
			return HookDefinition{}, fmt.Errorf("%s[%d]: element must be a non-empty string", field("command"), j)
		}
	}
	if len(h.Events) == 0 {
		return HookDefinition{}, fmt.Errorf("%s: must be a non-empty array", field("events"))
	}
	events := make(map[EventKind]bool, len(h.Events))
	for _, e := range h.Events {
		k := EventKind(e)
		if !validEventKinds[k] {
			return HookDefinition{}, fmt.Errorf("%s: unknown event kind %q", field("events"), e)
		}
		events[k] = true
	}

	priority := DefaultPriority
	if h.Priority != nil {
		if *h.Priority < 0 {
			return HookDefinition{}, fmt.Errorf("%s: must be >= 0", field("priority"))
		}
		priority = *h.Priority
	}

	timeoutMS := int(DefaultTimeout.Milliseconds())
	if h.TimeoutSec != nil {
		if *h.TimeoutSec <= 0 {
			return HookDefinition{}, fmt.Errorf("%s: must be > 0", field("timeout_seconds"))
		}
		timeoutMS = int(*h.TimeoutSec * 1000)
	}

	format := OutputFormat(h.OutputFormat)
	if format != FormatText && format != FormatStructured {
		return HookDefinition{}, fmt.Errorf("%s: must be %q or %q", field("output_format"), FormatText, FormatStructured)
	}

	def := HookDefinition{
		Name:        h.Name,
		Command:     h.Command,
		Events:      events,
		Matcher:     h.Matcher,
		Priority:    priority,
		TimeoutMS:   timeoutMS,
		Description: h.Description,
		Format:      format,
	}

	if format == FormatText {
		if len(h.ExitCodeMap) > 0 {
			m := make(map[string]Verdict, len(h.ExitCodeMap))
			for code, v := range h.ExitCodeMap {
				verdict := Verdict(v)
				if !validVerdict(verdict) {
					return HookDefinition{}, fmt.Errorf("%s[%q]: invalid verdict %q", field("exit_code_map"), code, v)
				}
				m[code] = verdict
			}
			def.ExitCodeMap = m
		}
		def.Message = h.Message
		def.FixInstructions = h.FixInstr
	}

	return def, nil
}
