// Package hookconfig implements the Config Resolver (C2): locating, loading,
// validating, and merging up to three layered configuration files into the
// set of hooks a single invocation may run.
package hookconfig

import "time"

// Verdict is the three-valued flow-control outcome used both as a per-code
// mapping target and as the aggregated result (§3).
type Verdict string

const (
	VerdictSuccess          Verdict = "success"
	VerdictNonBlockingError Verdict = "non-blocking-error"
	VerdictBlockingError    Verdict = "blocking-error"
)

// severity orders verdicts for aggregation: blocking-error < non-blocking-error < success.
func (v Verdict) severity() int {
	switch v {
	case VerdictBlockingError:
		return 0
	case VerdictNonBlockingError:
		return 1
	default:
		return 2
	}
}

// Less reports whether v is strictly more severe than other.
func (v Verdict) Less(other Verdict) bool {
	return v.severity() < other.severity()
}

func validVerdict(v Verdict) bool {
	switch v {
	case VerdictSuccess, VerdictNonBlockingError, VerdictBlockingError:
		return true
	default:
		return false
	}
}

// OutputFormat discriminates the two hook contracts (§3, design note in §9:
// modeled as a sum type, not subtype polymorphism).
type OutputFormat string

const (
	FormatText       OutputFormat = "text"
	FormatStructured OutputFormat = "structured"
)

// EventKind mirrors hookevent.Kind as a plain string so this package has no
// import-cycle dependency on the event package; validated against the same
// closed enumeration.
type EventKind string

var validEventKinds = map[EventKind]bool{
	"PreToolUse":       true,
	"PostToolUse":      true,
	"Stop":             true,
	"UserPromptSubmit": true,
	"Notification":     true,
	"SubagentStop":      true,
	"PreCompact":       true,
	"SessionStart":     true,
}

// HookDefinition is the tagged record of §3. Text-only fields are populated
// when Format == FormatText and are the zero value otherwise.
type HookDefinition struct {
	Name        string
	Command     []string
	Events      map[EventKind]bool
	Matcher     string
	Priority    int
	TimeoutMS   int
	Description string

	Format OutputFormat

	// Text-format fields.
	ExitCodeMap     map[string]Verdict
	Message         string
	FixInstructions string

	// insertionIndex preserves the merged configuration's stable ordering for
	// priority ties (§4.3); set by the loader, not by callers.
	insertionIndex int
}

// InsertionIndex exposes the stable tie-break ordinal assigned at merge time.
func (h HookDefinition) InsertionIndex() int { return h.insertionIndex }

// DefaultPriority and DefaultTimeout are applied when the on-disk definition
// omits the field (§3).
const (
	DefaultPriority = 100
	DefaultTimeout  = 60 * time.Second
)

// LogLevel is the logging.level enum of §6.
type LogLevel string

const (
	LogOff     LogLevel = "off"
	LogErrors  LogLevel = "errors"
	LogVerbose LogLevel = "verbose"
)

// LoggingSettings is the "logging" sub-object of §6's configuration file format.
type LoggingSettings struct {
	Level LogLevel
	Path  string
}

// Config is the fully merged, validated configuration for one invocation.
type Config struct {
	Logging LoggingSettings
	Hooks   []HookDefinition
}

// HooksForEvent returns the hooks (in merged/insertion order, unsorted by
// priority) that declare membership in kind.
func (c *Config) HooksForEvent(kind EventKind) []HookDefinition {
	var out []HookDefinition
	for _, h := range c.Hooks {
		if h.Events[kind] {
			out = append(out, h)
		}
	}
	return out
}
