// Package hookevent reads and validates the single JSON event the host writes
// to standard input for each orchestrator invocation.
package hookevent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Kind is one of the eight lifecycle moments the host can invoke the
// orchestrator for.
type Kind string

const (
	KindPreToolUse       Kind = "PreToolUse"
	KindPostToolUse      Kind = "PostToolUse"
	KindStop             Kind = "Stop"
	KindUserPromptSubmit Kind = "UserPromptSubmit"
	KindNotification     Kind = "Notification"
	KindSubagentStop     Kind = "SubagentStop"
	KindPreCompact       Kind = "PreCompact"
	KindSessionStart     Kind = "SessionStart"
)

// validKinds is the closed enumeration from §6.
var validKinds = map[Kind]bool{
	KindPreToolUse:       true,
	KindPostToolUse:      true,
	KindStop:             true,
	KindUserPromptSubmit: true,
	KindNotification:     true,
	KindSubagentStop:     true,
	KindPreCompact:       true,
	KindSessionStart:     true,
}

// ErrInput is returned for any failure to read or parse the event payload:
// a missed deadline, malformed JSON, or a missing required field.
var ErrInput = errors.New("input-error")

// ErrInputTimeout additionally wraps ErrInput when the failure specifically
// was a missed read deadline, so callers can distinguish "stdin never
// arrived" from a payload that arrived malformed.
var ErrInputTimeout = errors.New("input-timeout")

// Event is the tagged record described in §3. Conditional fields are left at
// their zero value when the event kind does not carry them; Event Reader does
// not enforce their presence, and an absent match field reaches the Hook
// Selector as the empty string.
type Event struct {
	Kind           Kind            `json:"hook_event_name"`
	SessionID      string          `json:"session_id"`
	TranscriptPath string          `json:"transcript_path"`
	Cwd            string          `json:"cwd"`
	ToolName       string          `json:"tool_name,omitempty"`
	Trigger        string          `json:"trigger,omitempty"`
	Source         string          `json:"source,omitempty"`
	StopHookActive bool            `json:"stop_hook_active,omitempty"`
	Message        string          `json:"message,omitempty"`
	Prompt         string          `json:"prompt,omitempty"`
	ToolInput      json.RawMessage `json:"tool_input,omitempty"`
	ToolResponse   json.RawMessage `json:"tool_response,omitempty"`
	CustomInstr    string          `json:"custom_instructions,omitempty"`
}

// MatchValue returns the single event-kind-specific value the Hook Selector
// matches against, and whether this kind carries one at all (§4.3).
func (e Event) MatchValue() (value string, hasMatch bool) {
	switch e.Kind {
	case KindPreToolUse, KindPostToolUse:
		return e.ToolName, true
	case KindPreCompact:
		return e.Trigger, true
	case KindSessionStart:
		return e.Source, true
	default:
		return "", false
	}
}

// DefaultDeadline is the hard deadline applied to the stdin read when the
// caller does not supply one.
const DefaultDeadline = 5 * time.Second

// Read parses a single JSON object from r within deadline. On timeout,
// malformed JSON, or a missing required field it returns an error wrapping
// ErrInput.
func Read(ctx context.Context, r io.Reader, deadline time.Duration) (Event, error) {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(r)
		ch <- result{data, err}
	}()

	select {
	case <-ctx.Done():
		return Event{}, fmt.Errorf("%w: %w after %s", ErrInputTimeout, ErrInput, deadline)
	case res := <-ch:
		if res.err != nil {
			return Event{}, fmt.Errorf("%w: read stdin: %v", ErrInput, res.err)
		}
		return parse(res.data)
	}
}

func parse(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("%w: parse event JSON: %v", ErrInput, err)
	}
	if e.Kind == "" {
		return Event{}, fmt.Errorf("%w: missing hook_event_name", ErrInput)
	}
	if !validKinds[e.Kind] {
		return Event{}, fmt.Errorf("%w: unknown hook_event_name %q", ErrInput, e.Kind)
	}
	if e.SessionID == "" {
		return Event{}, fmt.Errorf("%w: missing session_id", ErrInput)
	}
	return e, nil
}
