// Package loopguard implements the Loop Guard & Short-circuit (C10): the
// cheap checks that let an invocation exit 0 before spawning anything.
package loopguard

import (
	"errors"

	"github.com/cc-hooks/cchr/internal/hookconfig"
	"github.com/cc-hooks/cchr/internal/hookevent"
)

// ErrNoHooks signals the "selection-empty / no-config" taxonomy category of
// §7: cfg is absent, or the selector matched nothing. It is never a
// diagnostic failure — the caller checks it with errors.Is purely to route
// to a silent exit 0, not to print anything or set a nonzero exit code.
var ErrNoHooks = errors.New("no eligible hooks")

// StopHookLoop reports whether event is a Stop/SubagentStop event with
// stop_hook_active already true, which must short-circuit to exit 0 with no
// hook spawned at all (§4.10) — otherwise a stop hook could retrigger
// itself indefinitely.
func StopHookLoop(event hookevent.Event) bool {
	if event.Kind != hookevent.KindStop && event.Kind != hookevent.KindSubagentStop {
		return false
	}
	return event.StopHookActive
}

// CheckEligible returns ErrNoHooks when cfg is absent or the selector
// yielded nothing to run, the other unconditional exit-0 path of §4.10.
func CheckEligible(cfg *hookconfig.Config, selected []hookconfig.HookDefinition) error {
	if cfg == nil || len(selected) == 0 {
		return ErrNoHooks
	}
	return nil
}
