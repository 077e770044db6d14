// Package hookrunner implements the Hook Runner (C6): for a single hook,
// spawn, feed stdin, apply a timeout, and collect capped output.
package hookrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cc-hooks/cchr/internal/hookconfig"
	"github.com/cc-hooks/cchr/internal/procsup"
	"github.com/cc-hooks/cchr/internal/streamlimiter"
)

// Outcome is the HookRunOutcome of §3, plus a SpawnErr escape hatch for
// failures that never produced an exit code at all (§4.6 failure semantics).
type Outcome struct {
	HookName   string
	ExitCode   *int
	Signal     string
	Stdout     []byte
	Stderr     []byte
	DurationMS int64
	TimedOut   bool
	Truncated  bool

	// SpawnErr is set when the child could never be started, or an internal
	// panic/I-O failure occurred during the run. Such outcomes are mapped to
	// non-blocking-error directly, bypassing the exit-code/JSON contracts
	// (§4.6).
	SpawnErr error
}

// DefaultMaxOutputBytes is the per-stream cap applied when Run is given a
// maxOutputBytes <= 0 (§4.6 step 3). The hook configuration has no
// output-limit setting, so the run command always passes 0 and gets this cap.
const DefaultMaxOutputBytes = 1 << 20 // 1 MiB

// Run spawns hook.Command via sup, feeds it eventJSON on stdin, and waits up
// to hook.TimeoutMS (polite signal immediately on fire, forced kill after the
// supervisor's grace period if still alive), returning the captured Outcome.
// Run never returns an error: every failure mode is folded into Outcome so
// sibling hooks and the overall invocation are unaffected (§4.6, §7).
func Run(ctx context.Context, sup *procsup.Supervisor, log zerolog.Logger, id string, hook hookconfig.HookDefinition, eventJSON []byte, cwd string, extraEnv []string, maxOutputBytes int64) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("hook", hook.Name).Msg("hook runner panicked")
			out = Outcome{HookName: hook.Name, SpawnErr: fmt.Errorf("hook runner panic: %v", r)}
		}
	}()

	if maxOutputBytes <= 0 {
		maxOutputBytes = DefaultMaxOutputBytes
	}

	start := time.Now()

	var stdoutBuf, stderrBuf bytes.Buffer
	overflow := make(chan struct{}, 1)
	signalOverflow := func() {
		select {
		case overflow <- struct{}{}:
		default:
		}
	}
	stdoutLim := streamlimiter.New(&stdoutBuf, maxOutputBytes, signalOverflow)
	stderrLim := streamlimiter.New(&stderrBuf, maxOutputBytes, signalOverflow)

	env := append(append([]string{}, os.Environ()...), extraEnv...)

	handle, stdin, err := sup.Spawn(id, procsup.Options{
		Argv:   hook.Command,
		Dir:    cwd,
		Env:    env,
		Stdin:  true,
		Stdout: stdoutLim,
		Stderr: stderrLim,
	})
	if err != nil {
		return Outcome{HookName: hook.Name, SpawnErr: err, DurationMS: time.Since(start).Milliseconds()}
	}

	writeStdinAndClose(stdin, eventJSON, log, hook.Name)

	timeoutMS := hook.TimeoutMS
	if timeoutMS <= 0 {
		timeoutMS = int(hookconfig.DefaultTimeout.Milliseconds())
	}
	timedOut := awaitCompletion(ctx, sup, id, handle, time.Duration(timeoutMS)*time.Millisecond, overflow, log, hook.Name)

	code, sig, _ := handle.ExitState()
	duration := time.Since(start)

	truncated := stdoutLim.Overflowed() || stderrLim.Overflowed()

	return Outcome{
		HookName:   hook.Name,
		ExitCode:   code,
		Signal:     sig,
		Stdout:     stdoutBuf.Bytes(),
		Stderr:     stderrBuf.Bytes(),
		DurationMS: duration.Milliseconds(),
		TimedOut:   timedOut,
		Truncated:  truncated,
	}
}

// writeStdinAndClose writes the event payload and closes stdin. Write errors
// whose cause indicates the child went away (closed pipe / ECONNRESET-style
// conditions) are ignored; any other error is logged but never fails the run
// (§4.6 step 2).
func writeStdinAndClose(stdin interface {
	io.Writer
	io.Closer
}, payload []byte, log zerolog.Logger, hookName string) {
	if stdin == nil {
		return
	}
	_, err := stdin.Write(payload)
	if err != nil && !isReaderGoneError(err) {
		log.Debug().Err(err).Str("hook", hookName).Msg("stdin write error")
	}
	if err := stdin.Close(); err != nil && !isReaderGoneError(err) {
		log.Debug().Err(err).Str("hook", hookName).Msg("stdin close error")
	}
}

func isReaderGoneError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "EPIPE") || strings.Contains(msg, "reset by peer")
}

// awaitCompletion waits for the child to exit, firing the timeout/overflow
// cancellation paths of §4.4/§4.6/§5. It returns whether the hook timed out.
func awaitCompletion(ctx context.Context, sup *procsup.Supervisor, id string, handle *procsup.Handle, timeout time.Duration, overflow <-chan struct{}, log zerolog.Logger, hookName string) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-handle.Done():
			return false

		case <-overflow:
			// Output cap exceeded: force-kill immediately, no grace (§5).
			if err := sup.Kill(id, os.Kill); err != nil {
				log.Debug().Err(err).Str("hook", hookName).Msg("overflow kill failed")
			}
			<-handle.Done()
			return false

		case <-timer.C:
			if err := sup.Kill(id, procsup.PoliteSignal()); err != nil {
				log.Debug().Err(err).Str("hook", hookName).Msg("polite timeout kill failed")
			}
			select {
			case <-handle.Done():
				return true
			case <-overflow:
				_ = sup.Kill(id, os.Kill)
				<-handle.Done()
				return true
			case <-time.After(procsup.GracePeriod):
				_ = sup.Kill(id, os.Kill)
				<-handle.Done()
				return true
			}

		case <-ctx.Done():
			_ = sup.Kill(id, os.Kill)
			<-handle.Done()
			return false
		}
	}
}
