package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cc-hooks/cchr/internal/aggregator"
	"github.com/cc-hooks/cchr/internal/hookconfig"
	"github.com/cc-hooks/cchr/internal/hookevent"
	"github.com/cc-hooks/cchr/internal/hookrunner"
	"github.com/cc-hooks/cchr/internal/loopguard"
	"github.com/cc-hooks/cchr/internal/procsup"
	"github.com/cc-hooks/cchr/internal/projectdir"
	"github.com/cc-hooks/cchr/internal/resultmap"
	"github.com/cc-hooks/cchr/internal/selector"
	"github.com/cc-hooks/cchr/internal/shlint"
	"github.com/cc-hooks/cchr/internal/shutdown"
	"github.com/cc-hooks/cchr/internal/storage"
)

var (
	mockEventKind string
	mockDataPath  string
	lintCommand   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run configured hooks for one lifecycle event",
	Long: `run reads a single HookEvent JSON object from standard input (or, for
testing, synthesizes one from --event/--mock-data), resolves the applicable
hooks, runs them concurrently, and emits the aggregated flow-control
decision on stdout/stderr with exit code 0 or 2.`,
	RunE: runOrchestrator,
}

func init() {
	runCmd.Flags().StringVar(&mockEventKind, "event", "", "test-only: synthesize an event of this kind instead of reading stdin")
	runCmd.Flags().StringVar(&mockDataPath, "mock-data", "", "test-only: JSON file supplying the fields for --event")
	runCmd.Flags().BoolVar(&lintCommand, "lint-command", false, "advisory: lint sh -c hook commands with a shell parser before spawning")
	rootCmd.AddCommand(runCmd)
}

func runOrchestrator(cmd *cobra.Command, args []string) error {
	sup := procsup.New(log)
	coord := shutdown.New(log, sup)
	defer coord.Close()
	defer coord.Cleanup()
	defer coord.RecoverFatal()

	ctx := context.Background()

	event, err := readEvent(ctx)
	if err != nil {
		switch {
		case errors.Is(err, hookevent.ErrInputTimeout):
			log.Error().Err(err).Msg("timed out reading event")
		case errors.Is(err, hookevent.ErrInput):
			log.Error().Err(err).Msg("invalid event input")
		}
		fmt.Fprintln(os.Stderr, err)
		return errExit{1}
	}

	if loopguard.StopHookLoop(event) {
		log.Debug().Str("session_id", event.SessionID).Msg("stop hook already active, skipping to prevent a loop")
		return nil
	}

	home, _ := os.UserHomeDir()
	cfg, loaded, err := hookconfig.Resolve(cfgFile, home, event.Cwd)
	if err != nil {
		if errors.Is(err, hookconfig.ErrConfigInvalid) {
			log.Error().Err(err).Msg("configuration invalid")
		}
		fmt.Fprintln(os.Stderr, err)
		return errExit{1}
	}
	log.Debug().Strs("loaded", loaded).Int("hooks", len(cfg.Hooks)).Msg("configuration resolved")

	matchValue, hasMatch := event.MatchValue()
	selected := selector.Select(cfg, hookconfig.EventKind(event.Kind), matchValue, hasMatch)
	if err := loopguard.CheckEligible(cfg, selected); errors.Is(err, loopguard.ErrNoHooks) {
		log.Debug().Msg("no eligible hooks for this event")
		return nil
	}

	if debugFlag {
		for _, h := range selected {
			log.Debug().Str("hook", h.Name).Int("priority", h.Priority).Str("matcher", h.Matcher).Msg("hook selected")
		}
	}
	if lintCommand {
		for _, h := range selected {
			if err := shlint.Check(h.Command); err != nil {
				log.Warn().Str("hook", h.Name).Err(err).Msg("advisory shell lint failed, spawning unchanged")
			}
		}
	}

	logsDir, _ := resolvedSettings.LogsDir.Value.(string)
	if cfg.Logging.Path != "" {
		logsDir = cfg.Logging.Path
	}
	sessionLogger := storage.NewLogger(logsDir)

	retainCtx, retainCancel := context.WithTimeout(ctx, 2*time.Second)
	sessionLogger.Retain(retainCtx)
	retainCancel()

	projectDir := projectdir.Resolve(os.Getenv("CLAUDE_PROJECT_DIR"), event.Cwd)
	extraEnv := []string{"CLAUDE_PROJECT_DIR=" + projectDir}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cchr: internal error: re-encoding event:", err)
		return errExit{1}
	}

	results := make([]resultmap.MappedResult, len(selected))
	var group errgroup.Group
	for i, hook := range selected {
		i, hook := i, hook
		group.Go(func() error {
			id := fmt.Sprintf("%s-%d", hook.Name, i)
			outcome := hookrunner.Run(ctx, sup, log, id, hook, eventJSON, event.Cwd, extraEnv, 0)
			mapped := resultmap.Map(hook, outcome)
			results[i] = mapped

			if shouldLogVerdict(cfg.Logging.Level, mapped.Verdict) {
				sessionLogger.Append(storage.SessionLogEntry{
					SessionID:   event.SessionID,
					HookName:    hook.Name,
					EventKind:   string(event.Kind),
					FlowControl: string(mapped.Verdict),
					ExitCode:    outcome.ExitCode,
					Signal:      outcome.Signal,
					DurationMS:  outcome.DurationMS,
					TimedOut:    outcome.TimedOut,
					Truncated:   outcome.Truncated,
					Message:     mapped.Message,
					Timestamp:   time.Now().UTC(),
				})
			}

			if debugFlag {
				log.Debug().Str("hook", hook.Name).Str("verdict", string(mapped.Verdict)).Msg("hook result mapped")
			}
			return nil
		})
	}
	_ = group.Wait()

	winner, ok := aggregator.Aggregate(results)
	if !ok {
		return nil
	}
	code := aggregator.Emit(os.Stdout, os.Stderr, event.Kind, winner)
	if code != 0 {
		return errExit{code}
	}
	return nil
}

// shouldLogVerdict applies the logging.level gate from §6: "off" suppresses
// the session log entirely, "errors" keeps only non-success verdicts, and
// "verbose" (or an unset level, preserving today's default) logs everything.
func shouldLogVerdict(level hookconfig.LogLevel, verdict hookconfig.Verdict) bool {
	switch level {
	case hookconfig.LogOff:
		return false
	case hookconfig.LogErrors:
		return verdict != hookconfig.VerdictSuccess
	default:
		return true
	}
}

// readEvent reads the HookEvent from stdin, unless the test-only --event
// flag requests synthesis from a --mock-data file instead (§6, §12).
func readEvent(ctx context.Context) (hookevent.Event, error) {
	if mockEventKind == "" {
		return hookevent.Read(ctx, os.Stdin, 0)
	}

	var data []byte
	var err error
	if mockDataPath != "" {
		data, err = os.ReadFile(mockDataPath)
		if err != nil {
			return hookevent.Event{}, fmt.Errorf("%w: reading --mock-data file: %v", hookevent.ErrInput, err)
		}
	} else {
		data = []byte("{}")
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return hookevent.Event{}, fmt.Errorf("%w: parsing --mock-data file: %v", hookevent.ErrInput, err)
	}
	fields["hook_event_name"] = mockEventKind
	if _, ok := fields["session_id"]; !ok {
		fields["session_id"] = uuid.NewString()
	}
	if _, ok := fields["cwd"]; !ok {
		cwd, _ := os.Getwd()
		fields["cwd"] = cwd
	}

	synthesized, err := json.Marshal(fields)
	if err != nil {
		return hookevent.Event{}, fmt.Errorf("%w: re-encoding synthesized event: %v", hookevent.ErrInput, err)
	}
	return hookevent.Read(ctx, bytes.NewReader(synthesized), 0)
}

// errExit carries a desired process exit code up through cobra's RunE
// without printing cobra's own error banner (SilenceErrors handles that);
// main translates it via Execute's os.Exit.
type errExit struct{ code int }

func (e errExit) Error() string { return "" }
