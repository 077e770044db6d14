package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	cchrconfig "github.com/cc-hooks/cchr/internal/config"
)

var (
	cfgFile     string
	debugFlag   bool
	logsDirFlag string
)

// log is the process-wide logger, reconfigured by PersistentPreRun once the
// flags are parsed: a human-readable console writer on a terminal, newline
// JSON otherwise (§10).
var log zerolog.Logger

// resolvedSettings is computed once per invocation in PersistentPreRun and
// reused by run.go, so the layered ambient-settings search only runs once.
var resolvedSettings *cchrconfig.ResolvedConfig

var rootCmd = &cobra.Command{
	Use:   "cchr",
	Short: "cc-hooks orchestrator: runs configured hooks for a single Claude Code lifecycle event",
	Long: `cchr reads one lifecycle event from stdin, resolves which configured hooks
apply, runs them concurrently, and emits the aggregated flow-control
decision the host expects on stdout/stderr.

Normal usage is via the run subcommand, invoked by the host once per
event. The management subcommands (init, install, uninstall, show, logs,
test) are placeholders that report they are not implemented in this build.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		resolvedSettings = cchrconfig.Resolve(debugFlag, logsDirFlag)
		if d, _ := resolvedSettings.Debug.Value.(bool); d {
			debugFlag = true
		}

		level := zerolog.InfoLevel
		if debugFlag {
			level = zerolog.DebugLevel
		}

		format, _ := resolvedSettings.LogFormat.Value.(string)
		if resolvedSettings.LogFormat.Source == cchrconfig.SourceDefault {
			// No format set anywhere: choose by whether stderr is a terminal.
			format = ""
		}

		var writer io.Writer = os.Stderr
		switch format {
		case "json":
		case "console":
			writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		default:
			if term.IsTerminal(int(os.Stderr.Fd())) {
				writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
			}
		}
		log = zerolog.New(writer).Level(level).With().Timestamp().Logger()
		log.Debug().Interface("settings", resolvedSettings).Msg("ambient settings resolved")
	},
}

// Execute runs the root command; main's sole responsibility. A run of the
// run subcommand signals its desired exit code via the errExit sentinel
// rather than cobra's own error banner: 2 for a blocking verdict, 1 for an
// input or configuration error. Any other error is a genuine internal error
// (exit 1, error taxonomy case 7).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if ee, ok := err.(errExit); ok {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a hook configuration file or directory (bypasses the layered search)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable verbose diagnostic logging and selection/aggregation tracing")
	rootCmd.PersistentFlags().StringVar(&logsDirFlag, "logs-dir", "", "override the session log directory")
}
