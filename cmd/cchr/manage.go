package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// notImplemented is the shared RunE for every management stub below: it
// exists so `cchr --help` reflects the full command surface a real install
// of this tool would carry, without pulling the interactive TUI stack into
// the core's dependency graph (§1 Non-goals, §11).
func notImplemented(name string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("cchr %s: not implemented in this build", name)
	}
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a new hook configuration file (management surface, not implemented here)",
	RunE:  notImplemented("init"),
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register cchr with a host's hook settings (management surface, not implemented here)",
	RunE:  notImplemented("install"),
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove cchr's registration from a host's hook settings (management surface, not implemented here)",
	RunE:  notImplemented("uninstall"),
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the resolved hook configuration (management surface, not implemented here)",
	RunE:  notImplemented("show"),
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect session log files (management surface, not implemented here)",
	RunE:  notImplemented("logs"),
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Dry-run a hook against a synthesized event (management surface, not implemented here)",
	RunE:  notImplemented("test"),
}

func init() {
	testCmd.Flags().BoolVar(&lintCommand, "lint-command", false, "advisory: lint sh -c hook commands with a shell parser")
	rootCmd.AddCommand(initCmd, installCmd, uninstallCmd, showCmd, logsCmd, testCmd)
}
