// Command cchr is the hook orchestrator invoked once per lifecycle event by
// the host. See the run subcommand for the production data path.
package main

func main() {
	Execute()
}
