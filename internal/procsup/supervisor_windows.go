//go:build windows

package procsup

import (
	"os"
	"os/exec"
	"strconv"
)

// politeSignal on Windows has no SIGTERM equivalent; os.Kill is used for
// both the polite and forced phases, since Windows offers no graceful
// process-group signal (§5: "non-POSIX... native tree-kill as a functional
// equivalent").
var politeSignal os.Signal = os.Kill

// PoliteSignal exposes the platform's graceful termination signal to callers
// outside this package (e.g. the Hook Runner's own timeout handling).
func PoliteSignal() os.Signal { return politeSignal }

func setProcessGroup(cmd *exec.Cmd) {
	// No POSIX process groups on Windows; taskkill /T below walks the tree
	// by parent pid instead.
}

func killGroup(pid int, _ os.Signal) error {
	cmd := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid))
	return cmd.Run()
}

type fakeWaitStatus struct{ state *os.ProcessState }

func (f fakeWaitStatus) Signaled() bool  { return false }
func (f fakeWaitStatus) Signal() interface{ String() string } {
	return signalStringer{}
}
func (f fakeWaitStatus) ExitStatus() int { return f.state.ExitCode() }

type signalStringer struct{}

func (signalStringer) String() string { return "" }

func exitStatus(state *os.ProcessState) (fakeWaitStatus, bool) {
	return fakeWaitStatus{state: state}, false
}
