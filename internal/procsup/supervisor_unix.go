//go:build !windows

package procsup

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// politeSignal is the termination signal sent before the grace period
// elapses (§4.5).
var politeSignal os.Signal = unix.SIGTERM

// PoliteSignal exposes the platform's graceful termination signal to callers
// outside this package (e.g. the Hook Runner's own timeout handling).
func PoliteSignal() os.Signal { return politeSignal }

// setProcessGroup places the child in a new process group so a signal to
// -pid reaches the entire subtree (§5 Process groups).
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killGroup signals the process group rooted at pid via golang.org/x/sys/unix,
// the corpus's preferred POSIX signal binding over the bare syscall package.
func killGroup(pid int, sig os.Signal) error {
	sysSig, ok := sig.(unix.Signal)
	if !ok {
		sysSig = unix.SIGKILL
	}
	err := unix.Kill(-pid, sysSig)
	if err == unix.ESRCH {
		return nil
	}
	return err
}

// exitStatus extracts the POSIX wait status from an *os.ProcessState.
func exitStatus(state *os.ProcessState) (syscall.WaitStatus, bool) {
	ws, ok := state.Sys().(syscall.WaitStatus)
	return ws, ok
}
