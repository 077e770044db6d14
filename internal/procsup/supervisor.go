// Package procsup implements the Process Supervisor (C5): the sole owner of
// child process handles for their entire lifetime, from spawn through exit or
// forced kill. No other component is permitted to signal a child directly.
package procsup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// GracePeriod is the wait between a polite termination signal and the
// forced kill that follows it (§4.5, §5).
const GracePeriod = 2 * time.Second

// ErrShutdown is returned by Spawn once cleanup has started: no new spawns
// are accepted after shutdown begins (§4.5).
var ErrShutdown = errors.New("supervisor: shutdown in progress")

// Options configures how a single child is spawned.
type Options struct {
	Argv []string
	Dir  string
	Env  []string
	Stdin  bool // whether to attach a pipe for writing
	Stdout interface{ Write([]byte) (int, error) }
	Stderr interface{ Write([]byte) (int, error) }
}

// Handle is a supervisor-assigned reference to a running or finished child.
// Hook Runners hold handles by id and request kills through the supervisor;
// they never touch the underlying *os.Process (§3 Ownership).
type Handle struct {
	ID  string
	cmd *exec.Cmd

	mu       sync.Mutex
	exited   bool
	exitErr  error
	waitOnce sync.Once
	done     chan struct{}
}

// Supervisor tracks every spawned child by id and is the only component
// permitted to signal them.
type Supervisor struct {
	log zerolog.Logger

	mu       sync.Mutex
	children map[string]*Handle
	shutdown bool
}

// New creates a Supervisor. Registration of OS-level exit/interrupt handlers
// is the Shutdown Coordinator's job (C11); the Supervisor itself only
// guarantees cleanup() behaves correctly whenever it is invoked.
func New(log zerolog.Logger) *Supervisor {
	return &Supervisor{
		log:      log,
		children: make(map[string]*Handle),
	}
}

// Spawn starts a child in its own process group (where the OS supports it,
// §5) so a signal to the group reaches the entire subtree. It returns a
// Handle and, if Options.Stdin is set, the stdin pipe for the caller to
// write the event payload to and close.
func (s *Supervisor) Spawn(id string, opts Options) (*Handle, interface{ Write([]byte) (int, error); Close() error }, error) {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return nil, nil, ErrShutdown
	}
	s.mu.Unlock()

	if len(opts.Argv) == 0 {
		return nil, nil, fmt.Errorf("spawn %s: empty argv", id)
	}

	cmd := exec.Command(opts.Argv[0], opts.Argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	setProcessGroup(cmd)

	var stdinCloser interface {
		Write([]byte) (int, error)
		Close() error
	}
	if opts.Stdin {
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, nil, fmt.Errorf("spawn %s: stdin pipe: %w", id, err)
		}
		stdinCloser = pipe
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("spawn %s: %w", id, err)
	}

	h := &Handle{ID: id, cmd: cmd, done: make(chan struct{})}
	go h.reap()

	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		_ = killGroup(cmd.Process.Pid, os.Kill)
		<-h.Done()
		return nil, nil, ErrShutdown
	}
	s.children[id] = h
	s.mu.Unlock()

	return h, stdinCloser, nil
}

// reap waits for the child exactly once and records its terminal state.
func (h *Handle) reap() {
	h.waitOnce.Do(func() {
		err := h.cmd.Wait()
		h.mu.Lock()
		h.exited = true
		h.exitErr = err
		h.mu.Unlock()
		close(h.done)
	})
}

// Done returns a channel closed when the child has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Pid returns the child's process id.
func (h *Handle) Pid() int { return h.cmd.Process.Pid }

// ExitState returns the exit code (nil if killed by signal), the terminating
// signal name (empty if none), and the error Wait returned, once Done() has
// fired. Calling before Done() closes yields undefined (zero) values.
func (h *Handle) ExitState() (code *int, signal string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	state := h.cmd.ProcessState
	if state == nil {
		return nil, "", h.exitErr
	}
	if ws, ok := exitStatus(state); ok {
		if ws.Signaled() {
			sig := ws.Signal()
			return nil, sig.String(), h.exitErr
		}
		c := ws.ExitStatus()
		return &c, "", h.exitErr
	}
	c := state.ExitCode()
	return &c, "", h.exitErr
}

// Kill sends sig to the child's process group (or the platform tree-kill
// equivalent). It is a no-op, returning nil, if the child has already exited.
func (s *Supervisor) Kill(id string, sig os.Signal) error {
	s.mu.Lock()
	h, ok := s.children[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("kill %s: unknown child", id)
	}
	select {
	case <-h.Done():
		return nil
	default:
	}
	return killGroup(h.Pid(), sig)
}

// Cleanup enforces "no orphans": it sends a polite termination signal to
// every still-running child's group, waits GracePeriod, then force-kills
// survivors. It refuses further Spawn calls from the moment it is called.
func (s *Supervisor) Cleanup(ctx context.Context) {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	s.shutdown = true
	children := make([]*Handle, 0, len(s.children))
	for _, h := range s.children {
		children = append(children, h)
	}
	s.mu.Unlock()

	var running []*Handle
	for _, h := range children {
		select {
		case <-h.Done():
		default:
			running = append(running, h)
		}
	}
	if len(running) == 0 {
		return
	}

	for _, h := range running {
		if err := killGroup(h.Pid(), politeSignal); err != nil {
			s.log.Debug().Err(err).Str("id", h.ID).Msg("polite kill failed")
		}
	}

	allDone := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		wg.Add(len(running))
		for _, h := range running {
			h := h
			go func() {
				defer wg.Done()
				<-h.Done()
			}()
		}
		wg.Wait()
		close(allDone)
	}()

	deadline := time.NewTimer(GracePeriod)
	defer deadline.Stop()
	select {
	case <-allDone:
	case <-deadline.C:
	case <-ctx.Done():
	}

	for _, h := range running {
		select {
		case <-h.Done():
			continue
		default:
		}
		if err := killGroup(h.Pid(), os.Kill); err != nil {
			s.log.Debug().Err(err).Str("id", h.ID).Msg("force kill failed")
		}
		<-h.Done()
	}
}
