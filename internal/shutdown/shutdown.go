// Package shutdown implements the Shutdown Coordinator (C11): single-fire
// handling of the process's terminate/interrupt signals and fatal internal
// exceptions, guaranteeing the Process Supervisor's cleanup runs exactly
// once before the process actually exits.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cc-hooks/cchr/internal/procsup"
)

// Coordinator registers OS signal handlers once and guarantees that
// Supervisor.Cleanup runs exactly once, however the process comes to an end
// (signal, fatal panic, or the normal return path).
type Coordinator struct {
	log zerolog.Logger
	sup *procsup.Supervisor

	once sync.Once
	ch   chan os.Signal
	stop chan struct{}
}

// New registers the SIGINT/SIGTERM handlers and returns a Coordinator ready
// to enforce cleanup.
func New(log zerolog.Logger, sup *procsup.Supervisor) *Coordinator {
	c := &Coordinator{
		log:  log,
		sup:  sup,
		ch:   make(chan os.Signal, 1),
		stop: make(chan struct{}),
	}
	signal.Notify(c.ch, os.Interrupt, syscall.SIGTERM)
	go c.watch()
	return c
}

func (c *Coordinator) watch() {
	select {
	case sig := <-c.ch:
		c.log.Debug().Str("signal", sig.String()).Msg("received terminate signal")
		c.Cleanup()
		os.Exit(130)
	case <-c.stop:
	}
}

// Cleanup invokes Supervisor.Cleanup exactly once, bounded by the
// supervisor's own grace period plus a small safety margin (§4.11).
func (c *Coordinator) Cleanup() {
	c.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), procsup.GracePeriod+2*time.Second)
		defer cancel()
		c.sup.Cleanup(ctx)
	})
}

// RecoverFatal is deferred by the run command's runOrchestrator to catch a
// panic on that goroutine that escaped every
// other recover(), log its cause best-effort, run cleanup, and exit
// non-zero (§4.11, §7 error taxonomy case 7).
func (c *Coordinator) RecoverFatal() {
	if r := recover(); r != nil {
		c.log.Error().Interface("panic", r).Msg("unhandled internal failure")
		c.Cleanup()
		os.Exit(1)
	}
}

// Close stops the signal watcher without exiting, for use in tests or when
// the caller has already driven Cleanup itself through the normal return
// path.
func (c *Coordinator) Close() {
	signal.Stop(c.ch)
	close(c.stop)
}
