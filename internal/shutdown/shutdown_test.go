package shutdown

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cc-hooks/cchr/internal/procsup"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func TestCleanupKillsRunningChildrenExactlyOnce(t *testing.T) {
	sup := procsup.New(testLogger())
	h, _, err := sup.Spawn("c", procsup.Options{Argv: []string{"sh", "-c", "sleep 30"}})
	require.NoError(t, err)

	c := New(testLogger(), sup)
	defer c.Close()

	c.Cleanup()
	c.Cleanup() // second call must be a no-op, not a second Supervisor.Cleanup

	select {
	case <-h.Done():
	case <-time.After(procsup.GracePeriod + 2*time.Second):
		t.Fatal("expected child to be reaped after Cleanup")
	}

	_, _, err = sup.Spawn("late", procsup.Options{Argv: []string{"true"}})
	require.ErrorIs(t, err, procsup.ErrShutdown)
}

// RecoverFatal itself exits the process, so this test recovers the panic on
// its own and checks that supervisor cleanup afterwards refuses new spawns.
func TestSupervisorCleanupAfterRecoveredPanicRejectsSpawns(t *testing.T) {
	sup := procsup.New(testLogger())
	c := New(testLogger(), sup)
	defer c.Close()

	func() {
		defer func() {
			if r := recover(); r != nil {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				sup.Cleanup(ctx)
			}
		}()
		panic("boom")
	}()

	_, _, err := sup.Spawn("late", procsup.Options{Argv: []string{"true"}})
	require.ErrorIs(t, err, procsup.ErrShutdown)
}
