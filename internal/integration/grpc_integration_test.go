package integration

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/people-detector/internal/config"
	"github.com/oshokin/people-detector/internal/domain/detector"
	"github.com/oshokin/people-detector/internal/repository/state"
	"github.com/oshokin/people-detector/internal/service/common"
	"github.com/oshokin/people-detector/internal/service/server"
)

// freeAddress reserves a free local TCP address for a test server.
func freeAddress(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startServer starts the detector server with temporary config and persistent state file.
// Returns a stop function to gracefully shutdown the server.
func startServer(t *testing.T, addr, statePath string, cycle config.Detector) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(
		t,
		config.Save(cfgPath, &config.Config{
			ServerAddress: addr,
			Timeout:       5 * time.Second,
			Detector:      cycle,
		}),
	)

	done := make(chan struct{})

	go func() {
		defer close(done)

		options := &server.Options{
			ConfigPath: cfgPath,
			StateFile:  statePath,
		}

		_ = server.Run(ctx, options) //nolint:errcheck // Failures surface as dial errors in the test.
	}()

	// Wait briefly for server to start listening.
	time.Sleep(150 * time.Millisecond)

	return func() {
		cancel()
		<-done
	}
}

// dial connects a client to addr and closes it on cleanup.
func dial(t *testing.T, addr string) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

// TestGRPC_ManualCycle drives the full cycle with explicit actions and checks persistence.
func TestGRPC_ManualCycle(t *testing.T) {
	t.Parallel()

	var (
		addr      = freeAddress(t)
		statePath = filepath.Join(t.TempDir(), "state.json")
		stop      = startServer(t, addr, statePath, config.Detector{})
		ctx       = context.Background()
		c         = dial(t, addr)
		source    = &detector.Source{Hostname: "test-hostname", Username: "test-user"}
	)

	got, err := c.GetState(ctx, source)
	require.NoError(t, err)
	require.Equal(t, detector.StateReady, got.State)

	got, err = c.ApplyAction(ctx, source, detector.ActionTrigger)
	require.NoError(t, err)
	require.Equal(t, detector.StateDelay, got.State)
	require.Equal(t, source, got.Source)

	got, err = c.ApplyAction(ctx, source, detector.ActionEndTime)
	require.NoError(t, err)
	require.Equal(t, detector.StateFire, got.State)

	// Stop the server and read the persisted snapshot directly.
	stop()

	_, err = os.Stat(statePath)
	require.NoError(t, err)

	persisted, err := state.NewFileRepository(statePath).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, detector.StateFire, persisted.State)
	require.Equal(t, detector.ActionEndTime, persisted.LastAction)

	// A restarted server resumes from the file and Reset ends the cycle.
	stop = startServer(t, addr, statePath, config.Detector{})
	defer stop()

	c = dial(t, addr)

	got, err = c.GetState(ctx, source)
	require.NoError(t, err)
	require.Equal(t, detector.StateFire, got.State)

	got, err = c.ApplyAction(ctx, source, detector.ActionReset)
	require.NoError(t, err)
	require.Equal(t, detector.StateReady, got.State)
}

// TestGRPC_TimedCycle checks the server feeds End Time on its own.
func TestGRPC_TimedCycle(t *testing.T) {
	t.Parallel()

	var (
		addr   = freeAddress(t)
		ctx    = context.Background()
		source = &detector.Source{Hostname: "test-hostname", Username: "test-user"}
	)

	stop := startServer(t, addr, filepath.Join(t.TempDir(), "state.json"), config.Detector{
		Delay: 50 * time.Millisecond,
		Fire:  50 * time.Millisecond,
		Rearm: 50 * time.Millisecond,
	})
	defer stop()

	c := dial(t, addr)

	got, err := c.ApplyAction(ctx, source, detector.ActionTrigger)
	require.NoError(t, err)
	require.Equal(t, detector.StateDelay, got.State)

	require.Eventually(t, func() bool {
		snapshot, err := c.GetState(ctx, source)

		return err == nil && snapshot.State == detector.StateReady && snapshot.LastAction == detector.ActionEndTime
	}, 3*time.Second, 10*time.Millisecond)
}
