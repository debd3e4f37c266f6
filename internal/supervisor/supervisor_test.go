package supervisor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartStopLifecycle(t *testing.T) {
	s := New()
	starts, stops := 0, 0
	s.Register("worker", Task{
		Start: func() { starts++ },
		Stop:  func() { stops++ },
	})

	require.False(t, s.Running("worker"))
	s.Start("worker")
	require.True(t, s.Running("worker"))
	require.Equal(t, 1, starts)

	// Starting an already-running task is a no-op.
	s.Start("worker")
	require.Equal(t, 1, starts)

	s.Shutdown("worker")
	require.False(t, s.Running("worker"))
	require.Equal(t, 1, stops)

	// Stopping a stopped task is a no-op.
	s.Shutdown("worker")
	require.Equal(t, 1, stops)
}

func TestStartAllAndShutdownAll(t *testing.T) {
	s := New()
	var started []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		s.Register(name, Task{
			Start: func() { started = append(started, name) },
			Stop:  func() {},
		})
	}

	s.Start("")
	require.Len(t, started, 3)
	for _, name := range []string{"a", "b", "c"} {
		require.True(t, s.Running(name))
	}

	s.Shutdown("")
	for _, name := range []string{"a", "b", "c"} {
		require.False(t, s.Running(name))
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	s := New()
	calls := 0
	s.Register("t", Task{Start: func() { calls++ }, Stop: func() {}})
	s.Register("t", Task{Start: func() { calls += 100 }, Stop: func() {}})

	s.Start("t")
	require.Equal(t, 1, calls)
}

func TestRunningMapSnapshot(t *testing.T) {
	s := New()
	s.Register("a", Task{Start: func() {}, Stop: func() {}})
	s.Start("a")

	m := s.RunningMap()
	m["a"] = false // mutating the snapshot must not affect supervisor state
	require.True(t, s.Running("a"))
}
