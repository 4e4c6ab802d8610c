package status

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		want     string
		terminal bool
	}{
		{NotStarted, "NOT_STARTED", false},
		{Running, "RUNNING", false},
		{EndedSuccess, "ENDED_SUCCESS", true},
		{EndedFailure, "ENDED_FAILURE", true},
		{State(42), "State(42)", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
		assert.Equal(t, tt.terminal, tt.state.IsTerminal())
	}
}

func TestTrackerRunSuccess(t *testing.T) {
	tr := NewTracker[int]()
	assert.Equal(t, NotStarted, tr.State())

	snap, err := tr.Run(context.Background(), func(ctx context.Context) (int, error) {
		assert.Equal(t, Running, tr.State())
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, EndedSuccess, snap.State)
	assert.Equal(t, 42, snap.Result)
	assert.NoError(t, snap.Err)
	assert.GreaterOrEqual(t, snap.Duration(), time.Duration(0))

	v, ok := tr.Result()
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	select {
	case <-tr.Done():
	default:
		t.Fatal("Done must be closed after Run returns")
	}
}

func TestTrackerRunFailure(t *testing.T) {
	tr := NewTracker[string]()
	boom := errors.New("invalid pattern")

	snap, err := tr.Run(context.Background(), func(ctx context.Context) (string, error) {
		return "ignored", boom
	})
	require.NoError(t, err)
	assert.Equal(t, EndedFailure, snap.State)
	assert.Equal(t, "invalid pattern", snap.Description)
	assert.ErrorIs(t, tr.Err(), boom)

	v, ok := tr.Result()
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestTrackerPanicEndsInFailure(t *testing.T) {
	tr := NewTracker[int]()
	snap, err := tr.Run(context.Background(), func(ctx context.Context) (int, error) {
		panic("kaboom")
	})
	require.NoError(t, err)
	assert.Equal(t, EndedFailure, snap.State)
	assert.Contains(t, snap.Description, "kaboom")
}

func TestTrackerStartTwice(t *testing.T) {
	tr := NewTracker[int]()
	work := func(ctx context.Context) (int, error) { return 1, nil }

	require.NoError(t, tr.Start(context.Background(), work))
	assert.ErrorIs(t, tr.Start(context.Background(), work), ErrAlreadyStarted)

	snap, err := tr.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EndedSuccess, snap.State)

	_, err = tr.Run(context.Background(), work)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Equal(t, EndedSuccess, tr.State(), "terminal state must not be left")
}

func TestTrackerStartAsync(t *testing.T) {
	tr := NewTracker[[]string]()
	release := make(chan struct{})

	require.NoError(t, tr.Start(context.Background(), func(ctx context.Context) ([]string, error) {
		<-release
		return []string{"R1", "R2"}, nil
	}))
	assert.Equal(t, Running, tr.State())

	close(release)
	snap, err := tr.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R2"}, snap.Result)
}

func TestTrackerWaitTimeoutDoesNotCancelWork(t *testing.T) {
	tr := NewTracker[int]()
	release := make(chan struct{})
	require.NoError(t, tr.Start(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 7, nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	snap, err := tr.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Running, snap.State)

	close(release)
	snap, err = tr.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, snap.Result)
}

// Readers polling concurrently must see states only move forward and
// must see the result as soon as they see EndedSuccess.
func TestTrackerConcurrentReaders(t *testing.T) {
	for i := 0; i < 50; i++ {
		tr := NewTracker[map[string]int]()

		var wg sync.WaitGroup
		for r := 0; r < 4; r++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				last := NotStarted
				for {
					snap := tr.Snapshot()
					if snap.State < last {
						t.Errorf("state went backwards: %v -> %v", last, snap.State)
						return
					}
					last = snap.State
					if snap.State == EndedFailure {
						t.Error("run must not fail")
						return
					}
					if snap.State == EndedSuccess {
						if snap.Result["R1"] != 1 {
							t.Error("result not visible with terminal state")
						}
						return
					}
				}
			}()
		}

		require.NoError(t, tr.Start(context.Background(), func(ctx context.Context) (map[string]int, error) {
			return map[string]int{"R1": 1}, nil
		}))
		wg.Wait()
	}
}
