// Package status tracks the lifecycle of one unit of work that may run on
// a goroutine other than the one reading its state.
package status

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the lifecycle position of a tracked run.
type State int

const (
	NotStarted State = iota
	Running
	EndedSuccess
	EndedFailure
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NOT_STARTED"
	case Running:
		return "RUNNING"
	case EndedSuccess:
		return "ENDED_SUCCESS"
	case EndedFailure:
		return "ENDED_FAILURE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether s is one of the ended states.
func (s State) IsTerminal() bool {
	return s == EndedSuccess || s == EndedFailure
}

// ErrAlreadyStarted is returned when a tracker is started a second time.
var ErrAlreadyStarted = errors.New("tracker already started")

// Work is the unit of work a Tracker runs.
type Work[T any] func(ctx context.Context) (T, error)

// Snapshot is a consistent view of a tracker at one instant.
type Snapshot[T any] struct {
	State       State
	Description string
	Result      T
	Err         error
	StartedAt   time.Time
	EndedAt     time.Time
}

// Duration is the run time, or zero while the run is not finished.
func (s Snapshot[T]) Duration() time.Duration {
	if !s.State.IsTerminal() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Tracker runs one unit of work and publishes its lifecycle.
// States only move forward: NotStarted, Running, then exactly one
// terminal state. The result and description are written before the
// terminal state becomes visible, and Done is closed after that.
type Tracker[T any] struct {
	mu    sync.RWMutex
	snap  Snapshot[T]
	done  chan struct{}
	start sync.Once
}

// NewTracker returns a tracker in the NotStarted state.
func NewTracker[T any]() *Tracker[T] {
	return &Tracker[T]{
		snap: Snapshot[T]{State: NotStarted, Description: "not started"},
		done: make(chan struct{}),
	}
}

// Start runs work on its own goroutine and returns immediately.
func (t *Tracker[T]) Start(ctx context.Context, work Work[T]) error {
	if !t.begin() {
		return ErrAlreadyStarted
	}
	go t.execute(ctx, work)
	return nil
}

// Run runs work on the calling goroutine and returns the final snapshot.
func (t *Tracker[T]) Run(ctx context.Context, work Work[T]) (Snapshot[T], error) {
	if !t.begin() {
		return t.Snapshot(), ErrAlreadyStarted
	}
	t.execute(ctx, work)
	return t.Snapshot(), nil
}

func (t *Tracker[T]) begin() bool {
	started := false
	t.start.Do(func() {
		started = true
		t.mu.Lock()
		t.snap.State = Running
		t.snap.Description = "running"
		t.snap.StartedAt = time.Now()
		t.mu.Unlock()
	})
	return started
}

func (t *Tracker[T]) execute(ctx context.Context, work Work[T]) {
	var (
		result T
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("work panicked: %v", r)
			}
		}()
		result, err = work(ctx)
	}()
	t.finish(result, err)
}

func (t *Tracker[T]) finish(result T, err error) {
	t.mu.Lock()
	if err != nil {
		t.snap.State = EndedFailure
		t.snap.Description = err.Error()
		t.snap.Err = err
	} else {
		t.snap.State = EndedSuccess
		t.snap.Description = "completed"
		t.snap.Result = result
	}
	t.snap.EndedAt = time.Now()
	t.mu.Unlock()
	close(t.done)
}

// State returns the current state.
func (t *Tracker[T]) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.State
}

// Description is a human-readable account of the current state. For a
// failed run it is the error message.
func (t *Tracker[T]) Description() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.Description
}

// Result returns the payload of a successful run.
func (t *Tracker[T]) Result() (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.Result, t.snap.State == EndedSuccess
}

// Err returns the failure of a failed run.
func (t *Tracker[T]) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.Err
}

// Snapshot returns every field under a single lock.
func (t *Tracker[T]) Snapshot() Snapshot[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

// Done is closed once the run reaches a terminal state.
func (t *Tracker[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the run ends or ctx is done. ctx bounds the wait
// only; the work keeps running.
func (t *Tracker[T]) Wait(ctx context.Context) (Snapshot[T], error) {
	select {
	case <-t.done:
		return t.Snapshot(), nil
	case <-ctx.Done():
		return t.Snapshot(), ctx.Err()
	}
}
