package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolNotStarted is returned by Submit and Shutdown before Start.
	ErrPoolNotStarted = errors.New("pool not started")
	// ErrPoolStarted is returned by Start when workers are already running.
	ErrPoolStarted = errors.New("pool already started")
	// ErrPoolShutdown is returned by Submit after Shutdown has begun.
	ErrPoolShutdown = errors.New("pool shut down")
	// ErrShutdownTimeout is returned when a draining shutdown does not
	// finish within the given timeout.
	ErrShutdownTimeout = errors.New("shutdown timeout reached")
	// ErrResultPending is returned by Future.GetWithTimeout when the
	// result is not ready in time.
	ErrResultPending = errors.New("result not ready before timeout")
)

// PanicError wraps a panic recovered from a task body. The worker that
// caught it keeps processing subsequent tasks; the panic surfaces only
// in the task's own Result.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panic: %v", e.Value)
}
