package pool

import (
	"context"

	"github.com/fanline/fanline/token"
)

// Task is a unit of work. The context passed to the body is derived from
// the submission token and is cancelled when the token is cancelled or
// when the pool shuts down without draining; long-running bodies should
// observe it to abort early.
//
// Type parameters:
//   - R: The result type produced by the task
type Task[R any] func(ctx context.Context) (R, error)

// Status is the terminal state of a processed task.
type Status uint8

const (
	// StatusSuccess means the body ran and returned a value.
	StatusSuccess Status = iota
	// StatusFailed means the body ran and returned an error, or panicked.
	StatusFailed
	// StatusCancelled means the body never ran, or aborted in response
	// to its cancellation token.
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single task. Exactly one Result is produced
// for every accepted task, including under cancellation and shutdown.
//
// Fields:
//   - Value: The value produced by the body (only meaningful on StatusSuccess)
//   - Err: The body's error, a *PanicError, or the cancellation cause
//   - Status: Terminal state of the task
//   - Recovered: True when Err was converted from a panic in the body
//   - Index: Position in the originating batch, or -1 for direct submissions
type Result[R any] struct {
	Value     R
	Err       error
	Status    Status
	Recovered bool
	Index     int
}

// workItem pairs a task with its batch position and cancellation token.
// deliver is the exactly-once result sink: a future for direct
// submissions, an aggregator slot for batch runs. Each item is resolved
// by exactly one goroutine, which is what guarantees the single-result
// invariant.
type workItem[R any] struct {
	index   int
	task    Task[R]
	tok     *token.Token
	deliver func(Result[R])
}
