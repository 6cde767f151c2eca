package pool

import "time"

// Future is a handle to the result of a single submitted task. It is
// resolved exactly once; all accessors may be called from any goroutine,
// any number of times.
type Future[R any] struct {
	done chan struct{}
	res  Result[R]
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

// deliver resolves the future. Called exactly once, by whichever
// goroutine finishes the item.
func (f *Future[R]) deliver(res Result[R]) {
	f.res = res
	close(f.done)
}

// Get blocks until the task resolves and returns its Result.
func (f *Future[R]) Get() Result[R] {
	<-f.done
	return f.res
}

// GetWithTimeout waits up to d for the result. Returns ErrResultPending
// if the task has not resolved in time; the future stays valid.
func (f *Future[R]) GetWithTimeout(d time.Duration) (Result[R], error) {
	select {
	case <-f.done:
		return f.res, nil
	case <-time.After(d):
		var zero Result[R]
		return zero, ErrResultPending
	}
}

// IsReady reports whether the result is available without blocking.
func (f *Future[R]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the result becomes available,
// for use in select statements.
func (f *Future[R]) Done() <-chan struct{} { return f.done }
