package pool

import (
	"fmt"
	"sync/atomic"
)

// Aggregator collects results for a batch of n tasks, preserving the
// original submission order regardless of completion order. Each index
// is written exactly once; writes to distinct indices are safe from
// concurrent goroutines without a lock.
//
// A second write to the same index, an out-of-range index, or Collect
// before completion are contract violations and panic: they indicate a
// bug in the caller, not a runtime condition to recover from.
type Aggregator[R any] struct {
	slots     []Result[R]
	written   []atomic.Bool
	remaining atomic.Int64
	done      chan struct{}
	stream    chan Result[R]
}

// NewAggregator creates an aggregator pre-sized for n results.
func NewAggregator[R any](n int) *Aggregator[R] {
	if n < 0 {
		panic(fmt.Sprintf("pool: NewAggregator with negative size %d", n))
	}
	a := &Aggregator[R]{
		slots:   make([]Result[R], n),
		written: make([]atomic.Bool, n),
		done:    make(chan struct{}),
		stream:  make(chan Result[R], n),
	}
	a.remaining.Store(int64(n))
	if n == 0 {
		close(a.done)
		close(a.stream)
	}
	return a
}

// Size returns the number of slots.
func (a *Aggregator[R]) Size() int { return len(a.slots) }

// Record stores a result at its submission index and forwards it to the
// completion-order stream. Panics on a duplicate write or an index out
// of range.
func (a *Aggregator[R]) Record(index int, res Result[R]) {
	if index < 0 || index >= len(a.slots) {
		panic(fmt.Sprintf("pool: aggregator index %d out of range [0,%d)", index, len(a.slots)))
	}
	if !a.written[index].CompareAndSwap(false, true) {
		panic(fmt.Sprintf("pool: duplicate result for index %d", index))
	}

	res.Index = index
	a.slots[index] = res
	// The stream is buffered to the full batch size, so with the
	// exactly-once write discipline this send never blocks.
	a.stream <- res

	if a.remaining.Add(-1) == 0 {
		close(a.done)
		close(a.stream)
	}
}

// IsComplete reports whether all indices have been recorded.
func (a *Aggregator[R]) IsComplete() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when every index has been recorded.
func (a *Aggregator[R]) Done() <-chan struct{} { return a.done }

// Stream returns results in completion order as they arrive. The channel
// is closed after the final result. Consuming it is optional: the buffer
// holds the whole batch.
func (a *Aggregator[R]) Stream() <-chan Result[R] { return a.stream }

// Collect returns the ordered results. Valid only after IsComplete;
// calling it earlier panics.
func (a *Aggregator[R]) Collect() []Result[R] {
	if !a.IsComplete() {
		panic(fmt.Sprintf("pool: Collect before completion (%d results outstanding)", a.remaining.Load()))
	}
	return a.slots
}
