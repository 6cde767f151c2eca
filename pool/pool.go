package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fanline/fanline/token"
)

// Pool is a fixed-size set of concurrent workers pulling tasks from a
// shared bounded FIFO queue. A pool is created once and reused across
// many submissions and batches; the worker count never changes for the
// pool's lifetime.
//
// Type parameters:
//   - R: The result type produced by tasks run on this pool
type Pool[R any] struct {
	size int
	conf *config[R]

	mu    sync.RWMutex
	state *state[R]
}

// state holds the runtime of a started pool. It is replaced wholesale
// on restart so a finished shutdown never interferes with new workers.
type state[R any] struct {
	ctx      context.Context
	cancel   context.CancelFunc
	queue    chan *workItem[R]
	shutdown atomic.Bool
	done     chan struct{} // closed when all workers have exited

	// submitMu serializes in-flight Submits against queue close during
	// shutdown. Submitters hold the read side only while enqueuing.
	submitMu sync.RWMutex
}

// New creates a pool with the given number of workers. size values below
// one are clamped to one. The pool does not run until Start is called.
//
// Example:
//
//	p := pool.New[string](4, pool.WithQueueCapacity[string](16))
//	_ = p.Start(context.Background())
//	defer p.Shutdown(true)
func New[R any](size int, opts ...Option[R]) *Pool[R] {
	size = max(size, 1)
	return &Pool[R]{
		size: size,
		conf: newConfig(size, opts...),
	}
}

// Size returns the fixed worker count.
func (p *Pool[R]) Size() int { return p.size }

// Start launches the workers. ctx bounds the pool's lifetime: cancelling
// it behaves like Shutdown(false). Returns ErrPoolStarted if workers are
// already running. A pool whose shutdown has fully finished may be
// started again.
func (p *Pool[R]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if st := p.state; st != nil {
		if !st.shutdown.Load() {
			return ErrPoolStarted
		}
		select {
		case <-st.done:
		default:
			return ErrPoolStarted
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	st := &state[R]{
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan *workItem[R], p.conf.queueCapacity),
		done:   make(chan struct{}),
	}
	p.state = st

	var g errgroup.Group
	for i := range p.size {
		g.Go(func() error {
			return p.worker(st, i)
		})
	}
	go func() {
		_ = g.Wait()
		// Cancelling the Start context brings the workers down without
		// Shutdown ever running. Finish the drainless epilogue here so
		// later Submits are rejected and anything already queued still
		// resolves.
		if st.shutdown.CompareAndSwap(false, true) {
			st.submitMu.Lock()
			close(st.queue)
			st.submitMu.Unlock()
			for item := range st.queue {
				p.resolveCancelled(item, st.ctx.Err())
			}
		}
		close(st.done)
		st.cancel()
	}()

	p.conf.logger.Info("pool started",
		"workers", p.size,
		"queue_capacity", p.conf.queueCapacity)
	return nil
}

// Submit enqueues a single task under the given token and returns a
// Future for its result. A nil token means the task is never cancelled
// externally. Submit blocks while the queue is full (backpressure) and
// never drops a task silently.
//
// If the token is already cancelled, or cancels while Submit is blocked
// waiting for a queue slot, the returned future resolves immediately to
// a StatusCancelled result and the task body is never invoked.
func (p *Pool[R]) Submit(tok *token.Token, task Task[R]) (*Future[R], error) {
	if tok == nil {
		tok = token.Background()
	}
	fut := newFuture[R]()
	item := &workItem[R]{
		index:   -1,
		task:    task,
		tok:     tok,
		deliver: fut.deliver,
	}
	if err := p.enqueue(item); err != nil {
		return nil, err
	}
	return fut, nil
}

// enqueue places an item on the work queue, blocking on a full queue.
// On token cancellation while blocked, the item resolves Cancelled here
// and nil is returned: the caller still gets its one result.
func (p *Pool[R]) enqueue(item *workItem[R]) error {
	p.mu.RLock()
	st := p.state
	p.mu.RUnlock()

	if st == nil {
		return ErrPoolNotStarted
	}
	if st.shutdown.Load() {
		return ErrPoolShutdown
	}

	st.submitMu.RLock()
	defer st.submitMu.RUnlock()
	if st.shutdown.Load() || st.ctx.Err() != nil {
		return ErrPoolShutdown
	}

	select {
	case st.queue <- item:
		if p.conf.metrics != nil {
			p.conf.metrics.SetQueueDepth(len(st.queue))
		}
		return nil
	case <-item.tok.Done():
		p.resolveCancelled(item, item.tok.Err())
		return nil
	case <-st.ctx.Done():
		return ErrPoolShutdown
	}
}

// Shutdown stops the pool. With drain=true it waits for every queued and
// in-flight task to finish. With drain=false it cancels the execution
// context seen by running task bodies and resolves all still-queued
// items as Cancelled without running them. Shutdown is idempotent: calls
// after the first return nil.
func (p *Pool[R]) Shutdown(drain bool) error {
	return p.ShutdownWithTimeout(drain, 0)
}

// ShutdownWithTimeout is Shutdown with a bound on how long a draining
// shutdown may take. timeout <= 0 waits forever. On timeout the workers
// keep draining in the background and ErrShutdownTimeout is returned.
func (p *Pool[R]) ShutdownWithTimeout(drain bool, timeout time.Duration) error {
	p.mu.RLock()
	st := p.state
	p.mu.RUnlock()

	if st == nil {
		return ErrPoolNotStarted
	}
	if !st.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	p.conf.logger.Info("pool shutting down", "drain", drain)

	if !drain {
		// Stop dispatch and signal running bodies first so submitters
		// blocked on a full queue unblock before we take the write lock.
		st.cancel()
	}

	st.submitMu.Lock()
	close(st.queue)
	st.submitMu.Unlock()

	if !drain {
		// Workers are exiting; sweep whatever they leave behind so every
		// queued item still resolves.
		for item := range st.queue {
			p.resolveCancelled(item, context.Canceled)
		}
		p.conf.logger.Info("pool stopped")
		return nil
	}

	// The worker-join goroutine releases the derived context once the
	// drain finishes, including after a timeout here.
	if err := waitUntil(st.done, timeout); err != nil {
		return err
	}
	p.conf.logger.Info("pool stopped")
	return nil
}

// resolve finishes an item exactly once: updates metrics, fires the
// completion hook, and hands the result to the item's sink.
func (p *Pool[R]) resolve(item *workItem[R], res Result[R], elapsed time.Duration) {
	res.Index = item.index
	if p.conf.metrics != nil {
		p.conf.metrics.RecordTask(res.Status, elapsed)
	}
	p.conf.logger.Debug("task resolved",
		"index", res.Index,
		"status", res.Status.String(),
		"elapsed", elapsed)
	if p.conf.onTaskEnd != nil {
		p.conf.onTaskEnd(res)
	}
	item.deliver(res)
}

func (p *Pool[R]) resolveCancelled(item *workItem[R], cause error) {
	p.resolve(item, Result[R]{Status: StatusCancelled, Err: cause}, 0)
}
