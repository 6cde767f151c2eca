// Package pool provides a fixed-size, generic worker pool with
// cancellable fan-out/fan-in batch execution.
//
// The primary type is Pool[R], a reusable set of workers pulling tasks
// from a shared bounded FIFO queue. Tasks are plain functions observing
// a cancellation token; the pool supports backpressure on a full queue,
// panic recovery, retry with exponential backoff, rate limiting, and
// prometheus metrics via functional options.
//
// # Basic Usage
//
//	p := pool.New[string](4)
//	_ = p.Start(context.Background())
//	defer p.Shutdown(true)
//
//	fut, _ := p.Submit(nil, func(ctx context.Context) (string, error) {
//	    return "done", nil
//	})
//	res := fut.Get()
//
// # Batch Execution
//
// RunBatch fans a slice of tasks out across the workers and returns the
// results in submission order, regardless of completion order:
//
//	tok := token.New(nil, 2*time.Second)
//	results := pool.RunBatch(p, tok, tasks)
//	// results[i] corresponds to tasks[i]
//
// Cancelling the token stops dispatch: tasks that have not started
// resolve StatusCancelled without ever running, while tasks already
// executing finish cooperatively. Every submitted task yields exactly
// one Result, so RunBatch never blocks forever.
//
// # Error Handling
//
// Task-level failures are data, not control flow: a body's error becomes
// a StatusFailed Result, a cancellation becomes StatusCancelled, and a
// panic is recovered into a *PanicError with Recovered set, leaving the
// worker alive. Only contract violations (duplicate aggregator writes,
// Collect before completion) panic.
//
// # Configuration Options
//
//   - WithQueueCapacity(n): Bound the work queue (default: 2x workers)
//   - WithRetryPolicy(maxAttempts, initialDelay): Retry failed bodies
//   - WithRateLimit(tasksPerSecond, burst): Cap task throughput
//   - WithLogger(l): Structured lifecycle and per-task logging
//   - WithMetrics(m): Prometheus collectors
//   - WithOnTaskEnd(fn): Completion hook per resolved task
package pool
