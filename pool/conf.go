package pool

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Option is a functional option for configuring the pool.
type Option[R any] func(*config[R])

type config[R any] struct {
	queueCapacity int
	maxAttempts   int
	initialDelay  time.Duration
	rateLimiter   *rate.Limiter
	logger        *slog.Logger
	metrics       *Metrics
	onTaskEnd     func(Result[R])
}

// WithQueueCapacity sets the capacity of the bounded FIFO work queue.
// When the queue is full, Submit blocks until a worker frees a slot
// (backpressure). If not specified, defaults to twice the worker count.
func WithQueueCapacity[R any](n int) Option[R] {
	return func(cfg *config[R]) {
		if n >= 0 {
			cfg.queueCapacity = n
		}
	}
}

// WithRetryPolicy enables retrying failed task bodies inside the worker.
// maxAttempts is the total number of attempts per task; initialDelay is
// the delay before the first retry, doubling on each subsequent one.
// Retried tasks still produce a single terminal Result.
func WithRetryPolicy[R any](maxAttempts int, initialDelay time.Duration) Option[R] {
	return func(cfg *config[R]) {
		if maxAttempts > 0 {
			cfg.maxAttempts = maxAttempts
		}
		if initialDelay > 0 {
			cfg.initialDelay = initialDelay
		}
	}
}

// WithRateLimit caps task throughput across all workers. tasksPerSecond
// and burst follow golang.org/x/time/rate semantics. Useful when task
// bodies call a downstream service with its own limits.
func WithRateLimit[R any](tasksPerSecond float64, burst int) Option[R] {
	return func(cfg *config[R]) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithLogger attaches a structured logger. The pool logs lifecycle
// transitions at info level and per-task completions at debug level.
// Without it the pool is silent.
func WithLogger[R any](l *slog.Logger) Option[R] {
	return func(cfg *config[R]) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithMetrics attaches a prometheus collector updated as tasks move
// through the pool.
func WithMetrics[R any](m *Metrics) Option[R] {
	return func(cfg *config[R]) {
		cfg.metrics = m
	}
}

// WithOnTaskEnd registers a hook invoked after every task resolves,
// from the goroutine that resolved it. The hook must be safe for
// concurrent use.
func WithOnTaskEnd[R any](fn func(Result[R])) Option[R] {
	return func(cfg *config[R]) {
		cfg.onTaskEnd = fn
	}
}

func newConfig[R any](size int, opts ...Option[R]) *config[R] {
	cfg := &config[R]{
		queueCapacity: 2 * size,
		maxAttempts:   1,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
