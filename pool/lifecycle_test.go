package pool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fanline/fanline/pool"
)

func TestLifecycle_SubmitBeforeStart(t *testing.T) {
	p := pool.New[int](2)

	_, err := p.Submit(nil, func(ctx context.Context) (int, error) { return 0, nil })
	if !errors.Is(err, pool.ErrPoolNotStarted) {
		t.Fatalf("expected ErrPoolNotStarted, got %v", err)
	}
}

func TestLifecycle_ShutdownBeforeStart(t *testing.T) {
	p := pool.New[int](2)

	if err := p.Shutdown(true); !errors.Is(err, pool.ErrPoolNotStarted) {
		t.Fatalf("expected ErrPoolNotStarted, got %v", err)
	}
}

func TestLifecycle_DoubleStart(t *testing.T) {
	p := pool.New[int](2)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	defer func() { _ = p.Shutdown(true) }()

	if err := p.Start(context.Background()); !errors.Is(err, pool.ErrPoolStarted) {
		t.Fatalf("expected ErrPoolStarted, got %v", err)
	}
}

func TestLifecycle_SizeClamped(t *testing.T) {
	p := pool.New[int](0)
	if p.Size() != 1 {
		t.Fatalf("expected size clamped to 1, got %d", p.Size())
	}
}

func TestLifecycle_DrainShutdownFinishesQueuedWork(t *testing.T) {
	p := pool.New(1, pool.WithQueueCapacity[int](8))
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	var completed atomic.Int32
	futures := make([]*pool.Future[int], 6)
	for i := range futures {
		fut, err := p.Submit(nil, func(ctx context.Context) (int, error) {
			time.Sleep(10 * time.Millisecond)
			completed.Add(1)
			return i, nil
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		futures[i] = fut
	}

	if err := p.Shutdown(true); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if got := completed.Load(); got != 6 {
		t.Errorf("drain shutdown left work behind: %d of 6 completed", got)
	}
	for i, fut := range futures {
		if !fut.IsReady() {
			t.Errorf("future %d unresolved after drain shutdown", i)
		}
	}
}

func TestLifecycle_DrainlessShutdownCancelsQueuedWork(t *testing.T) {
	p := pool.New(1, pool.WithQueueCapacity[int](8))
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	started := make(chan struct{})
	inflight, err := p.Submit(nil, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if err != nil {
		t.Fatalf("submit in-flight: %v", err)
	}
	<-started

	var invoked atomic.Int32
	queued := make([]*pool.Future[int], 4)
	for i := range queued {
		fut, err := p.Submit(nil, func(ctx context.Context) (int, error) {
			invoked.Add(1)
			return 0, nil
		})
		if err != nil {
			t.Fatalf("submit queued %d: %v", i, err)
		}
		queued[i] = fut
	}

	if err := p.Shutdown(false); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	// The running body saw its context end.
	res := inflight.Get()
	if res.Status != pool.StatusCancelled {
		t.Errorf("in-flight task: expected cancelled, got %+v", res)
	}

	// Queued items resolve without running.
	for i, fut := range queued {
		res, err := fut.GetWithTimeout(time.Second)
		if err != nil {
			t.Fatalf("queued future %d unresolved: %v", i, err)
		}
		if res.Status != pool.StatusCancelled {
			t.Errorf("queued task %d: expected cancelled, got %v", i, res.Status)
		}
	}
	if got := invoked.Load(); got != 0 {
		t.Errorf("queued bodies ran during drainless shutdown: %d", got)
	}
}

func TestLifecycle_ShutdownIdempotent(t *testing.T) {
	p := pool.New[int](2)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := p.Shutdown(true); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := p.Shutdown(true); err != nil {
		t.Fatalf("second shutdown should be a no-op, got %v", err)
	}
	if err := p.Shutdown(false); err != nil {
		t.Fatalf("shutdown with different mode should be a no-op, got %v", err)
	}
}

func TestLifecycle_SubmitAfterShutdown(t *testing.T) {
	p := pool.New[int](2)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Shutdown(true); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	_, err := p.Submit(nil, func(ctx context.Context) (int, error) { return 0, nil })
	if !errors.Is(err, pool.ErrPoolShutdown) {
		t.Fatalf("expected ErrPoolShutdown, got %v", err)
	}
}

func TestLifecycle_RestartAfterShutdown(t *testing.T) {
	p := pool.New[string](2)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Shutdown(true); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("restart after finished shutdown: %v", err)
	}
	defer func() { _ = p.Shutdown(true) }()

	fut, err := p.Submit(nil, func(ctx context.Context) (string, error) {
		return "second life", nil
	})
	if err != nil {
		t.Fatalf("submit after restart: %v", err)
	}
	if res := fut.Get(); res.Value != "second life" {
		t.Errorf("unexpected result after restart: %+v", res)
	}
}

func TestLifecycle_StartContextCancelStopsPool(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := pool.New[int](2)
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	started := make(chan struct{})
	fut, err := p.Submit(nil, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	<-started

	cancel()

	res, err := fut.GetWithTimeout(time.Second)
	if err != nil {
		t.Fatalf("future unresolved after context cancel: %v", err)
	}
	if res.Status != pool.StatusCancelled {
		t.Errorf("expected cancelled, got %+v", res)
	}

	_ = p.Shutdown(false)
}

func TestLifecycle_SubmitAfterStartContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := pool.New(2, pool.WithQueueCapacity[int](8))
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	cancel()

	// Submissions racing the teardown must never vanish: each one is
	// either rejected outright or returns a future that still resolves.
	var invoked atomic.Int32
	for i := range 20 {
		fut, err := p.Submit(nil, func(ctx context.Context) (int, error) {
			invoked.Add(1)
			return 0, nil
		})
		if err != nil {
			if !errors.Is(err, pool.ErrPoolShutdown) {
				t.Fatalf("submit %d: unexpected error %v", i, err)
			}
			continue
		}
		res, err := fut.GetWithTimeout(time.Second)
		if err != nil {
			t.Fatalf("submit %d: accepted but future never resolved", i)
		}
		if res.Status != pool.StatusCancelled {
			t.Errorf("submit %d: expected cancelled, got %+v", i, res)
		}
	}
	if got := invoked.Load(); got != 0 {
		t.Errorf("task bodies ran on a dead pool: %d", got)
	}
}

func TestLifecycle_BatchAfterStartContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := pool.New[int](2)
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	tasks := make([]pool.Task[int], 10)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (int, error) { return i, nil }
	}

	done := make(chan struct{})
	var results []pool.Result[int]
	go func() {
		defer close(done)
		results = pool.RunBatch(p, nil, tasks)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("batch on a dead pool did not return")
	}
	for i, r := range results {
		if r.Status != pool.StatusCancelled {
			t.Errorf("result %d: expected cancelled, got %+v", i, r)
		}
	}
}

func TestLifecycle_ShutdownWithTimeout(t *testing.T) {
	p := pool.New[int](1)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	release := make(chan struct{})
	fut, err := p.Submit(nil, func(ctx context.Context) (int, error) {
		<-release
		return 42, nil
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := p.ShutdownWithTimeout(true, 30*time.Millisecond); !errors.Is(err, pool.ErrShutdownTimeout) {
		t.Fatalf("expected ErrShutdownTimeout, got %v", err)
	}

	// Workers keep draining past the deadline; the task still completes.
	close(release)
	if res := fut.Get(); res.Status != pool.StatusSuccess || res.Value != 42 {
		t.Errorf("expected success after late drain, got %+v", res)
	}

	// Once the background drain finishes, the lifecycle is fully wound
	// down and the pool can be started again.
	deadline := time.Now().Add(2 * time.Second)
	for {
		err := p.Start(context.Background())
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("restart after timed-out drain never succeeded: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := p.Shutdown(true); err != nil {
		t.Fatalf("shutdown after restart: %v", err)
	}
}
