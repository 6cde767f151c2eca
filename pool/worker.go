package pool

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/fanline/fanline/token"
)

// worker is the core loop: pull the next item, run it while observing
// its token, deliver exactly one result, loop. No state is kept across
// items. A panicking task body never takes the worker down.
func (p *Pool[R]) worker(st *state[R], id int) error {
	for {
		select {
		case <-st.ctx.Done():
			p.drainCancelled(st)
			return st.ctx.Err()
		case item, ok := <-st.queue:
			if !ok {
				return nil
			}
			if st.ctx.Err() != nil {
				p.resolveCancelled(item, st.ctx.Err())
				continue
			}
			p.run(st, item)
		}
	}
}

// drainCancelled resolves whatever is left on the queue as Cancelled
// after a drainless shutdown. Items are consumed cooperatively with the
// other workers and the shutdown sweep, so each resolves exactly once.
func (p *Pool[R]) drainCancelled(st *state[R]) {
	for {
		select {
		case item, ok := <-st.queue:
			if !ok {
				return
			}
			p.resolveCancelled(item, st.ctx.Err())
		default:
			return
		}
	}
}

// run executes one item. The cancellation check happens before dispatch:
// a task whose token is already cancelled resolves Cancelled without its
// body ever being invoked.
func (p *Pool[R]) run(st *state[R], item *workItem[R]) {
	if item.tok.IsCancelled() {
		p.resolveCancelled(item, item.tok.Err())
		return
	}

	// The body's context follows the token, and additionally ends when
	// the pool shuts down without draining.
	ctx, cancel := context.WithCancel(item.tok.Context())
	defer cancel()
	stop := context.AfterFunc(st.ctx, cancel)
	defer stop()

	if p.conf.rateLimiter != nil {
		if err := p.conf.rateLimiter.Wait(ctx); err != nil {
			p.resolveCancelled(item, err)
			return
		}
	}

	if p.conf.metrics != nil {
		p.conf.metrics.WorkerBusy()
		defer p.conf.metrics.WorkerIdle()
		p.conf.metrics.SetQueueDepth(len(st.queue))
	}

	start := time.Now()
	value, err, recovered := p.runWithRecovery(ctx, item.task)
	elapsed := time.Since(start)

	res := Result[R]{
		Value:     value,
		Err:       err,
		Status:    classify(err, recovered, item.tok, st.ctx),
		Recovered: recovered,
	}
	p.resolve(item, res, elapsed)
}

// runWithRecovery executes a task body with panic recovery and the
// configured retry policy. A panic is converted into a *PanicError with
// the captured stack so the worker survives and the result still
// reports the failure.
func (p *Pool[R]) runWithRecovery(ctx context.Context, task Task[R]) (result R, err error, recovered bool) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = &PanicError{Value: r, Stack: buf[:n]}
			recovered = true
		}
	}()

	maxAttempts := max(p.conf.maxAttempts, 1)
	for attempt := range maxAttempts {
		if attempt > 0 && p.conf.initialDelay > 0 {
			select {
			case <-time.After(backoffDelay(p.conf.initialDelay, attempt-1)):
			case <-ctx.Done():
				return result, ctx.Err(), false
			}
		}

		result, err = task(ctx)
		if err == nil {
			return result, nil, false
		}
		if ctx.Err() != nil {
			// No point retrying a cancelled task.
			return result, err, false
		}
	}
	return result, err, false
}

// classify maps a body's error to the terminal status. A context error
// counts as Cancelled only when the cancellation actually came from the
// token or from pool shutdown; a body returning context.Canceled of its
// own accord is an ordinary failure.
func classify(err error, recovered bool, tok *token.Token, poolCtx context.Context) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case recovered:
		return StatusFailed
	case isContextErr(err) && (tok.IsCancelled() || poolCtx.Err() != nil):
		return StatusCancelled
	default:
		return StatusFailed
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
