package pool

import (
	"time"

	"github.com/fanline/fanline/token"
)

// Outcome is the batch-level terminal state.
type Outcome uint8

const (
	// OutcomeAllCompleted means every task ran to a terminal state
	// without cancellation (individual failures included).
	OutcomeAllCompleted Outcome = iota
	// OutcomePartiallyCancelled means part of the batch resolved
	// Cancelled without a deadline expiring: an explicit token cancel,
	// or the pool shutting down mid-batch.
	OutcomePartiallyCancelled
	// OutcomeTimedOut means the token's deadline expired mid-batch.
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllCompleted:
		return "all-completed"
	case OutcomePartiallyCancelled:
		return "partially-cancelled"
	case OutcomeTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// BatchReport summarizes a finished batch: per-status counts and the
// batch-level outcome derived from the token's cancellation reason.
type BatchReport struct {
	Total     int
	Succeeded int
	Failed    int
	Cancelled int
	Outcome   Outcome
	Elapsed   time.Duration
}

// RunBatch fans a batch of tasks out across the pool's workers and
// merges the results, blocking until every task has a terminal Result.
// Index i of the returned slice corresponds to index i of tasks, even
// though completion order across workers is nondeterministic.
//
// On cancellation mid-flight, tasks not yet dispatched resolve
// StatusCancelled without their bodies ever being invoked; tasks already
// running finish cooperatively. Every index gets exactly one Result, so
// RunBatch never blocks forever, including when a task body panics.
func RunBatch[R any](p *Pool[R], tok *token.Token, tasks []Task[R]) []Result[R] {
	results, _ := RunBatchReport(p, tok, tasks)
	return results
}

// RunBatchReport is RunBatch plus a summary report.
func RunBatchReport[R any](p *Pool[R], tok *token.Token, tasks []Task[R]) ([]Result[R], BatchReport) {
	start := time.Now()
	if tok == nil {
		tok = token.Background()
	}

	n := len(tasks)
	agg := NewAggregator[R](n)

	i := 0
	for ; i < n; i++ {
		if tok.IsCancelled() {
			break
		}
		item := &workItem[R]{
			index:   i,
			task:    tasks[i],
			tok:     tok,
			deliver: func(r Result[R]) { agg.Record(r.Index, r) },
		}
		if err := p.enqueue(item); err != nil {
			// Pool gone: the task never ran.
			agg.Record(i, Result[R]{Status: StatusCancelled, Err: err})
		}
	}
	// Mark everything past the cancellation point without dispatching.
	for ; i < n; i++ {
		agg.Record(i, Result[R]{Status: StatusCancelled, Err: tok.Err()})
	}

	<-agg.Done()
	results := agg.Collect()
	return results, buildReport(results, tok, time.Since(start))
}

func buildReport[R any](results []Result[R], tok *token.Token, elapsed time.Duration) BatchReport {
	rep := BatchReport{Total: len(results), Elapsed: elapsed}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			rep.Succeeded++
		case StatusFailed:
			rep.Failed++
		case StatusCancelled:
			rep.Cancelled++
		}
	}
	switch {
	case rep.Cancelled == 0:
		rep.Outcome = OutcomeAllCompleted
	case tok.Reason() == token.ReasonTimeout:
		rep.Outcome = OutcomeTimedOut
	default:
		rep.Outcome = OutcomePartiallyCancelled
	}
	return rep
}
