package pool

import (
	"math"
	"time"
)

// backoffDelay returns the exponential backoff delay for a retry.
// attemptNumber is 0-indexed: attempt 0 waits initialDelay, attempt 1
// waits 2*initialDelay, and so on.
func backoffDelay(initialDelay time.Duration, attemptNumber int) time.Duration {
	if attemptNumber < 0 {
		return 0
	}
	factor := math.Pow(2, float64(attemptNumber))
	return time.Duration(float64(initialDelay) * factor)
}

// waitUntil blocks until d is closed or the timeout elapses.
// timeout <= 0 waits forever.
func waitUntil(d <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-d
		return nil
	}
	select {
	case <-d:
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}
