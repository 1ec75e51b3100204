package engine

import (
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	res EvalResult
	err error
}

// waitWithTimeout waits for the evaluation on ch. A result whose generation
// is no longer current is dropped in favour of the newer call.
//
// On timeout the evaluating goroutine keeps running; the buffered channel
// lets it finish and its result is never read.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
	timeout time.Duration,
) (EvalResult, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()
		if gen != current {
			return EvalResult{}, fmt.Errorf("evaluation superseded by newer request")
		}
		return r.res, r.err
	case <-timer.C:
		return EvalResult{}, fmt.Errorf("evaluation timed out after %s", timeout)
	}
}
