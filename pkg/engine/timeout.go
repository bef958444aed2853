package engine

import (
	"fmt"
	"time"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// evalResult passes evaluation results through channels.
type evalResult struct {
	result *EvalResult
	err    error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if the evaluation exceeds the engine's timeout. The generation counter
// discards results of evaluations that a newer call has superseded.
//
// On timeout, the goroutine may still be running; the generation check
// ensures its result is discarded when it eventually completes.
func (e *Engine) waitWithTimeout(ch <-chan evalResult, gen uint64) (*EvalResult, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()

		if gen != current {
			return nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.result, res.err

	case <-timer.C:
		return nil, fmt.Errorf("evaluation timed out after %s", e.timeout)
	}
}
