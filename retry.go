package racunis

import (
	"context"
	"time"

	"github.com/mrcointreau/racunis/internal"
)

// ProcessorFunc is a unit of work retried by retryProcessor.
type ProcessorFunc func(ctx context.Context) error

// retryProcessor calls fn up to maxAttempts total times (the first attempt
// counts toward the limit, per spec §4.5 and §9's preserved naming
// imprecision). A panic inside fn is recovered and treated as a failed
// attempt. On success it returns nil immediately. On exhaustion, or if ctx
// is cancelled between attempts, it returns a *MaxRetriesError reporting the
// number of attempts actually made (not necessarily maxAttempts) and
// wrapping the last failure. Between attempts it sleeps delay, honouring ctx
// cancellation.
func retryProcessor(ctx context.Context, fn ProcessorFunc, maxAttempts int, delay time.Duration) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	attempt := 0
	for attempt = 1; attempt <= maxAttempts; attempt++ {
		lastErr = callProcessor(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		if !internal.Sleep(ctx, delay) {
			break
		}
	}
	return &MaxRetriesError{Attempts: attempt, Cause: lastErr}
}

func callProcessor(ctx context.Context, fn ProcessorFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = normaliseError(r)
		}
	}()
	return fn(ctx)
}
