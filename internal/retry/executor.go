package retry

import (
	"context"
	"time"
)

type Class int

const (
	Fatal Class = iota
	Retryable
)

func (c Class) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "fatal"
}

// Classifier decides whether a failure is worth another attempt.
type Classifier func(error) Class

// Executor runs one operation with linear backoff: the delay before retry k
// is k*BaseDelay. It keeps no state between Execute calls.
type Executor struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// OnRetry, when set, is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)

	sleep func(ctx context.Context, d time.Duration) error
}

func NewExecutor(maxAttempts int, baseDelay time.Duration) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Executor{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		sleep:       sleepContext,
	}
}

// Execute calls op until it succeeds, classify reports Fatal, or MaxAttempts
// is reached. The last observed failure is returned.
func (e *Executor) Execute(ctx context.Context, op func(ctx context.Context) error, classify Classifier) error {
	sleep := e.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= e.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if classify(lastErr) == Fatal || attempt == e.MaxAttempts {
			return lastErr
		}

		delay := time.Duration(attempt) * e.BaseDelay
		if e.OnRetry != nil {
			e.OnRetry(attempt, delay, lastErr)
		}
		if err := sleep(ctx, delay); err != nil {
			return lastErr
		}
	}

	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
