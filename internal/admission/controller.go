package admission

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"pix-service/internal/entities"
	internalErrors "pix-service/internal/errors"

	"golang.org/x/sync/semaphore"
)

// Controller bounds how many charge creations run at once. Callers beyond
// the limit wait up to AdmitTimeout for a slot.
type Controller struct {
	sem           *semaphore.Weighted
	maxConcurrent int64
	admitTimeout  time.Duration

	inFlight  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

// Lease is one occupied slot. Release is safe to call more than once.
type Lease struct {
	c    *Controller
	once sync.Once
}

func NewController(maxConcurrent int, admitTimeout time.Duration) *Controller {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Controller{
		sem:           semaphore.NewWeighted(int64(maxConcurrent)),
		maxConcurrent: int64(maxConcurrent),
		admitTimeout:  admitTimeout,
	}
}

// Admit grants a lease or fails with an OVERLOAD_ERROR once AdmitTimeout
// elapses. Cancellation of ctx itself is returned as is.
func (c *Controller) Admit(ctx context.Context) (*Lease, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.admitTimeout)
	defer cancel()

	if err := c.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.rejected.Add(1)
		return nil, &internalErrors.ChargeError{
			Kind:    internalErrors.KindOverload,
			Message: "server overloaded, try again later",
			Err:     internalErrors.ErrServerOverloaded,
		}
	}

	c.inFlight.Add(1)
	return &Lease{c: c}, nil
}

func (l *Lease) Release() {
	l.once.Do(func() {
		l.c.inFlight.Add(-1)
		l.c.sem.Release(1)
	})
}

// Run admits the caller, runs fn and releases the lease on every exit path,
// panics included. Outcomes of admitted calls feed the processed and failed
// totals.
func (c *Controller) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	lease, err := c.Admit(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	err = fn(ctx)
	c.processed.Add(1)
	if err != nil {
		c.failed.Add(1)
	}
	return err
}

func (c *Controller) Stats() entities.AdmissionStats {
	return entities.AdmissionStats{
		InFlight:       c.inFlight.Load(),
		MaxConcurrent:  c.maxConcurrent,
		TotalProcessed: c.processed.Load(),
		TotalFailed:    c.failed.Load(),
		TotalRejected:  c.rejected.Load(),
	}
}

// IsOverloaded reports whether err is an admission rejection.
func IsOverloaded(err error) bool {
	return errors.Is(err, internalErrors.ErrServerOverloaded)
}
