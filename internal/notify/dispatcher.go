package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"pix-service/internal/dtos"
	internalErrors "pix-service/internal/errors"
	"pix-service/internal/queue"

	"github.com/google/uuid"
)

// Dispatcher decouples event delivery from the caller: Publish only enqueues,
// and a fixed pool of workers drains the queue into the sink. Delivery
// failures are logged and dropped.
type Dispatcher struct {
	q       queue.EventQueueInterface
	sink    Sink
	workers int
	timeout time.Duration
	logger  *slog.Logger

	wg        sync.WaitGroup
	delivered atomic.Int64
	failed    atomic.Int64
}

type Stats struct {
	Delivered int64
	Failed    int64
}

func NewDispatcher(q queue.EventQueueInterface, sink Sink, workers int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		q:       q,
		sink:    sink,
		workers: workers,
		timeout: timeout,
		logger:  logger,
	}
}

// Publish enqueues e for delivery. It never fails the caller.
func (d *Dispatcher) Publish(ctx context.Context, e dtos.ChargeEvent) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := d.q.Enqueue(enqueueCtx, &e); err != nil {
		d.failed.Add(1)
		d.logger.Error("failed to enqueue notification", "event", e.Type, "transaction_id", e.TransactionID, "error", err)
	}
}

// Start launches the workers. They stop once ctx is cancelled; Wait blocks
// until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(workerID int) {
			defer d.wg.Done()
			d.worker(ctx, workerID)
		}(i)
	}
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) Stats() Stats {
	return Stats{Delivered: d.delivered.Load(), Failed: d.failed.Load()}
}

func (d *Dispatcher) worker(ctx context.Context, workerID int) {
	for {
		if ctx.Err() != nil {
			return
		}

		event, err := d.q.Dequeue(ctx)
		if err != nil {
			switch {
			case errors.Is(err, internalErrors.ErrNoEventsInQueue):
			case ctx.Err() != nil:
				return
			default:
				d.logger.Error("notification worker error", "workerID", workerID, "error", err)
				time.Sleep(100 * time.Millisecond)
			}
			continue
		}

		d.deliver(*event)
	}
}

func (d *Dispatcher) deliver(e dtos.ChargeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sink.Send(ctx, e); err != nil {
		d.failed.Add(1)
		d.logger.Error("notification delivery failed",
			"sink", d.sink.Name(),
			"event", e.Type,
			"transaction_id", e.TransactionID,
			"error", err,
		)
		return
	}
	d.delivered.Add(1)
}
