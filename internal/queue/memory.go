package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"pix-service/internal/dtos"
	internalErrors "pix-service/internal/errors"
)

var ErrQueueFull = errors.New("event queue is full")

type MemoryQueue struct {
	events  chan *dtos.ChargeEvent
	timeout time.Duration

	closeOnce sync.Once
	closed    chan struct{}
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1024
	}
	return &MemoryQueue{
		events:  make(chan *dtos.ChargeEvent, size),
		timeout: time.Second,
		closed:  make(chan struct{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, e *dtos.ChargeEvent) error {
	select {
	case <-q.closed:
		return errors.New("event queue is closed")
	default:
	}

	select {
	case q.events <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*dtos.ChargeEvent, error) {
	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case e := <-q.events:
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.closed:
		return nil, internalErrors.ErrNoEventsInQueue
	case <-timer.C:
		return nil, internalErrors.ErrNoEventsInQueue
	}
}

func (q *MemoryQueue) Len(ctx context.Context) (int64, error) {
	return int64(len(q.events)), nil
}

func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.closed) })
	return nil
}
