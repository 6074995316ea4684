package queue

import (
	"context"

	"pix-service/internal/dtos"
)

// EventQueueInterface buffers charge events between the request path and
// the notification workers. Dequeue blocks for a short while and returns
// ErrNoEventsInQueue when nothing arrived.
type EventQueueInterface interface {
	Enqueue(ctx context.Context, e *dtos.ChargeEvent) error
	Dequeue(ctx context.Context) (*dtos.ChargeEvent, error)
	Len(ctx context.Context) (int64, error)
	Close() error
}
