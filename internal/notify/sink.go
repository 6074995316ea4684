package notify

import (
	"context"
	"errors"

	"pix-service/internal/dtos"
)

// Sink delivers one charge event to an external system.
type Sink interface {
	Send(ctx context.Context, e dtos.ChargeEvent) error
	Name() string
}

// FanoutSink delivers every event to all of its sinks and joins their errors.
type FanoutSink []Sink

func (f FanoutSink) Send(ctx context.Context, e dtos.ChargeEvent) error {
	var errs []error
	for _, s := range f {
		if err := s.Send(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f FanoutSink) Name() string {
	return "fanout"
}
