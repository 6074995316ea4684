package services

import (
	"context"

	"pix-service/internal/dtos"
	"pix-service/internal/entities"
	"pix-service/internal/gateway"
)

type ChargeServiceInterface interface {
	Process(ctx context.Context, req entities.ChargeRequest) (*entities.Charge, error)
}

type ProcessorManagerInterface interface {
	Dispatch(ctx context.Context, spec gateway.ChargeSpec) (*gateway.ChargeResult, error)
}

type ChargeRegistry interface {
	Register(charge *entities.Charge) error
}

type EventPublisher interface {
	Publish(ctx context.Context, e dtos.ChargeEvent)
}
