package services

import (
	"context"
	"log/slog"
	"time"

	internalErrors "pix-service/internal/errors"
	"pix-service/internal/gateway"
	"pix-service/internal/retry"
)

// ProcessorManager sends charge creations to the gateway, retrying the
// failures the gateway client classifies as transient.
type ProcessorManager struct {
	gw       gateway.PaymentGatewayInterface
	executor *retry.Executor
	logger   *slog.Logger
}

// NewProcessorManager works on a copy of executor. Retries are logged and
// then passed to executor's own OnRetry, if any.
func NewProcessorManager(gw gateway.PaymentGatewayInterface, executor *retry.Executor, logger *slog.Logger) *ProcessorManager {
	pm := &ProcessorManager{
		gw:     gw,
		logger: logger,
	}

	exec := *executor
	hook := executor.OnRetry
	exec.OnRetry = func(attempt int, delay time.Duration, err error) {
		pm.logRetry(attempt, delay, err)
		if hook != nil {
			hook(attempt, delay, err)
		}
	}
	pm.executor = &exec

	return pm
}

func (pm *ProcessorManager) Dispatch(ctx context.Context, spec gateway.ChargeSpec) (*gateway.ChargeResult, error) {
	var result *gateway.ChargeResult

	err := pm.executor.Execute(ctx, func(ctx context.Context) error {
		r, err := pm.gw.CreateCharge(ctx, spec)
		if err != nil {
			return err
		}
		result = r
		return nil
	}, gateway.Classify)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (pm *ProcessorManager) logRetry(attempt int, delay time.Duration, err error) {
	pm.logger.Warn("gateway call failed, retrying",
		"attempt", attempt,
		"delay", delay,
		"kind", internalErrors.KindOf(err),
		"error", err,
	)
}
