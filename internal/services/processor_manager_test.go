package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	internalErrors "pix-service/internal/errors"
	"pix-service/internal/gateway"
	"pix-service/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProcessorManager_LeavesExecutorUntouched(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	executor := retry.NewExecutor(2, time.Millisecond)

	serverErr := &internalErrors.ChargeError{Kind: internalErrors.KindServer, Message: "down", StatusCode: 503}
	gw := &stubGateway{failures: []error{serverErr}, statuses: map[string]string{}}

	pm := NewProcessorManager(gw, executor, logger)
	assert.Nil(t, executor.OnRetry)

	result, err := pm.Dispatch(context.Background(), gateway.ChargeSpec{Amount: 12.90, Reference: "API-1-1"})
	require.NoError(t, err)
	assert.Equal(t, "tx-1", result.TransactionID)
	assert.Equal(t, 2, gw.calls)
	assert.Nil(t, executor.OnRetry)
}

func TestNewProcessorManager_KeepsCallerRetryHook(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	executor := retry.NewExecutor(3, time.Millisecond)

	var attempts []int
	executor.OnRetry = func(attempt int, delay time.Duration, err error) {
		attempts = append(attempts, attempt)
	}

	rateLimited := &internalErrors.ChargeError{Kind: internalErrors.KindRateLimit, Message: "slow down", StatusCode: 429}
	gw := &stubGateway{failures: []error{rateLimited, rateLimited}, statuses: map[string]string{}}

	first := NewProcessorManager(gw, executor, logger)
	second := NewProcessorManager(gw, executor, logger)
	assert.NotSame(t, first.executor, second.executor)

	_, err := first.Dispatch(context.Background(), gateway.ChargeSpec{Amount: 12.90})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
}
