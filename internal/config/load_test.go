package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MP_PUBLIC_KEY", "")
	t.Setenv("MP_SECRET_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, DefaultAPIURL, cfg.GatewayURL)
	assert.InDelta(t, 12.90, cfg.ChargeAmount, 0.0001)
	assert.Equal(t, 1, cfg.ChargeValidityDays)
	assert.Equal(t, 10*time.Second, cfg.AdmitTimeout)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 15*time.Second, cfg.MonitorInterval)
	assert.Equal(t, 5760, cfg.MonitorMaxAttempts)
	assert.Equal(t, "memory", cfg.NotifyQueue)
	assert.False(t, cfg.GatewayConfigured())
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("MP_PUBLIC_KEY", "pub")
	t.Setenv("MP_SECRET_KEY", "sec")
	t.Setenv("MP_API_URL", "http://gateway.local/api/v1/")
	t.Setenv("PIX_VALOR", "25.5")
	t.Setenv("MONITOR_INTERVAL", "30s")
	t.Setenv("ADMIT_TIMEOUT", "250ms")
	t.Setenv("MAX_CONCURRENT", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.GatewayConfigured())
	assert.Equal(t, "http://gateway.local/api/v1", cfg.GatewayURL)
	assert.InDelta(t, 25.5, cfg.ChargeAmount, 0.0001)
	assert.Equal(t, 30*time.Second, cfg.MonitorInterval)
	assert.Equal(t, 2880, cfg.MonitorMaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.AdmitTimeout)
	assert.Equal(t, 2, cfg.MaxConcurrent)
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	t.Setenv("MAX_CONCURRENT", "0")
	t.Setenv("NOTIFY_QUEUE", "kafka")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_CONCURRENT")
	assert.Contains(t, err.Error(), "NOTIFY_QUEUE")
}
