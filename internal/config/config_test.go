package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAndHelpers(t *testing.T) {
	c := defaultConfig()

	assert.Equal(t, "ethereum", c.Chain.Name)
	assert.Equal(t, 30*time.Second, c.ChainTimeout())
	assert.Equal(t, 200*time.Millisecond, c.BlockDelay())
	assert.Equal(t, 10*time.Minute, c.CacheTTL())

	// Out-of-range values fall back to sane defaults.
	c.Chain.TimeoutSeconds = -1
	c.Scan.BlockDelayMS = 0
	c.Cache.TTLMinutes = 0
	assert.Equal(t, 30*time.Second, c.ChainTimeout())
	assert.Equal(t, 200*time.Millisecond, c.BlockDelay())
	assert.Equal(t, 10*time.Minute, c.CacheTTL())
}

func TestValidateRequiresRPCURLs(t *testing.T) {
	c := defaultConfig()
	assert.Error(t, c.validate())

	c.Chain.RPCURLs = []string{"https://example.invalid/rpc"}
	require.NoError(t, c.validate())
}

func TestValidateRepairsScanSettings(t *testing.T) {
	c := defaultConfig()
	c.Chain.RPCURLs = []string{"https://example.invalid/rpc"}
	c.Scan.BlocksToAnalyze = -3
	c.Scan.SampleCeiling = 0

	require.NoError(t, c.validate())
	assert.Equal(t, 5, c.Scan.BlocksToAnalyze)
	assert.Equal(t, 50, c.Scan.SampleCeiling)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RPC_URLS", " https://a.invalid , https://b.invalid ,")
	t.Setenv("PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")

	c := defaultConfig()
	applyEnvOverrides(c)

	assert.Equal(t, []string{"https://a.invalid", "https://b.invalid"}, c.Chain.RPCURLs)
	assert.Equal(t, "9999", c.Server.Port)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, []string{"https://app.example.com"}, c.Server.CORSOrigins)
}
