package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := Load(zap.NewNop())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.WebPort)
	assert.Equal(t, 120*time.Second, cfg.RecommendTimeout)
	assert.Equal(t, 3, cfg.RecommendMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.RecommendRetryDelay)
	assert.True(t, cfg.SessionDiscardStale)
	assert.Equal(t, 60*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CleanupInterval)
	assert.Equal(t, "http://localhost:8000", cfg.ServiceBaseURL())
}

func TestServiceFallbackIgnoresWebPort(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WEB_PORT", "8000")

	cfg := Load(zap.NewNop())
	assert.Equal(t, DefaultServiceBaseURL, cfg.ServiceBaseURL())

	cfg.WebPort = 9090
	assert.Equal(t, DefaultServiceBaseURL, cfg.ServiceBaseURL())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RECOMMEND_BASE_URL", " http://rec.internal:8000/ ")
	t.Setenv("RECOMMEND_TIMEOUT", "30")
	t.Setenv("RECOMMEND_MAX_ATTEMPTS", "0")
	t.Setenv("SESSION_DISCARD_STALE", "false")

	cfg := Load(zap.NewNop())

	assert.Equal(t, "http://rec.internal:8000", cfg.ServiceBaseURL())
	assert.Equal(t, 30*time.Second, cfg.RecommendTimeout)
	assert.Equal(t, 1, cfg.RecommendMaxAttempts)
	assert.False(t, cfg.SessionDiscardStale)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "debug",
		"WARNING": "warn",
		" error ": "error",
		"bogus":   "info",
		"":        "info",
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in).String(), in)
	}
}
