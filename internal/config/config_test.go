package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 720*time.Hour, cfg.TokenLifetime)
	assert.Equal(t, time.Second, cfg.RateLimitReact)
	assert.Equal(t, 10*time.Second, cfg.RateLimitComment)
	assert.Equal(t, time.Minute, cfg.RateLimitStory)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_REACT", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimitReact)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("TOKEN_LIFETIME", "soon")

	_, err := Load()
	assert.Error(t, err)
}
