package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("BACKEND_URL", "http://backend.local/api/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://backend.local/api", cfg.Backend.URL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.Itinerary.DraftTTL)
	assert.NotEmpty(t, cfg.Auth.SecretKey)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SECRET_KEY", "")

	_, err := Load()
	assert.ErrorContains(t, err, "SECRET_KEY is required")

	t.Setenv("SECRET_KEY", "too-short")
	_, err = Load()
	assert.ErrorContains(t, err, "at least 32 characters")

	t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("PORT", "9090")
	t.Setenv("DRAFT_TTL", "30m")
	t.Setenv("LOGIN_RATE_LIMIT", "not-a-number")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,172.16.0.1 ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.Itinerary.DraftTTL)
	assert.Equal(t, 10, cfg.Auth.LoginRateLimit)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, cfg.TrustedProxies)
}

func TestLoad_RejectsBadBackendURL(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("BACKEND_URL", "::not a url")

	_, err := Load()
	assert.Error(t, err)
}
