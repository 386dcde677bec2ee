package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CSRF_ENABLED", "false")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.False(t, cfg.Session.CSRFEnabled)
	assert.Equal(t, 12, cfg.Auth.BcryptCost, "invalid ints fall back to the default")
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 200, cfg.Upload.ProfileImageSize)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	_, err := Load()
	assert.Error(t, err)
}

func TestDurations(t *testing.T) {
	assert.Equal(t, 24*time.Hour, SessionConfig{}.TTL())
	assert.Equal(t, time.Minute, AuthConfig{}.LoginRateWindow())
	assert.Equal(t, time.Duration(0), AppConfig{}.RequestTimeout())
	assert.False(t, NotificationConfig{}.SMTPEnabled())
}
