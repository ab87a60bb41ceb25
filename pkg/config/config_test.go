package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", EnvDevelopment)
	t.Setenv("RATE_LIMIT_TTL", "30")
	t.Setenv("CORS_ORIGIN", "http://a.test, http://b.test")
	t.Setenv("API_PREFIX", "api/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.TTL)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 15*time.Minute, cfg.Auth.ResetTokenTTL)
}

func TestLoadWildcardOriginAllowsAll(t *testing.T) {
	t.Setenv("CORS_ORIGIN", "*")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestValidateRejectsShortSecretInProduction(t *testing.T) {
	cfg := &Config{Env: EnvProduction, Port: 3001, JWT: JWTConfig{Secret: "short"}}
	assert.Error(t, cfg.Validate())

	cfg.Env = EnvDevelopment
	assert.NoError(t, cfg.Validate())
}

func TestExposeResetTokenOnlyInDevelopment(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("EXPOSE_RESET_TOKEN", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Auth.ExposeResetToken)
}

func TestDSNPrefersURL(t *testing.T) {
	cfg := DatabaseConfig{URL: "postgres://u:p@db:5432/x", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN())

	cfg.URL = ""
	cfg.Port = 5432
	assert.Contains(t, cfg.DSN(), "host=ignored port=5432")
}

func TestParseSeconds(t *testing.T) {
	assert.Equal(t, 45*time.Second, parseSeconds("45", time.Minute))
	assert.Equal(t, 2*time.Minute, parseSeconds("2m", time.Minute))
	assert.Equal(t, time.Minute, parseSeconds("garbage", time.Minute))
	assert.Equal(t, time.Minute, parseSeconds("0", time.Minute))
}
