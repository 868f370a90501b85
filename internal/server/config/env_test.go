package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseEnv(t *testing.T) {
	t.Setenv("USERS_HTTP_ADDRESS", ":7000")
	t.Setenv("USERS_ACCESS_TOKEN_VALIDITY", "2h")
	t.Setenv("USERS_REQUIRE_CURRENT_PASSWORD", "true")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":7000", cfg.HTTPAddress)
	assert.Equal(t, 2*time.Hour, cfg.AccessTokenValidityDuration)
	assert.True(t, cfg.RequireCurrentPassword)
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver, "unset variables keep their value")
}

func TestParseEnv_InvalidValuePanics(t *testing.T) {
	t.Setenv("USERS_ACCESS_TOKEN_VALIDITY", "forever")

	assert.Panics(t, func() { parseEnv(&Config{}) })
}
