package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.APIPort)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.True(t, cfg.DBMigrate)
	assert.Equal(t, 3, cfg.ExpiryWarningDays)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=purifier sslmode=disable", cfg.GetDSN())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9000")
	t.Setenv("DB_DRIVER", DriverMemory)
	t.Setenv("AUTH_TOKEN", "secret")
	t.Setenv("EXPIRY_WARNING_DAYS", "7")
	t.Setenv("DB_MIGRATE", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.APIPort)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.Equal(t, "secret", cfg.AuthToken)
	assert.Equal(t, 7, cfg.ExpiryWarningDays)
	assert.False(t, cfg.DBMigrate)
}

func TestLoadConfigInvalid(t *testing.T) {
	for key, value := range map[string]string{
		"API_PORT":            "abc",
		"DB_PORT":             "x",
		"DB_MIGRATE":          "maybe",
		"EXPIRY_WARNING_DAYS": "-1",
		"DB_DRIVER":           "mongo",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestSetupLoggerFallsBackToInfo(t *testing.T) {
	cfg := &Config{LogLevel: "loud"}
	cfg.SetupLogger()
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
