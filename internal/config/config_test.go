package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requiredVars() map[string]string {
	return map[string]string{
		"SECRET_KEY":                  "s3cret",
		"ALGORITHM":                   "HS256",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "30",
		"REFRESH_TOKEN_EXPIRE_DAYS":   "7",
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(requiredVars())
	require.NoError(t, err)

	assert.Equal(t, "./master.db", cfg.DatabasePath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.LoginLockoutWindow)
	assert.Equal(t, "task-manager", cfg.ServiceName)
	assert.False(t, cfg.LoginLimiterEnabled())

	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL())
}

func TestLoadFrom_Overrides(t *testing.T) {
	vars := requiredVars()
	vars["DATABASE_PATH"] = ":memory:"
	vars["REDIS_CONNSTRING"] = "localhost:6379"
	vars["LOGIN_LOCKOUT_WINDOW"] = "90s"

	cfg, err := LoadFrom(vars)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.DatabasePath)
	assert.True(t, cfg.LoginLimiterEnabled())
	assert.Equal(t, 90*time.Second, cfg.LoginLockoutWindow)
}

func TestLoadFrom_MissingRequired(t *testing.T) {
	for _, key := range []string{"SECRET_KEY", "ALGORITHM", "ACCESS_TOKEN_EXPIRE_MINUTES", "REFRESH_TOKEN_EXPIRE_DAYS"} {
		vars := requiredVars()
		delete(vars, key)

		_, err := LoadFrom(vars)
		assert.Error(t, err, key)
	}

	vars := requiredVars()
	vars["SECRET_KEY"] = ""
	_, err := LoadFrom(vars)
	assert.Error(t, err, "empty secret")
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"ALGORITHM":                   "RS256",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "0",
		"REFRESH_TOKEN_EXPIRE_DAYS":   "-1",
		"BCRYPT_COST":                 "3",
	}
	for key, value := range cases {
		vars := requiredVars()
		vars[key] = value

		_, err := LoadFrom(vars)
		assert.Error(t, err, key)
	}

	vars := requiredVars()
	vars["ACCESS_TOKEN_EXPIRE_MINUTES"] = "soon"
	_, err := LoadFrom(vars)
	assert.Error(t, err)
}

func TestLoadFrom_LimiterSettingsCheckedOnlyWhenEnabled(t *testing.T) {
	vars := requiredVars()
	vars["LOGIN_MAX_ATTEMPTS"] = "0"
	_, err := LoadFrom(vars)
	assert.NoError(t, err)

	vars["REDIS_CONNSTRING"] = "localhost:6379"
	_, err = LoadFrom(vars)
	assert.Error(t, err)
}

func TestLoadFrom_AlgorithmCaseInsensitive(t *testing.T) {
	vars := requiredVars()
	vars["ALGORITHM"] = "hs512"
	_, err := LoadFrom(vars)
	assert.NoError(t, err)
}
