package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ADDR", "GIN_MODE", "DB_DRIVER", "DB_DSN", "JWT_SECRET", "DISPATCHER_USERNAME",
		"DISPATCHER_PASSWORD_HASH", "DISPATCHER_PASSWORD", "SESSION_TTL", "CORS_ALLOWED_ORIGINS",
		"TIMEZONE", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadEnv_Defaults(t *testing.T) {
	clearEnv(t)

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", env.AppAddr)
	assert.Equal(t, "memory", env.DBDriver)
	assert.Equal(t, 24*time.Hour, env.SessionTTL)
	assert.Equal(t, "admin", env.DispatcherUsername)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(env.DispatcherPassHash), []byte("admin")))
	assert.Len(t, env.Warnings, 2)
	assert.NotEmpty(t, env.CORSAllowedOrigins)
}

func TestLoadEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("DISPATCHER_PASSWORD", "hunter22")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://desk.example.org, ,https://ops.example.org")
	t.Setenv("LOG_FORMAT", "json")

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "mysql", env.DBDriver)
	assert.NotEmpty(t, env.DBDSN)
	assert.Equal(t, 90*time.Minute, env.SessionTTL)
	assert.Equal(t, time.UTC, env.Location)
	assert.Equal(t, []string{"https://desk.example.org", "https://ops.example.org"}, env.CORSAllowedOrigins)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(env.DispatcherPassHash), []byte("hunter22")))
	assert.Empty(t, env.Warnings)
}

func TestLoadEnv_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":          {"DB_DRIVER": "sqlite"},
		"postgres without dsn":    {"DB_DRIVER": "postgres"},
		"bad ttl":                 {"SESSION_TTL": "one day"},
		"negative ttl":            {"SESSION_TTL": "-1h"},
		"bad timezone":            {"TIMEZONE": "Mars/Olympus"},
		"short secret":            {"JWT_SECRET": "short"},
		"release with dev secret": {"GIN_MODE": "release"},
		"bad log format":          {"LOG_FORMAT": "xml"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := LoadEnv()
			assert.Error(t, err)
		})
	}
}

func TestDriverDSN(t *testing.T) {
	driver, dsn, err := driverDSN(Env{DBDriver: "mysql", DBDSN: "user:pw@tcp(db:3306)/desk", Location: time.UTC})
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "clientFoundRows=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	driver, dsn, err = driverDSN(Env{DBDriver: "postgres", DBDSN: "postgres://u:p@db/desk"})
	require.NoError(t, err)
	assert.Equal(t, "pgx", driver)
	assert.Equal(t, "postgres://u:p@db/desk", dsn)

	_, _, err = driverDSN(Env{DBDriver: "memory"})
	assert.Error(t, err)
}
