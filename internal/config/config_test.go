package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "memory", cfg.Store.Backend)
	require.Equal(t, 24*time.Hour, cfg.JWT.TokenTTL)
	require.Equal(t, 4, cfg.Password.Cost)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfig_MissingSecretIsFatal(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig()
	require.ErrorIs(t, err, ErrMissingJWTSecret)
	require.Nil(t, cfg)
}

func TestLoadConfig_ShortSecretRejected(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("JWT_SECRET", "short")

	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestValidate_StoreBackends(t *testing.T) {
	cfg := &Config{}
	cfg.JWT.Secret = "0123456789abcdef0123"

	cfg.Store.Backend = "mongo"
	require.Error(t, cfg.Validate())
	cfg.MongoDB.URI = "mongodb://localhost:27017"
	require.NoError(t, cfg.Validate())

	cfg.Store.Backend = "postgres"
	require.Error(t, cfg.Validate())
	cfg.Postgres.URL = "postgres://localhost/seatrack"
	require.NoError(t, cfg.Validate())

	cfg.Store.Backend = "cassandra"
	require.Error(t, cfg.Validate())

	cfg.Store.Backend = ""
	require.NoError(t, cfg.Validate())
	require.Equal(t, "memory", cfg.Store.Backend)
}

func TestClampCost(t *testing.T) {
	require.Equal(t, bcrypt.DefaultCost, clampCost(0))
	require.Equal(t, bcrypt.MaxCost, clampCost(99))
	require.Equal(t, 12, clampCost(12))
}
