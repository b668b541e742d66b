package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("petstore")
	require.NoError(t, err)

	assert.Equal(t, "petstore", cfg.Service.Name)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.Equal(t, "petstore", cfg.Database.Database)
	assert.Equal(t, 5*time.Minute, cfg.Cache.DefaultTTL)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "public/images", cfg.Storage.ImageDir)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_REPLICA_HOST", "db-ro.internal")
	t.Setenv("CACHE_DEFAULT_TTL", "30s")
	t.Setenv("CACHE_ENABLED", "false")

	cfg, err := Load("petstore")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Service.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 30*time.Second, cfg.Cache.DefaultTTL)
	assert.False(t, cfg.Cache.Enabled)

	assert.Contains(t, cfg.DatabaseURL(), "db.internal:5432")
	assert.Contains(t, cfg.ReplicaURL(), "db-ro.internal:5432")
}

func TestReplicaURLFallsBackToPrimary(t *testing.T) {
	cfg, err := Load("petstore")
	require.NoError(t, err)

	assert.Equal(t, cfg.DatabaseURL(), cfg.ReplicaURL())
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg, err := Load("petstore")
	require.NoError(t, err)

	cfg.Service.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Service.Port = 8080
	cfg.Database.Host = ""
	assert.Error(t, cfg.Validate())

	cfg.Database.Host = "localhost"
	cfg.Database.MaxConns = 1
	cfg.Database.MinConns = 10
	assert.Error(t, cfg.Validate())
}
