package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("ENGINE_LOCK_BACKEND", "")
	t.Setenv("ENGINE_COUNT_UNVALIDATED_TIME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Engine.CountUnvalidatedTime)
	assert.Equal(t, "tickets.override_status", cfg.Engine.StatusOverridePermission)
	assert.Equal(t, LockBackendLocal, cfg.Engine.LockBackend)
	assert.Empty(t, cfg.Postgres.DSN)
}

func TestLoadEngineOverrides(t *testing.T) {
	t.Setenv("ENGINE_COUNT_UNVALIDATED_TIME", "false")
	t.Setenv("ENGINE_STATUS_OVERRIDE_PERMISSION", "tickets.admin")
	t.Setenv("ENGINE_LOCK_WAIT_MILLIS", "150")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Engine.CountUnvalidatedTime)
	assert.Equal(t, "tickets.admin", cfg.Engine.StatusOverridePermission)
	assert.Equal(t, int64(150), cfg.Engine.LockWait().Milliseconds())
}

func TestLoadRejectsRedisLockWithoutAddr(t *testing.T) {
	t.Setenv("ENGINE_LOCK_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "")

	_, err := Load()
	assert.Error(t, err)
}
