package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_SkipsMissingFiles(t *testing.T) {
	tmp := t.TempDir()

	envFile := filepath.Join(tmp, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TRADECOVE_TEST_ENV_LOAD=ok\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("TRADECOVE_TEST_ENV_LOAD") })

	n, err := LoadEnv([]string{envFile, filepath.Join(tmp, ".env.local")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ok", os.Getenv("TRADECOVE_TEST_ENV_LOAD"))
}

func TestLoadEnv_NoFiles(t *testing.T) {
	n, err := LoadEnv([]string{filepath.Join(t.TempDir(), ".env")})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCacheOptions_Validate(t *testing.T) {
	valid := CacheOptions{Driver: CacheDriverRedis, TTL: time.Minute}
	assert.NoError(t, valid.Validate())

	valid.Driver = CacheDriverMemory
	assert.NoError(t, valid.Validate())

	invalid := CacheOptions{Driver: "memcached", TTL: time.Minute}
	assert.Error(t, invalid.Validate())

	invalid = CacheOptions{Driver: CacheDriverRedis, TTL: 0}
	assert.Error(t, invalid.Validate())
}

func TestDatabaseOptions_ConnectionString(t *testing.T) {
	opts := DatabaseOptions{
		Name:     "catalog",
		Host:     "db.internal",
		Port:     "5433",
		User:     "svc",
		Password: "secret",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=svc dbname=catalog password=secret sslmode=disable",
		opts.ConnectionString(),
	)
}
