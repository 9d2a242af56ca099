package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeServer, cfg.Mode)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.Store.QueryTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("APP_MODE", "serverless")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeServerless, cfg.Mode)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-dotenv\nSTORE_DRIVER=memory\n"), 0o600))
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("STORE_DRIVER")
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("STORE_DRIVER")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.JWTSecret)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Mode:        ModeServer,
			JWTSecret:   "x",
			TokenTTL:    time.Hour,
			InitTimeout: 10 * time.Second,
			Store:       Store{Driver: DriverMongo, QueryTimeout: time.Second},
		}
	}

	c := valid()
	assert.NoError(t, c.Validate())

	c = valid()
	c.Mode = "lambda"
	assert.Error(t, c.Validate())

	c = valid()
	c.Store.Driver = "sqlite"
	assert.Error(t, c.Validate())

	c = valid()
	c.JWTSecret = ""
	assert.Error(t, c.Validate())

	c = valid()
	c.InitTimeout = 0
	assert.Error(t, c.Validate())
}

func TestLoad_RejectsNonPositiveInitTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("INIT_TIMEOUT", "0s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INIT_TIMEOUT")
}

func TestLoadStore_WithoutSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGO_DATABASE", "seeded")

	s, err := LoadStore()
	require.NoError(t, err)
	assert.Equal(t, DriverMongo, s.Driver)
	assert.Equal(t, "seeded", s.MongoDatabase)
	assert.Equal(t, 5*time.Second, s.QueryTimeout)

	t.Setenv("STORE_DRIVER", "sqlite")
	_, err = LoadStore()
	assert.Error(t, err)
}
