package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/db"
)

func TestMigrationSource_EnvOverride(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "/custom/migrations")

	fsys, dir := migrationSource()
	assert.Nil(t, fsys)
	assert.Equal(t, "/custom/migrations", dir)
	assert.Equal(t, "/custom/migrations", createDir())
}

func TestMigrationSource_DefaultIsEmbedded(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "")

	fsys, dir := migrationSource()
	assert.Equal(t, db.Migrations, fsys)
	assert.Equal(t, db.MigrationsDir, dir)
	assert.Equal(t, "db/migrations", createDir())
}

func TestDatabaseDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	assert.Equal(t, defaultDSN, databaseDSN())

	t.Setenv("DB_DSN", "postgres://x@y/z")
	assert.Equal(t, "postgres://x@y/z", databaseDSN())
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, ".env")
	require.NoError(t, os.WriteFile(p, []byte("DB_DSN=from_file\n"), 0644))

	t.Setenv("DB_DSN", "from_env")
	t.Chdir(tmp)

	loadEnvFiles()

	assert.Equal(t, "from_env", os.Getenv("DB_DSN"))
}
