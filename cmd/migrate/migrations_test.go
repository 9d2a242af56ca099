package main

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectMigrations_DiskMatchesEmbedded(t *testing.T) {
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	t.Setenv("MIGRATIONS_DIR", "")
	fsys, dir := migrationSource()
	goose.SetBaseFS(fsys)
	embedded, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	require.NoError(t, err)

	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok)
	// this file lives in cmd/migrate/, so repo root is ../..
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", ".."))
	t.Setenv("MIGRATIONS_DIR", filepath.Join(repoRoot, "db", "migrations"))
	fsys, dir = migrationSource()
	goose.SetBaseFS(fsys)
	onDisk, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	require.NoError(t, err)

	require.Len(t, onDisk, len(embedded))
	for i := range embedded {
		assert.Equal(t, embedded[i].Version, onDisk[i].Version)
	}
}
