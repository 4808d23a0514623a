package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/camina-segura/pkg/store"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadExplicitPathKeepsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.yaml", `
storage:
  backend: redis
redis:
  addr: cache:6379
routing:
  seed: 7
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "caminasegura", cfg.Redis.Key)
	assert.Equal(t, int64(7), cfg.Routing.Seed)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5432, cfg.PostGIS.Port)
}

func TestLoadFallbacks(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BuiltinLabel, cfg.Source)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)

	writeFile(t, dir, ExamplePath, "storage:\n  backend: memory\n")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, ExamplePath, cfg.Source)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)

	writeFile(t, dir, DefaultPath, "storage:\n  backend: postgis\n")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPath, cfg.Source)
	assert.Equal(t, BackendPostGIS, cfg.Storage.Backend)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "bad.yaml", "storage: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = Load(writeFile(t, dir, "backend.yaml", "storage:\n  backend: sqlite\n"))
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = Load(writeFile(t, dir, "level.yaml", "log:\n  level: loud\n"))
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	assert.Equal(t, logrus.DebugLevel, cfg.NewLogger().GetLevel())
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	log := logrus.New()

	cfg := Default()
	cfg.Storage.Backend = BackendMemory
	s, closer, err := cfg.OpenStore(ctx, log)
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, s)
	assert.NoError(t, closer.Close())

	cfg.Storage.Backend = BackendFile
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "nested", "data")
	s, closer, err = cfg.OpenStore(ctx, log)
	require.NoError(t, err)
	assert.IsType(t, &store.File{}, s)
	assert.NoError(t, closer.Close())
	assert.DirExists(t, cfg.Storage.DataDir)

	cfg.Storage.Backend = "bolt"
	_, _, err = cfg.OpenStore(ctx, log)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestExampleConfigParses(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", ExamplePath))
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, int64(0), cfg.Routing.Seed)
}
