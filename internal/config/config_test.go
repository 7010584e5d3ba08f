package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cicerone-chat/cicerone/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "report", cfg.CyclePolicy)
	assert.Equal(t, "reject", cfg.DepthPolicy)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cicerone.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
handover_keyword: agent
cycle_policy: ignore
redis:
  address: localhost:6379
  db: 2
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "agent", cfg.HandoverKeyword)
	assert.Equal(t, "ignore", cfg.CyclePolicy)
	require.NotNil(t, cfg.Redis)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unclosed"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}
