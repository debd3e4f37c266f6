package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kvvault.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bind_port: 7000\nmax_backups: 5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7000, cfg.BindPort)
	require.Equal(t, 5, cfg.MaxBackups)
	require.Equal(t, Default().BindHost, cfg.BindHost)
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kvvault.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bind_port: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
