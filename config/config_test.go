package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
ListenAddress = ":7331"
Seeds = ["0xabc@203.0.113.1:7331"]
MaxPeers = 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "driftnet-local", cfg.NetworkName)
	require.Equal(t, "./driftnet-data", cfg.DataDir)
	require.Equal(t, filepath.Join(filepath.Dir(path), "node_key.json"), cfg.NodeKeyPath)
	require.Equal(t, 64, cfg.MaxPeers)
	require.Equal(t, []string{"0xabc@203.0.113.1:7331"}, cfg.Seeds)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
ListenAddress = ":7331"
Bogus = true
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
ListenAddress = ""
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh", "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":7331", cfg.ListenAddress)
	require.FileExists(t, path)

	// Loading the generated file again round-trips.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ListenAddress, again.ListenAddress)
	require.Equal(t, cfg.NetworkName, again.NetworkName)
}

func TestValidate(t *testing.T) {
	cfg := &Config{ListenAddress: ":7331", Seeds: []string{" "}}
	require.Error(t, cfg.Validate())

	cfg = &Config{ListenAddress: ":7331", MaxPeers: -1}
	require.Error(t, cfg.Validate())

	cfg = &Config{ListenAddress: ":7331"}
	require.NoError(t, cfg.Validate())
}
