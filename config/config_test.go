package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.True(t, cfg.Enabled)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := Path(t.TempDir())
	want := &Config{
		Enabled:       true,
		NoRemoteBoost: true,
		IOOnly:        true,
		Program:       "custom-booster",
		FalseToken:    ":nope",
		LogFile:       "/tmp/lspboost.log",
	}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: [unclosed"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestOptionsMapping(t *testing.T) {
	cfg := &Config{NoRemoteBoost: true, IOOnly: true, Program: "p", FalseToken: ":f"}
	opts := cfg.Options()
	require.True(t, opts.NoRemoteBoost)
	require.True(t, opts.IOOnly)
	require.Equal(t, "p", opts.Program)
	require.Equal(t, ":f", opts.FalseToken)
}

func TestLedgerPathOrDefault(t *testing.T) {
	ws := t.TempDir()
	cfg := Default()
	require.Equal(t, DefaultLedgerPath(ws), cfg.LedgerPathOrDefault(ws))
	cfg.LedgerPath = "/var/lib/lspboost/sessions.db"
	require.Equal(t, "/var/lib/lspboost/sessions.db", cfg.LedgerPathOrDefault(ws))
}
