package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/lspboost/booster"
	"github.com/lexcodex/lspboost/persistence"
)

func withFakeBooster(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, booster.ProgramName)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir)
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRewriteCommandWrapsArgv(t *testing.T) {
	withFakeBooster(t)
	ws := t.TempDir()

	out, err := runCommand(t, "--workspace", ws, "rewrite", "--", "gopls", "serve")
	require.NoError(t, err)
	require.Contains(t, out, booster.ProgramName)
	require.Contains(t, out, "--json-false-value")
	require.True(t, strings.HasSuffix(strings.TrimSpace(out), "gopls serve"))
}

func TestRewriteCommandRequiresArgs(t *testing.T) {
	withFakeBooster(t)
	_, err := runCommand(t, "--workspace", t.TempDir(), "rewrite")
	require.Error(t, err)
}

func TestRewriteCommandFailsWithoutBooster(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := runCommand(t, "--workspace", t.TempDir(), "rewrite", "--", "gopls")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found on PATH")
}

func TestStatusReportsMissingBooster(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	out, err := runCommand(t, "--workspace", t.TempDir(), "status")
	require.NoError(t, err)
	require.Contains(t, out, "not found on PATH")
}

func TestMonitorViewRendersRecords(t *testing.T) {
	model := newMonitorModel(nil, time.Second)
	model.records = []persistence.SessionRecord{
		{ID: "s1", Command: "lsp-booster -- gopls serve", Profile: "full", Boosted: true,
			StartedAt: time.Now(), Frames: 10, BinaryFrames: 5, BytesRead: 2048},
		{ID: "s2", Command: "pylsp", StartedAt: time.Now(), Frames: 3},
	}
	view := model.View()
	require.Contains(t, view, "boosted")
	require.Contains(t, view, "plain")
	require.Contains(t, view, "50%")
	require.Contains(t, view, "gopls serve")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Len(t, []rune(truncate("a long command line string", 10)), 10)
}
