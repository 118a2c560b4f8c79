package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunInitScaffoldsFiles(t *testing.T) {
	dir := t.TempDir()
	initPath = dir
	initFormat = "toml"
	t.Cleanup(func() { initPath = "."; initFormat = "toml" })

	require.NoError(t, runInit(initCmd, nil))

	require.FileExists(t, filepath.Join(dir, "chimney.toml"))
	require.FileExists(t, filepath.Join(dir, "sites", "default", "chimney.toml"))
	require.FileExists(t, filepath.Join(dir, "sites", "default", "index.html"))
}

func TestRunInitDoesNotOverwriteExisting(t *testing.T) {
	dir := t.TempDir()
	initPath = dir
	initFormat = "toml"
	t.Cleanup(func() { initPath = "."; initFormat = "toml" })

	rootConfigPath := filepath.Join(dir, "chimney.toml")
	require.NoError(t, os.WriteFile(rootConfigPath, []byte("custom = true\n"), 0o644))

	require.NoError(t, runInit(initCmd, nil))

	raw, err := os.ReadFile(rootConfigPath)
	require.NoError(t, err)
	require.Equal(t, "custom = true\n", string(raw))
}

func TestRunInitRejectsUnsupportedFormat(t *testing.T) {
	initPath = t.TempDir()
	initFormat = "yaml"
	t.Cleanup(func() { initPath = "."; initFormat = "toml" })

	err := runInit(initCmd, nil)
	require.Error(t, err)
}
