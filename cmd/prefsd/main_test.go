package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, storePath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefsd.yaml")
	data := "store:\n  path: " + storePath + "\nhttp:\n  enabled: false\ntelegram:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestRun_ReturnsStartupErrors(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	err := run(writeConfig(t, filepath.Join(blocker, "prefs.db")))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open preferences database")
}

func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefsd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o600))

	err := run(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
