package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLock(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	unlock, err := client.Lock()
	require.NoError(t, err)

	lockPath := filepath.Join(tmpDir, ".scribe.lock")
	_, err = os.Stat(lockPath)
	assert.NoError(t, err, "lock file created while held")

	unlock()

	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err), "lock file removed after unlock")
}

func TestClientCustomLockName(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, ".custom.lock", nil)

	unlock, err := client.Lock()
	require.NoError(t, err)
	defer unlock()

	_, err = os.Stat(filepath.Join(tmpDir, ".custom.lock"))
	assert.NoError(t, err)
}

func TestClientInitAndStatus(t *testing.T) {
	if !IsInstalled() {
		t.Skip("git not installed")
	}
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	assert.False(t, client.IsRepo())
	require.NoError(t, client.Init())
	assert.True(t, client.IsRepo())

	_, err := os.Stat(filepath.Join(tmpDir, ".git"))
	assert.NoError(t, err)

	status, err := client.Status()
	require.NoError(t, err)
	assert.Empty(t, status, "fresh repo has a clean status")
}
