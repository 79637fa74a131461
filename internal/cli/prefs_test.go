package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	kv := NewFileKV(path)

	_, ok, err := kv.Get("theme")
	require.NoError(t, err)
	assert.False(t, ok, "missing file reads as absent")

	require.NoError(t, kv.Set("theme", "dark"))
	require.NoError(t, kv.Set("other", "x"))

	v, ok, err := NewFileKV(path).Get("theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileKV_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("values: [unclosed"), 0o600))

	_, _, err := NewFileKV(path).Get("theme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse prefs")
	require.Error(t, NewFileKV(path).Set("theme", "dark"))
}

func TestFileKV_NoPath(t *testing.T) {
	_, _, err := NewFileKV("").Get("theme")
	require.Error(t, err)
}
