package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/content"
)

func TestContentCheck_Embedded(t *testing.T) {
	t.Setenv("CONTENT_DIR", "")
	out, err := run(t, "content", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "content OK")
	assert.Contains(t, out, "(embedded)")
	assert.Contains(t, out, "SECTION")
}

func TestContentCheck_DirJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, content.ProjectsDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, content.SiteFile), []byte("profile:\n  name: Dir Person\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, content.ProjectsDir, "one.md"),
		[]byte("---\ntitle: One\ntags: [go]\nfeatured: true\n---\nBody\n"), 0o644))

	out, err := run(t, "content", "check", "--dir", dir, "-o", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Dir Person", got["name"])
	assert.Equal(t, dir, got["source"])
	assert.EqualValues(t, 1, got["projects"])
	assert.EqualValues(t, 1, got["featured"])
	assert.EqualValues(t, 1, got["tags"])
}

func TestContentCheck_ReportsLoadErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, content.SiteFile), []byte("profile: {}\n"), 0o644))

	_, err := run(t, "content", "check", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile.name is required")
}

func TestContentCheck_UsesContentDirEnv(t *testing.T) {
	t.Setenv("CONTENT_DIR", filepath.Join(t.TempDir(), "missing"))
	_, err := run(t, "content", "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content directory")
}
