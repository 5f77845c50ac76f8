package pkgindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := `name = "` + name + `"` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(content), 0o644))
	return dir
}

func TestRootFindsPackage(t *testing.T) {
	root := t.TempDir()
	visionDir := writeManifest(t, filepath.Join(root, "src", "vision"), "vision")
	writeManifest(t, filepath.Join(root, "src", "manipulation"), "manipulation")

	ix := New(root)
	got, err := ix.Root("vision")
	require.NoError(t, err)
	assert.Equal(t, visionDir, got)
}

func TestRootUnknownPackage(t *testing.T) {
	ix := New(t.TempDir())
	_, err := ix.Root("nowhere")
	require.ErrorIs(t, err, ErrUnknownPackage)
}

func TestEarlierRootShadowsLater(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	firstDir := writeManifest(t, filepath.Join(first, "vision"), "vision")
	writeManifest(t, filepath.Join(second, "vision"), "vision")

	searchPath := first + string(os.PathListSeparator) + second
	ix := New(searchPath)

	got, err := ix.Root("vision")
	require.NoError(t, err)
	assert.Equal(t, firstDir, got)
}

func TestMissingSearchRootIsSkipped(t *testing.T) {
	existing := t.TempDir()
	dir := writeManifest(t, filepath.Join(existing, "vision"), "vision")

	searchPath := filepath.Join(existing, "does-not-exist") + string(os.PathListSeparator) + existing
	ix := New(searchPath)

	got, err := ix.Root("vision")
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestSearchPathFromEnvironment(t *testing.T) {
	root := t.TempDir()
	dir := writeManifest(t, filepath.Join(root, "vision"), "vision")
	t.Setenv(EnvSearchPath, root)

	ix := New("")
	got, err := ix.Root("vision")
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestMalformedManifest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ManifestName), []byte(`name =`), 0o644))

	ix := New(root)
	_, err := ix.Root("anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning package path")
}
