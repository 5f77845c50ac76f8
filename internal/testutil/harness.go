// Package testutil holds shared helpers for tests that need descriptor
// trees on disk or captured log output.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteTree writes the given files, keyed by relative path, into a fresh
// temporary directory and returns its root. Parent directories are created
// as needed.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// WritePackage creates a package root with a package.hcl manifest under
// dir and returns the package directory.
func WritePackage(t *testing.T, dir, name string) string {
	t.Helper()
	pkgDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))
	manifest := `name = "` + name + `"` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "package.hcl"), []byte(manifest), 0o644))
	return pkgDir
}
