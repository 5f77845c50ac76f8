// Package pkgindex maps package names to filesystem roots. A package is any
// directory carrying a package.hcl manifest under one of the configured
// search roots; the index is built lazily on the first lookup and then
// cached for the lifetime of the index instance.
package pkgindex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/specialistvlad/launchgridgo/internal/fsutil"
)

// EnvSearchPath is the environment variable holding the default
// list-separated package search path.
const EnvSearchPath = "LAUNCHGRID_PACKAGE_PATH"

// ManifestName is the file that marks a directory as a package root.
const ManifestName = "package.hcl"

// ErrUnknownPackage is returned when no manifest under any search root
// declares the requested name.
var ErrUnknownPackage = errors.New("unknown package")

// manifest is the schema of a package.hcl file.
type manifest struct {
	Name        string `hcl:"name"`
	Description string `hcl:"description,optional"`
}

// Index resolves package names against a set of search roots.
type Index struct {
	roots []string

	once     sync.Once
	scanErr  error
	packages map[string]string
}

// New returns an index over the given list-separated search path. An empty
// path falls back to the EnvSearchPath environment variable.
func New(searchPath string) *Index {
	if searchPath == "" {
		searchPath = os.Getenv(EnvSearchPath)
	}
	var roots []string
	for _, root := range strings.Split(searchPath, string(os.PathListSeparator)) {
		if root != "" {
			roots = append(roots, root)
		}
	}
	return &Index{roots: roots}
}

// Root returns the filesystem root of the named package.
func (ix *Index) Root(name string) (string, error) {
	ix.once.Do(ix.scan)
	if ix.scanErr != nil {
		return "", fmt.Errorf("scanning package path: %w", ix.scanErr)
	}
	root, ok := ix.packages[name]
	if !ok {
		return "", fmt.Errorf("%w: %q (search path %q)", ErrUnknownPackage, name, strings.Join(ix.roots, string(os.PathListSeparator)))
	}
	return root, nil
}

// scan walks every search root collecting package manifests. The first
// manifest declaring a name wins, so earlier roots shadow later ones.
func (ix *Index) scan() {
	ix.packages = make(map[string]string)
	for _, root := range ix.roots {
		manifests, err := fsutil.FindFilesNamed(root, ManifestName)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			ix.scanErr = err
			return
		}
		for _, path := range manifests {
			var m manifest
			if err := hclsimple.DecodeFile(path, nil, &m); err != nil {
				ix.scanErr = fmt.Errorf("reading %s: %w", path, err)
				return
			}
			if _, ok := ix.packages[m.Name]; ok {
				continue
			}
			ix.packages[m.Name] = filepath.Dir(path)
		}
	}
}
