// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
)

// FindFilesNamed recursively searches the given root for all files with the
// exact base name and returns their full paths in walk order.
func FindFilesNamed(rootPath string, name string) ([]string, error) {
	if name == "" {
		panic("name must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
