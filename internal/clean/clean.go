// Package clean removes what a harness run leaves behind.
package clean

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Generated reports whether name is a generated source file.
func Generated(name string) bool {
	return strings.HasSuffix(name, ".js") || strings.HasSuffix(name, ".ts")
}

// Clean deletes the generated .js and .ts files directly under distDir and
// removes resultsDir with everything in it. A missing directory is not an
// error. It returns the removed paths in the order they were removed.
func Clean(distDir, resultsDir string) ([]string, error) {
	var removed []string

	entries, err := os.ReadDir(distDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to list %s: %w", distDir, err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || !Generated(e.Name()) {
			continue
		}
		path := filepath.Join(distDir, e.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed = append(removed, path)
	}

	if _, err := os.Stat(resultsDir); err == nil {
		if err := os.RemoveAll(resultsDir); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", resultsDir, err)
		}
		removed = append(removed, resultsDir)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return removed, fmt.Errorf("failed to stat %s: %w", resultsDir, err)
	}

	return removed, nil
}
