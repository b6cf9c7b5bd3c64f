// Package filex holds filesystem helpers for local server state.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureFileDir creates the directory that will hold the file at path and
// returns the absolute file path. Relative paths resolve against the working
// directory.
func EnsureFileDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", path, err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return abs, nil
}
