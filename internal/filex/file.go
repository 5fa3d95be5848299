// Package filex holds small filesystem helpers shared by the client.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold path, so that the
// SQLite file, the log file or an export can be opened right after. It
// returns the cleaned directory.
func EnsureParentDir(path string) (string, error) {
	dir := filepath.Dir(filepath.Clean(path))
	if dir == "." {
		return dir, nil
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
