// Package util holds small filesystem helpers shared by the CLI,
// bootstrap, and config layers.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath normalizes a user-supplied path:
//   - a leading tilde becomes the user's home directory
//   - $VAR and ${VAR} references are replaced from the environment
//   - the result is cleaned
//
// "~/.amber" becomes "/home/user/.amber" and "$AMBER_HOME/amber.db"
// follows the environment. An empty path stays empty. Tildes anywhere
// but the first character are left alone.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot resolve ~ in %q: %w", path, err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, path[2:])
		}
	}

	return filepath.Clean(os.ExpandEnv(path)), nil
}
