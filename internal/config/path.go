// Package config binds default settings and resolves user-supplied paths.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a path from configuration or flags: a leading ~
// becomes the user's home directory and $VAR references are substituted.
// Used for the database location, which defaults under $HOME.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return os.ExpandEnv(path)
}
