package config

import (
	"os"
	"path/filepath"
	"sync"
)

// Paths holds the standard flexmon directory paths.
type Paths struct {
	// Home is the flexmon home directory (~/.flexmon)
	Home string

	// Data holds the session database (~/.flexmon/data)
	Data string

	// Backups is where exports land by default (~/.flexmon/backups)
	Backups string

	// Alerts is the alerts directory (~/.flexmon/alerts)
	Alerts string

	// ConfigFile is the default config file (~/.flexmon/config.yaml)
	ConfigFile string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		root := filepath.Join(home, ".flexmon")

		paths = &Paths{
			Home:       root,
			Data:       filepath.Join(root, "data"),
			Backups:    filepath.Join(root, "backups"),
			Alerts:     filepath.Join(root, "alerts"),
			ConfigFile: filepath.Join(root, "config.yaml"),
		}
	})
	return paths
}

// Path returns a path under the flexmon home directory.
func Path(parts ...string) string {
	return filepath.Join(append([]string{GetPaths().Home}, parts...)...)
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
