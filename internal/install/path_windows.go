//go:build windows

package install

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/windows/registry"
)

// EnsurePathEntry appends the install directory to the user PATH stored in
// the registry. Only the user value is touched: the process PATH merges in
// machine-wide entries that must not be written back (and setx would also
// truncate values over 1024 characters). Best effort: the caller downgrades
// a failure to a warning.
func (i *Installer) EnsurePathEntry() error {
	key, err := registry.OpenKey(registry.CURRENT_USER, "Environment",
		registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("opening user environment key: %w", err)
	}
	defer key.Close()

	current, _, err := key.GetStringValue("Path")
	if err != nil && err != registry.ErrNotExist {
		return fmt.Errorf("reading user PATH: %w", err)
	}
	if i.OnSearchPath(current) {
		return nil
	}

	updated := i.Dir
	if trimmed := strings.TrimRight(current, string(os.PathListSeparator)); trimmed != "" {
		updated = trimmed + string(os.PathListSeparator) + i.Dir
	}

	// REG_EXPAND_SZ keeps any %VAR% references in the existing value working.
	if err := key.SetExpandStringValue("Path", updated); err != nil {
		return fmt.Errorf("writing user PATH: %w", err)
	}
	return nil
}
