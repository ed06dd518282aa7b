package install

import (
	"os"
	"path/filepath"
)

// DefaultDir returns the fixed installation directory for an OS token.
func DefaultDir(goos string) string {
	if goos == "windows" {
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, "Programs", "vvs")
		}
		return filepath.Join(`C:\`, "Program Files", "vvs")
	}
	return "/usr/local/bin"
}
