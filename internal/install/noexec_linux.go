//go:build linux

package install

import "os"

// DirOnNoExecMount reports whether dir sits on a noexec mount. Best effort
// only: any parse or read problem reads as "no".
func DirOnNoExecMount(dir string) bool {
	if dir == "" {
		return false
	}
	data, err := os.ReadFile("/proc/mounts") // #nosec G304 -- fixed procfs path
	if err != nil {
		return false
	}
	mounts := parseProcMounts(string(data))
	if len(mounts) == 0 {
		return false
	}
	return mountHasNoExec(dir, mounts)
}
