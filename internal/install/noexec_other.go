//go:build !linux

package install

// DirOnNoExecMount only applies to linux mount tables.
func DirOnNoExecMount(string) bool { return false }
