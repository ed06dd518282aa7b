package install

import (
	"path/filepath"
	"strings"
)

// mountEntry is one /proc/mounts record, reduced to what the noexec check
// needs.
type mountEntry struct {
	mountPoint string
	options    map[string]struct{}
}

// parseProcMounts parses /proc/mounts content. Format per line:
// "<source> <mountpoint> <fstype> <options> <dump> <pass>".
func parseProcMounts(content string) []mountEntry {
	var out []mountEntry
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		opts := make(map[string]struct{})
		for _, opt := range strings.Split(fields[3], ",") {
			if opt != "" {
				opts[opt] = struct{}{}
			}
		}
		out = append(out, mountEntry{
			mountPoint: unescapeMountPath(fields[1]),
			options:    opts,
		})
	}
	return out
}

// mountHasNoExec reports whether the deepest mount containing path carries
// the noexec option.
func mountHasNoExec(path string, mounts []mountEntry) bool {
	cleaned := filepath.Clean(path)

	best := -1
	bestLen := -1
	for idx, m := range mounts {
		mp := filepath.Clean(m.mountPoint)
		if mp != "/" && !strings.HasSuffix(mp, "/") {
			mp += "/"
		}
		target := cleaned
		if target != "/" {
			target += "/"
		}
		if !strings.HasPrefix(target, mp) {
			continue
		}
		if len(mp) > bestLen {
			best = idx
			bestLen = len(mp)
		}
	}
	if best < 0 {
		return false
	}
	_, noexec := mounts[best].options["noexec"]
	return noexec
}

// unescapeMountPath decodes the octal escapes the kernel uses for spaces,
// tabs, newlines, and backslashes in mount points.
func unescapeMountPath(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			val := (s[i+1]-'0')<<6 | (s[i+2]-'0')<<3 | (s[i+3] - '0')
			b.WriteByte(val)
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }
