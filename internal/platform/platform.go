package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// Platform is a canonical (OS, arch) pair drawn from the release vocabulary.
type Platform struct {
	OS   string
	Arch string
}

var supportedOS = map[string]struct{}{
	"darwin":  {},
	"linux":   {},
	"windows": {},
}

var supportedArch = map[string]struct{}{
	"amd64": {},
	"arm64": {},
	"386":   {},
}

// osAliases maps common OS spellings onto the canonical release tokens.
var osAliases = map[string]string{
	"macos":  "darwin",
	"macosx": "darwin",
	"osx":    "darwin",
	"win":    "windows",
	"win32":  "windows",
	"win64":  "windows",
	"mingw":  "windows",
}

// archAliases maps common architecture spellings onto the canonical tokens.
var archAliases = map[string]string{
	"x86_64":  "amd64",
	"x64":     "amd64",
	"aarch64": "arm64",
	"x86":     "386",
	"i386":    "386",
	"i686":    "386",
}

// Detect maps the running host onto a canonical platform. Unsupported hosts
// are a hard error; nothing downstream may run on an unknown platform.
func Detect() (Platform, error) {
	return Normalize(runtime.GOOS, runtime.GOARCH)
}

// Normalize maps arbitrary OS/arch spellings onto the canonical vocabulary.
// The error names the offending value so the user sees what was rejected.
func Normalize(osName, arch string) (Platform, error) {
	o := strings.ToLower(strings.TrimSpace(osName))
	if mapped, ok := osAliases[o]; ok {
		o = mapped
	}
	if _, ok := supportedOS[o]; !ok {
		return Platform{}, fmt.Errorf("unsupported operating system %q", osName)
	}

	a := strings.ToLower(strings.TrimSpace(arch))
	if mapped, ok := archAliases[a]; ok {
		a = mapped
	}
	if _, ok := supportedArch[a]; !ok {
		return Platform{}, fmt.Errorf("unsupported architecture %q", arch)
	}

	return Platform{OS: o, Arch: a}, nil
}

// AssetName derives the release asset filename for a binary on this platform,
// e.g. "vvs-linux-amd64" or "vvs-windows-amd64.exe".
func (p Platform) AssetName(binary string) string {
	name := fmt.Sprintf("%s-%s-%s", binary, p.OS, p.Arch)
	if p.OS == "windows" {
		name += ".exe"
	}
	return name
}

// BinaryName returns the installed filename for a binary on this platform.
func (p Platform) BinaryName(binary string) string {
	if p.OS == "windows" {
		return binary + ".exe"
	}
	return binary
}

func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// HostDescription returns a best-effort human-readable host summary for debug
// logging. Detection failures are swallowed; the installer works the same
// either way.
func HostDescription(ctx context.Context) string {
	desc := runtime.GOOS + "/" + runtime.GOARCH
	if runtime.GOOS != "linux" {
		return desc
	}
	distro, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil || distro == "" {
		return desc
	}
	if family != "" {
		distro += "/" + family
	}
	if version != "" {
		distro += " " + version
	}
	return desc + " (" + distro + ")"
}
