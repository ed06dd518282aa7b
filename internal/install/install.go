package install

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const maxCommandOutput = 2048

var (
	// ErrNeedPrivilege indicates the install directory is not writable by
	// the current process.
	ErrNeedPrivilege = errors.New("insufficient privilege to write install directory")

	// ErrPathEditUnsupported is returned on platforms where the installer
	// does not edit PATH; the caller warns instead.
	ErrPathEditUnsupported = errors.New("automatic PATH editing is not supported on this platform")
)

// Installer places a verified binary into the fixed installation directory
// and removes it again on uninstall.
type Installer struct {
	// Dir is the installation directory, e.g. /usr/local/bin.
	Dir string
	// Binary is the installed filename, e.g. "vvs" or "vvs.exe".
	Binary string
}

// TargetPath is the final location of the installed binary.
func (i *Installer) TargetPath() string {
	return filepath.Join(i.Dir, i.Binary)
}

// Install marks srcPath executable and moves it to the target path, replacing
// any prior file of the same name. A permission failure maps onto
// ErrNeedPrivilege so the caller can suggest elevation.
func (i *Installer) Install(srcPath string) error {
	if err := os.Chmod(srcPath, 0o755); err != nil {
		return fmt.Errorf("marking %s executable: %w", srcPath, err)
	}

	if err := os.MkdirAll(i.Dir, 0o755); err != nil {
		return classifyPrivilege(fmt.Errorf("creating install directory %s: %w", i.Dir, err))
	}

	target := i.TargetPath()
	if err := os.Rename(srcPath, target); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return classifyPrivilege(fmt.Errorf("installing to %s: %w", target, err))
		}
		// Rename fails across filesystems; the scratch dir is often on a
		// different mount than the install dir, so fall back to a copy.
		if copyErr := copyFile(srcPath, target); copyErr != nil {
			return classifyPrivilege(fmt.Errorf("installing to %s: %w", target, copyErr))
		}
		os.Remove(srcPath)
	}

	return nil
}

// Uninstall removes the installed binary. A binary that was never installed
// is not an error; the bool reports whether anything was removed.
func (i *Installer) Uninstall() (bool, error) {
	target := i.TargetPath()
	err := os.Remove(target)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, classifyPrivilege(fmt.Errorf("removing %s: %w", target, err))
}

// ConfirmInstalled re-invokes the installed binary's version flag and returns
// its output, proving the install actually runs on this host.
func (i *Installer) ConfirmInstalled() (string, error) {
	cmd := exec.Command(i.TargetPath(), "--version")
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("installed binary failed to run: %s", trimCommandOutput(combined.String()))
	}
	return strings.TrimSpace(combined.String()), nil
}

// OnSearchPath reports whether the install directory appears in the
// executable search path. pathEnv is the raw PATH value.
func (i *Installer) OnSearchPath(pathEnv string) bool {
	want := filepath.Clean(i.Dir)
	for _, entry := range filepath.SplitList(pathEnv) {
		if entry == "" {
			continue
		}
		if filepath.Clean(entry) == want {
			return true
		}
	}
	return false
}

func classifyPrivilege(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrNeedPrivilege, err)
	}
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// Write through a sibling temp file so a half-written binary never sits
	// at the target path.
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func trimCommandOutput(out string) string {
	clean := strings.TrimSpace(out)
	if clean == "" {
		return "command failed"
	}
	if len(clean) > maxCommandOutput {
		return clean[:maxCommandOutput] + "..."
	}
	return clean
}
