package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/vvs-tools/vvs-install/internal/config"
	"github.com/vvs-tools/vvs-install/internal/fetch"
	"github.com/vvs-tools/vvs-install/internal/github"
	"github.com/vvs-tools/vvs-install/internal/install"
	"github.com/vvs-tools/vvs-install/internal/platform"
	"github.com/vvs-tools/vvs-install/internal/verify"
	"github.com/vvs-tools/vvs-install/pkg/logger"
)

// installParams carries everything runInstall needs, so tests can point the
// flow at local servers and directories.
type installParams struct {
	cfg          *config.Config
	client       *github.Client
	fetcher      *fetch.Fetcher
	versionTag   string
	osOverride   string
	archOverride string
	confirmRun   bool
	stdout       io.Writer
}

// runInstall executes the linear install flow: resolve platform and version,
// download the binary and the checksum manifest into a scratch directory,
// verify, install, confirm. The scratch directory is removed no matter how
// the run ends.
func runInstall(ctx context.Context, p installParams) error {
	plat, err := resolvePlatform(p.osOverride, p.archOverride)
	if err != nil {
		return err
	}
	native := plat.OS == runtime.GOOS && plat.Arch == runtime.GOARCH
	logger.Debugf("host: %s", platform.HostDescription(ctx))

	tag, err := github.ResolveVersion(ctx, p.client, p.versionTag)
	if err != nil {
		return err
	}
	if p.versionTag != "" && !github.IsSemverTag(tag) {
		logger.Warnf("requested version %q is not a semantic version tag; using it as given", tag)
	}
	logger.Infof("installing %s %s for %s", p.cfg.Install.Binary, tag, plat)

	scratch, err := os.MkdirTemp("", "vvs-install-*")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	assetName := plat.AssetName(p.cfg.Install.Binary)
	assetPath := filepath.Join(scratch, assetName)
	assetURL := p.client.DownloadURL(tag, assetName)

	written, err := p.fetcher.Download(ctx, assetURL, assetPath)
	if err != nil {
		return err
	}
	logger.Debugf("downloaded %s (%d bytes)", assetName, written)

	manifestPath := filepath.Join(scratch, p.cfg.Repo.Manifest)
	manifestURL := p.client.DownloadURL(tag, p.cfg.Repo.Manifest)

	if _, err := p.fetcher.Download(ctx, manifestURL, manifestPath); err != nil {
		return err
	}

	if p.cfg.Verify.Skip {
		logger.Warnf("checksum verification skipped; installing %s unverified", assetName)
	} else {
		if err := verifyAsset(assetPath, manifestPath, assetName); err != nil {
			return err
		}
		logger.Infof("checksum verified for %s", assetName)
	}

	inst := &install.Installer{
		Dir:    p.cfg.Install.Dir,
		Binary: plat.BinaryName(p.cfg.Install.Binary),
	}
	if err := inst.Install(assetPath); err != nil {
		if errors.Is(err, install.ErrNeedPrivilege) {
			return fmt.Errorf("%w (try re-running with elevated privileges)", err)
		}
		return err
	}

	switch {
	case !native:
		logger.Infof("installed a %s binary on a %s/%s host; skipping run confirmation",
			plat, runtime.GOOS, runtime.GOARCH)
	case p.confirmRun:
		out, err := inst.ConfirmInstalled()
		if err != nil {
			return err
		}
		logger.Debugf("%s --version: %s", inst.Binary, out)
	}

	reportPathStatus(inst)

	fmt.Fprintf(p.stdout, "Installed %s %s to %s\n",
		p.cfg.Install.Binary, tag, inst.TargetPath())
	return nil
}

// resolvePlatform detects the host platform, optionally overridden per axis.
// Overrides pass through the alias tables, so spellings like "macos" or
// "x86_64" land on the canonical tokens.
func resolvePlatform(osOverride, archOverride string) (platform.Platform, error) {
	osName, arch := runtime.GOOS, runtime.GOARCH
	if osOverride != "" {
		osName = osOverride
	}
	if archOverride != "" {
		arch = archOverride
	}
	return platform.Normalize(osName, arch)
}

// verifyAsset parses the manifest, finds the asset's digest, and compares it
// against the downloaded file. A mismatch aborts the run before anything
// touches the install directory.
func verifyAsset(assetPath, manifestPath, assetName string) error {
	f, err := os.Open(manifestPath)
	if err != nil {
		return fmt.Errorf("opening checksum manifest: %w", err)
	}
	defer f.Close()

	entries, err := verify.ParseManifest(f)
	if err != nil {
		return err
	}
	digest, err := verify.FindDigest(entries, assetName)
	if err != nil {
		return err
	}
	return verify.VerifyFile(assetPath, digest, assetName)
}

// reportPathStatus warns when the install directory is not usable from a
// shell: missing from PATH, or on Linux, mounted noexec.
func reportPathStatus(inst *install.Installer) {
	if !inst.OnSearchPath(os.Getenv("PATH")) {
		if err := inst.EnsurePathEntry(); err != nil {
			logger.Warnf("%s is not on your PATH; add it to run %s directly",
				inst.Dir, inst.Binary)
		} else {
			logger.Infof("added %s to your PATH; open a new terminal to pick it up", inst.Dir)
		}
	}
	if install.DirOnNoExecMount(inst.Dir) {
		logger.Warnf("%s is on a filesystem mounted noexec; the binary may not run from there", inst.Dir)
	}
}

// runUninstall removes the installed binary. A binary that was never
// installed is reported and treated as success.
func runUninstall(inst *install.Installer, stdout io.Writer) error {
	removed, err := inst.Uninstall()
	if err != nil {
		if errors.Is(err, install.ErrNeedPrivilege) {
			return fmt.Errorf("%w (try re-running with elevated privileges)", err)
		}
		return err
	}
	if removed {
		fmt.Fprintf(stdout, "Removed %s\n", inst.TargetPath())
	} else {
		fmt.Fprintf(stdout, "%s is not installed; nothing to remove\n", inst.TargetPath())
	}
	return nil
}

// installedBinaryName is the on-disk name for the host OS.
func installedBinaryName(binary string) string {
	if runtime.GOOS == "windows" {
		return binary + ".exe"
	}
	return binary
}
