// Command generate-checksums writes the checksums.txt manifest for a
// directory of vvs release artifacts. Release workflows run it after the
// cross-compile step so every published binary has a digest the installer
// can verify against.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vvs-tools/vvs-install/internal/verify"
)

func main() {
	dir := flag.String("dir", "dist", "directory containing release artifacts")
	out := flag.String("out", "checksums.txt", "manifest filename, written inside -dir")
	prefix := flag.String("prefix", "vvs-", "artifact filename prefix to include")
	flag.Parse()

	if err := run(*dir, *out, *prefix); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(dir, out, prefix string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return errors.New("directory is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	files := artifactNames(entries, prefix, out)
	if len(files) == 0 {
		return fmt.Errorf("no release artifacts found in %s", dir)
	}
	sort.Strings(files)

	outPath := filepath.Join(dir, out)
	f, err := os.Create(outPath) // #nosec G304 -- build tool output path
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}

	for _, name := range files {
		digest, err := verify.HashFile(filepath.Join(dir, name))
		if err != nil {
			f.Close()
			return err
		}
		if _, err := fmt.Fprintf(f, "%s  %s\n", digest, name); err != nil {
			f.Close()
			return fmt.Errorf("write manifest: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", outPath, err)
	}

	fmt.Printf("wrote %s (%d entries)\n", outPath, len(files))
	return nil
}

// artifactNames filters directory entries down to release binaries: regular
// files matching the artifact prefix, excluding the manifest itself and any
// stale digest sidecars.
func artifactNames(entries []os.DirEntry, prefix, out string) []string {
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == out || strings.HasSuffix(strings.ToLower(name), ".sha256") {
			continue
		}
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		files = append(files, name)
	}
	return files
}
