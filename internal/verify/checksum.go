package verify

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const digestHexLen = sha256.Size * 2

var (
	// ErrMismatch indicates the computed digest differs from the manifest.
	ErrMismatch = errors.New("checksum mismatch")

	// ErrDigestNotFound indicates no manifest entry matched the asset name.
	ErrDigestNotFound = errors.New("checksum entry not found")

	// ErrEmptyManifest indicates the manifest contained no parseable entries.
	ErrEmptyManifest = errors.New("checksum manifest has no valid entries")
)

// Entry is one manifest record: a hex SHA-256 digest and the filename it
// covers.
type Entry struct {
	Digest   string
	Filename string
}

// MismatchError reports both digests of a failed comparison. It wraps
// ErrMismatch for errors.Is classification.
type MismatchError struct {
	Asset    string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Asset, e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error { return ErrMismatch }

// ParseManifest reads a plaintext checksum manifest into typed records.
// Each useful line is "<hex-digest><whitespace><filename>"; blank lines,
// comments, and lines whose first token is not a SHA-256 digest are skipped.
func ParseManifest(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		digest := fields[0]
		if !isHexDigest(digest, digestHexLen) {
			continue
		}
		entries = append(entries, Entry{
			Digest:   strings.ToLower(digest),
			Filename: fields[len(fields)-1],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	if len(entries) == 0 {
		return nil, ErrEmptyManifest
	}
	return entries, nil
}

// FindDigest returns the digest of the first entry whose filename contains
// assetName as a substring, matching the manifests' loose naming (entries
// like "./dist/vvs-linux-amd64" still resolve).
func FindDigest(entries []Entry, assetName string) (string, error) {
	for _, e := range entries {
		if strings.Contains(e.Filename, assetName) {
			return e.Digest, nil
		}
	}
	return "", fmt.Errorf("%w for %s", ErrDigestNotFound, assetName)
}

// HashFile streams the file at path through SHA-256 and returns the lowercase
// hex digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyFile computes the digest of the file at path and compares it with
// expected, case-insensitively. assetName is used only for error reporting.
func VerifyFile(path, expected, assetName string) error {
	actual, err := HashFile(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, expected) {
		return &MismatchError{
			Asset:    assetName,
			Expected: strings.ToLower(expected),
			Actual:   actual,
		}
	}
	return nil
}

func isHexDigest(value string, expectedLen int) bool {
	if len(value) != expectedLen {
		return false
	}
	for _, ch := range value {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}
