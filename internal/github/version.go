package github

import (
	"context"
	"strings"

	"golang.org/x/mod/semver"
)

// ResolveVersion returns the release tag to install. An explicit version is
// used verbatim with no remote validation and no network traffic; otherwise
// one query against the latest-release endpoint decides.
func ResolveVersion(ctx context.Context, c *Client, explicit string) (string, error) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, nil
	}
	return c.LatestTag(ctx)
}

// IsSemverTag reports whether tag is a well-formed semantic version once
// normalized to the "v" prefix the release tags use. Used only for a
// warning; non-semver tags are still installed verbatim.
func IsSemverTag(tag string) bool {
	norm := strings.TrimSpace(tag)
	if norm == "" {
		return false
	}
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	return semver.IsValid(norm)
}
