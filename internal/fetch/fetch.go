package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrEmptyArtifact marks a download that completed with zero bytes. An empty
// asset is never handed to verification or install.
var ErrEmptyArtifact = errors.New("downloaded artifact is empty")

// Fetcher downloads release assets to local files, strictly one at a time.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures a Fetcher during construction.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client, useful for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithUserAgent sets the User-Agent header sent with downloads.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// New creates a Fetcher. The long default timeout accommodates large binaries
// on slow links; a stalled transfer still terminates the run.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		userAgent:  "vvs-install",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Download streams the asset at url into destPath and returns the byte count.
// Any failure names the offending URL; a zero-byte result is a failure.
func (f *Fetcher) Download(ctx context.Context, url, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return 0, fmt.Errorf("downloading %s: status %d: %s",
			url, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	out, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", destPath, err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(destPath)
		return 0, fmt.Errorf("writing %s from %s: %w", destPath, url, err)
	}

	if written == 0 {
		os.Remove(destPath)
		return 0, fmt.Errorf("downloading %s: %w", url, ErrEmptyArtifact)
	}

	return written, nil
}
