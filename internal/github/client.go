package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// maxJSONResponseBytes bounds release API response size (10 MB) so a
// malformed or hostile endpoint cannot exhaust memory.
const maxJSONResponseBytes = 10 << 20

// Release is the subset of the release payload the installer uses.
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Assets  []Asset `json:"assets"`
}

// Asset is the subset of the release asset payload the installer uses.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// RateLimitError is returned when the release API reports an exhausted quota.
// The run is terminal at that point; there is no retry or backoff.
type RateLimitError struct {
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("release API rate limit exceeded (limit %d, resets at %s)",
		e.Limit, e.ResetAt.UTC().Format("15:04 UTC"))
}

// Client queries the release-hosting REST API for version information.
type Client struct {
	httpClient   *http.Client
	owner        string
	repo         string
	apiBase      string
	downloadBase string
	token        string
	userAgent    string
}

// Option configures a Client during construction.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxies.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Client) { g.httpClient = c }
}

// WithAPIBase overrides the API base URL, primarily for test servers.
func WithAPIBase(base string) Option {
	return func(g *Client) { g.apiBase = strings.TrimRight(base, "/") }
}

// WithDownloadBase overrides the asset download base URL.
func WithDownloadBase(base string) Option {
	return func(g *Client) { g.downloadBase = strings.TrimRight(base, "/") }
}

// WithToken sets a bearer token for authenticated requests.
func WithToken(token string) Option {
	return func(g *Client) { g.token = token }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(g *Client) { g.userAgent = ua }
}

// NewClient creates a release API client for owner/repo.
func NewClient(owner, repo string, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		owner:        owner,
		repo:         repo,
		apiBase:      "https://api.github.com",
		downloadBase: "https://github.com",
		userAgent:    "vvs-install",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TokenFromEnv picks up an API token from the environment. The installer
// works unauthenticated; a token only raises the rate limit.
func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("VVS_INSTALL_GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}

// LatestTag fetches the latest release and returns its tag. A missing or
// empty tag field in the response is an error.
func (c *Client) LatestTag(ctx context.Context) (string, error) {
	rel, err := c.LatestRelease(ctx)
	if err != nil {
		return "", err
	}
	return rel.TagName, nil
}

// LatestRelease issues a single GET against the "latest" release endpoint.
// Network failures, non-200 statuses, and rate limiting are all terminal.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.apiBase, c.owner, c.repo)

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetching latest release: %w", err)
	}
	defer resp.Body.Close()

	if err := checkRateLimit(resp); err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("latest release request to %s failed with status %d: %s",
			reqURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rel Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&rel); err != nil {
		return nil, fmt.Errorf("parsing latest release response: %w", err)
	}

	if strings.TrimSpace(rel.TagName) == "" {
		return nil, fmt.Errorf("latest release response from %s has no tag field", reqURL)
	}

	return &rel, nil
}

// DownloadURL builds the deterministic asset URL for a tag and filename:
// {downloadBase}/{owner}/{repo}/releases/download/{tag}/{filename}.
func (c *Client) DownloadURL(tag, filename string) string {
	return fmt.Sprintf("%s/%s/%s/releases/download/%s/%s",
		c.downloadBase, c.owner, c.repo, tag, filename)
}

func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)

	// Only attach the token when the request targets the configured API host,
	// so it cannot leak to a third-party CDN on redirect.
	if c.token != "" && isAPIHost(req.URL, c.apiBase) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", reqURL, err)
	}
	return resp, nil
}

// checkRateLimit inspects the X-RateLimit-* headers on rejected requests and
// reports exhaustion. A successful response is never rate limited, whatever
// its remaining quota says.
func checkRateLimit(resp *http.Response) error {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}
	rem, err := strconv.Atoi(remaining)
	if err != nil || rem > 0 {
		return nil
	}
	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
	resetUnix, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	return &RateLimitError{Limit: limit, ResetAt: time.Unix(resetUnix, 0)}
}

func isAPIHost(reqURL *url.URL, apiBase string) bool {
	base, err := url.Parse(apiBase)
	if err != nil {
		return false
	}
	return strings.EqualFold(reqURL.Host, base.Host)
}
