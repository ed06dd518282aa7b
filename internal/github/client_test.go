package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLatestTag(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/vvs-tools/vvs/releases/latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"tag_name":"v1.4.2","name":"v1.4.2","assets":[]}`)
	}))
	defer ts.Close()

	c := NewClient("vvs-tools", "vvs", WithAPIBase(ts.URL))
	tag, err := c.LatestTag(context.Background())
	if err != nil {
		t.Fatalf("LatestTag: %v", err)
	}
	if tag != "v1.4.2" {
		t.Errorf("tag: got %q want %q", tag, "v1.4.2")
	}
}

func TestLatestTagMissingTagField(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"name":"untagged","assets":[]}`)
	}))
	defer ts.Close()

	c := NewClient("vvs-tools", "vvs", WithAPIBase(ts.URL))
	if _, err := c.LatestTag(context.Background()); err == nil {
		t.Fatal("expected error for response without tag field")
	} else if !strings.Contains(err.Error(), "no tag field") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLatestTagHTTPError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient("vvs-tools", "vvs", WithAPIBase(ts.URL))
	if _, err := c.LatestTag(context.Background()); err == nil {
		t.Fatal("expected error for 404 response")
	} else if !strings.Contains(err.Error(), "status 404") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLatestTagRateLimited(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer ts.Close()

	c := NewClient("vvs-tools", "vvs", WithAPIBase(ts.URL))
	_, err := c.LatestTag(context.Background())
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rle.Limit != 60 {
		t.Errorf("limit: got %d want 60", rle.Limit)
	}
}

func TestTokenOnlySentToAPIHost(t *testing.T) {
	t.Parallel()

	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"tag_name":"v1.0.0"}`)
	}))
	defer ts.Close()

	c := NewClient("vvs-tools", "vvs", WithAPIBase(ts.URL), WithToken("sekrit"))
	if _, err := c.LatestTag(context.Background()); err != nil {
		t.Fatalf("LatestTag: %v", err)
	}
	if gotAuth != "Bearer sekrit" {
		t.Errorf("Authorization: got %q", gotAuth)
	}
}

func TestResolveVersionExplicitSkipsNetwork(t *testing.T) {
	t.Parallel()

	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		fmt.Fprint(w, `{"tag_name":"v9.9.9"}`)
	}))
	defer ts.Close()

	c := NewClient("vvs-tools", "vvs", WithAPIBase(ts.URL))
	tag, err := ResolveVersion(context.Background(), c, "v1.2.3")
	if err != nil {
		t.Fatalf("ResolveVersion: %v", err)
	}
	if tag != "v1.2.3" {
		t.Errorf("tag: got %q want verbatim %q", tag, "v1.2.3")
	}
	if requests != 0 {
		t.Errorf("explicit version must not query the API, saw %d requests", requests)
	}
}

func TestResolveVersionLatest(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v2.0.1"}`)
	}))
	defer ts.Close()

	c := NewClient("vvs-tools", "vvs", WithAPIBase(ts.URL))
	tag, err := ResolveVersion(context.Background(), c, "")
	if err != nil {
		t.Fatalf("ResolveVersion: %v", err)
	}
	if tag != "v2.0.1" {
		t.Errorf("tag: got %q want %q", tag, "v2.0.1")
	}
}

func TestDownloadURL(t *testing.T) {
	t.Parallel()

	c := NewClient("vvs-tools", "vvs")
	got := c.DownloadURL("v1.2.3", "vvs-linux-amd64")
	want := "https://github.com/vvs-tools/vvs/releases/download/v1.2.3/vvs-linux-amd64"
	if got != want {
		t.Errorf("DownloadURL:\n got %q\nwant %q", got, want)
	}
}

func TestIsSemverTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag  string
		want bool
	}{
		{"v1.2.3", true},
		{"1.2.3", true},
		{"v0.1.0-rc.1", true},
		{"nightly-2024-01-01", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSemverTag(tt.tag); got != tt.want {
			t.Errorf("IsSemverTag(%q): got %v want %v", tt.tag, got, tt.want)
		}
	}
}
