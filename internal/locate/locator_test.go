package locate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/hoopmetrics/enrich/internal/fetch"
)

type fakeFetcher struct {
	body string
	err  error
	urls []string
}

func (f *fakeFetcher) FetchText(_ context.Context, rawURL string) (*fetch.Response, error) {
	f.urls = append(f.urls, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	return &fetch.Response{URL: rawURL, StatusCode: 200, Body: f.body}, nil
}

func resultsPage(links ...string) string {
	page := "<html><body>"
	for i, href := range links {
		page += fmt.Sprintf(
			`<div class="result"><a class="result__a" href=%q>Result %d</a>`+
				`<a class="result__snippet">Snippet %d. 12.5K Followers, 300 Following.</a></div>`,
			href, i, i)
	}
	return page + "</body></html>"
}

func TestHandleFromURL(t *testing.T) {
	p := Instagram()
	tests := []struct {
		raw    string
		handle string
		ok     bool
	}{
		{"https://www.instagram.com/realuser/", "realuser", true},
		{"https://instagram.com/real.user_9", "real.user_9", true},
		{"https://www.instagram.com/p/abc123/", "", false},
		{"https://www.instagram.com/reel/xyz/", "", false},
		{"https://www.instagram.com/accounts/login/", "", false},
		{"https://twitter.com/realuser", "", false},
		{"https://www.instagram.com/", "", false},
		{"https://www.instagram.com/way-too-invalid!name/", "", false},
	}
	for _, tt := range tests {
		got, ok := p.HandleFromURL(tt.raw)
		if ok != tt.ok || got != tt.handle {
			t.Errorf("HandleFromURL(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.handle, tt.ok)
		}
	}
}

func TestSearch_FiltersNonProfiles(t *testing.T) {
	f := &fakeFetcher{body: resultsPage(
		"https://www.instagram.com/p/abc123/",
		"https://www.instagram.com/realuser/",
		"https://www.instagram.com/explore/tags/hoops/",
	)}
	l := New(f, Instagram())

	candidates, err := l.Search(context.Background(), "Real User")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Handle != "realuser" {
		t.Errorf("handle = %q, want realuser", candidates[0].Handle)
	}
	if candidates[0].ProfileURL != "https://www.instagram.com/realuser/" {
		t.Errorf("profile url = %q", candidates[0].ProfileURL)
	}
}

func TestSearch_UnwrapsRedirects(t *testing.T) {
	target := url.QueryEscape("https://www.instagram.com/hidden_user/")
	f := &fakeFetcher{body: resultsPage(
		"//duckduckgo.com/l/?uddg=" + target + "&rut=abc",
	)}
	l := New(f, Instagram())

	candidates, err := l.Search(context.Background(), "Hidden User")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Handle != "hidden_user" {
		t.Fatalf("candidates = %+v, want hidden_user", candidates)
	}
}

func TestSearch_DeduplicatesHandles(t *testing.T) {
	f := &fakeFetcher{body: resultsPage(
		"https://www.instagram.com/realuser/",
		"https://www.instagram.com/RealUser/",
	)}
	l := New(f, Instagram())

	candidates, err := l.Search(context.Background(), "Real User")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Errorf("got %d candidates, want 1 after dedup", len(candidates))
	}
}

func TestSearch_CapturesSnippet(t *testing.T) {
	f := &fakeFetcher{body: resultsPage("https://www.instagram.com/realuser/")}
	l := New(f, Instagram())

	candidates, err := l.Search(context.Background(), "Real User")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if candidates[0].Snippet == "" {
		t.Error("expected snippet text to be captured")
	}
}

func TestSearch_QueryShape(t *testing.T) {
	f := &fakeFetcher{body: resultsPage()}
	l := New(f, Instagram())

	if _, err := l.Search(context.Background(), "Real User"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(f.urls) != 1 {
		t.Fatalf("expected one fetch, got %d", len(f.urls))
	}
	u, err := url.Parse(f.urls[0])
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query().Get("q")
	if q != `"Real User" instagram site:instagram.com` {
		t.Errorf("query = %q", q)
	}
}

func TestSearch_BlockedIsNotNotFound(t *testing.T) {
	f := &fakeFetcher{err: &fetch.HTTPError{StatusCode: 429, Status: "429 Too Many Requests"}}
	l := New(f, Instagram())

	_, err := l.Search(context.Background(), "Real User")
	if !errors.Is(err, ErrSearchBlocked) {
		t.Errorf("expected ErrSearchBlocked, got %v", err)
	}
}

func TestLocate_PrefersKnownHandle(t *testing.T) {
	f := &fakeFetcher{body: resultsPage(
		"https://www.instagram.com/impostor/",
		"https://www.instagram.com/the_real_one/",
	)}
	l := New(f, Instagram())

	c, err := l.Locate(context.Background(), "Real User", "@the_real_one")
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if c == nil || c.Handle != "the_real_one" {
		t.Errorf("candidate = %+v, want the_real_one", c)
	}
}

func TestLocate_KnownHandleSynthesizedWhenSearchEmpty(t *testing.T) {
	f := &fakeFetcher{body: resultsPage()}
	l := New(f, Instagram())

	c, err := l.Locate(context.Background(), "Real User", "the_real_one")
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if c == nil || c.ProfileURL != "https://www.instagram.com/the_real_one/" {
		t.Errorf("candidate = %+v", c)
	}
}

func TestLocate_NotFound(t *testing.T) {
	f := &fakeFetcher{body: resultsPage()}
	l := New(f, Instagram())

	c, err := l.Locate(context.Background(), "Nobody Here", "")
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if c != nil {
		t.Errorf("candidate = %+v, want nil for not found", c)
	}
}
