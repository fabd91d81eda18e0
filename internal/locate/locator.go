// Package locate finds a subject's profile URL on a platform by running a
// site-scoped web search and filtering the results down to real profile
// links.
package locate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hoopmetrics/enrich/internal/fetch"
	"github.com/hoopmetrics/enrich/pkg/models"
)

// defaultSearchURL is DuckDuckGo's HTML-only endpoint. It returns plain
// anchors without requiring JavaScript.
const defaultSearchURL = "https://html.duckduckgo.com/html/"

// ErrSearchBlocked is returned when the search engine itself refuses the
// request. Callers must not record the subject as not found in that case.
var ErrSearchBlocked = errors.New("search engine blocked the request")

// Fetcher retrieves a URL's body. Satisfied by *fetch.Client.
type Fetcher interface {
	FetchText(ctx context.Context, rawURL string) (*fetch.Response, error)
}

// Candidate is one profile link pulled out of the search results. Snippet is
// the result's preview text, which sometimes already carries the counts.
type Candidate struct {
	Handle     string
	ProfileURL string
	Snippet    string
}

// Locator resolves subject names to profile URLs.
type Locator struct {
	fetcher   Fetcher
	platform  Platform
	searchURL string
}

// New creates a Locator for the given platform.
func New(fetcher Fetcher, platform Platform) *Locator {
	return &Locator{
		fetcher:   fetcher,
		platform:  platform,
		searchURL: defaultSearchURL,
	}
}

// Locate searches for the subject's profile. A stored handle, when present
// and valid, wins over search ordering; with no search hits at all it is
// used to synthesize the canonical profile URL directly. A nil candidate
// with a nil error means the profile could not be found.
func (l *Locator) Locate(ctx context.Context, name, knownHandle string) (*Candidate, error) {
	candidates, err := l.Search(ctx, name)
	if err != nil {
		return nil, err
	}

	known := NormalizeHandle(knownHandle)
	if known != "" && l.platform.ValidHandle(known) {
		for _, c := range candidates {
			if strings.EqualFold(c.Handle, known) {
				return c, nil
			}
		}
		// The stored handle is trusted even when search missed it.
		return &Candidate{Handle: known, ProfileURL: l.platform.ProfileURL(known)}, nil
	}

	if len(candidates) == 0 {
		return nil, nil
	}
	return candidates[0], nil
}

// Search runs the site-scoped query and returns profile candidates in result
// order, deduplicated by handle.
func (l *Locator) Search(ctx context.Context, name string) ([]*Candidate, error) {
	query := fmt.Sprintf("%q %s site:%s", name, l.platform.Name, l.platform.Domain)
	searchURL := l.searchURL + "?q=" + url.QueryEscape(query)

	resp, err := l.fetcher.FetchText(ctx, searchURL)
	if err != nil {
		status := fetch.Classify(err)
		if status == models.StatusRateLimited || status == models.StatusBlocked {
			return nil, fmt.Errorf("%w: %s", ErrSearchBlocked, fetch.Truncate(err.Error()))
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	var candidates []*Candidate
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		target := unwrapRedirect(href)

		handle, ok := l.platform.HandleFromURL(target)
		if !ok {
			return
		}
		key := strings.ToLower(handle)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		candidates = append(candidates, &Candidate{
			Handle:     handle,
			ProfileURL: l.platform.ProfileURL(handle),
			Snippet:    snippetFor(a),
		})
	})

	log.Debug().
		Str("name", name).
		Int("candidates", len(candidates)).
		Msg("search results filtered")

	return candidates, nil
}

// unwrapRedirect resolves DuckDuckGo's /l/?uddg= indirection to the real
// target URL. Non-redirect hrefs pass through unchanged.
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if !strings.HasSuffix(u.Hostname(), "duckduckgo.com") || !strings.HasPrefix(u.Path, "/l/") {
		return href
	}
	target := u.Query().Get("uddg")
	if target == "" {
		return href
	}
	return target
}

// snippetFor walks up from a result anchor to its result container and
// returns the preview text, if the markup exposes one.
func snippetFor(a *goquery.Selection) string {
	container := a.Closest(".result, .web-result, .results_links")
	if container.Length() == 0 {
		return ""
	}
	snippet := container.Find(".result__snippet").First()
	if snippet.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(snippet.Text())
}
