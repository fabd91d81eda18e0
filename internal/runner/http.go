package runner

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hoopmetrics/enrich/internal/extract"
	"github.com/hoopmetrics/enrich/internal/fetch"
	"github.com/hoopmetrics/enrich/internal/locate"
	"github.com/hoopmetrics/enrich/pkg/models"
)

// HTTPScraper resolves and reads profiles over plain HTTP. It can only see
// the counts a profile page exposes publicly; engagement metrics need the
// browser path.
type HTTPScraper struct {
	locator *locate.Locator
	fetcher locate.Fetcher
}

// NewHTTPScraper builds the plain-HTTP strategy.
func NewHTTPScraper(locator *locate.Locator, fetcher locate.Fetcher) *HTTPScraper {
	return &HTTPScraper{locator: locator, fetcher: fetcher}
}

// Scrape locates the subject's profile and parses its counts.
func (h *HTTPScraper) Scrape(ctx context.Context, subject models.Subject) (*models.ScrapeResult, error) {
	candidate, err := h.locator.Locate(ctx, subject.Name, subject.Handle)
	if err != nil {
		if errors.Is(err, locate.ErrSearchBlocked) {
			return &models.ScrapeResult{
				Status:      models.StatusRateLimited,
				ErrorDetail: fetch.Truncate(err.Error()),
			}, nil
		}
		return &models.ScrapeResult{
			Status:      models.StatusFetchFailed,
			ErrorDetail: fetch.Truncate(err.Error()),
		}, nil
	}
	if candidate == nil {
		return &models.ScrapeResult{Status: models.StatusNotFound}, nil
	}

	resp, err := h.fetcher.FetchText(ctx, candidate.ProfileURL)
	if err != nil {
		status := fetch.Classify(err)
		result := &models.ScrapeResult{
			Status:      status,
			ProfileURL:  candidate.ProfileURL,
			ErrorDetail: fetch.Truncate(err.Error()),
		}
		// A blocked profile page can still yield counts from the search
		// snippet captured on the way in.
		if m := snippetMetrics(candidate.Snippet); !m.IsEmpty() {
			log.Debug().Str("handle", candidate.Handle).Msg("using snippet counts for blocked page")
			result.Status = models.StatusOK
			result.Metrics = m
			result.ErrorDetail = ""
			result.MissingLabels = missingCountLabels(m)
		}
		return result, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	if err != nil {
		return &models.ScrapeResult{
			Status:      models.StatusParseFailed,
			ProfileURL:  candidate.ProfileURL,
			ErrorDetail: fetch.Truncate(err.Error()),
		}, nil
	}

	m := pageMetrics(doc, candidate.ProfileURL)
	if m.IsEmpty() {
		if sm := snippetMetrics(candidate.Snippet); !sm.IsEmpty() {
			m = sm
		}
	}

	if m.IsEmpty() {
		return &models.ScrapeResult{
			Status:        models.StatusParseFailed,
			ProfileURL:    candidate.ProfileURL,
			MissingLabels: missingCountLabels(m),
			ErrorDetail:   "no counts found on profile page",
		}, nil
	}

	return &models.ScrapeResult{
		Status:        models.StatusOK,
		Metrics:       m,
		ProfileURL:    candidate.ProfileURL,
		MissingLabels: missingCountLabels(m),
	}, nil
}

// pageMetrics reads counts from a static profile page: the og:description
// summary first, then counts embedded in inline scripts.
func pageMetrics(doc *goquery.Document, pageURL string) models.Metrics {
	var m models.Metrics
	if summary := extract.ParseDocSummary(doc); summary != nil {
		m.Followers = summary.Followers
		m.Following = summary.Following
		m.Posts = summary.Posts
	}
	if m.Followers == nil || m.Following == nil || m.Posts == nil {
		if inline := extract.InlineCounts(doc, pageURL); inline != nil {
			if m.Followers == nil {
				m.Followers = inline.Followers
			}
			if m.Following == nil {
				m.Following = inline.Following
			}
			if m.Posts == nil {
				m.Posts = inline.Posts
			}
		}
	}
	return m
}

func snippetMetrics(snippet string) models.Metrics {
	var m models.Metrics
	if summary := extract.ParseProfileSummary(snippet); summary != nil {
		m.Followers = summary.Followers
		m.Following = summary.Following
		m.Posts = summary.Posts
	}
	return m
}

func missingCountLabels(m models.Metrics) []string {
	var missing []string
	if m.Followers == nil {
		missing = append(missing, "Followers")
	}
	if m.Following == nil {
		missing = append(missing, "Following")
	}
	if m.Posts == nil {
		missing = append(missing, "Posts")
	}
	return missing
}
