package runner

import (
	"context"
	"errors"

	"github.com/hoopmetrics/enrich/internal/browser"
	"github.com/hoopmetrics/enrich/internal/fetch"
	"github.com/hoopmetrics/enrich/internal/locate"
	"github.com/hoopmetrics/enrich/pkg/models"
)

// BrowserScraper resolves profiles via search, then reads them through a
// logged-in browser session. This is the only path that can reach
// engagement metrics.
type BrowserScraper struct {
	locator *locate.Locator
	scraper *browser.Scraper
}

// NewBrowserScraper builds the browser strategy around an already launched
// and logged-in session.
func NewBrowserScraper(locator *locate.Locator, scraper *browser.Scraper) *BrowserScraper {
	return &BrowserScraper{locator: locator, scraper: scraper}
}

// Scrape locates the subject and renders the profile in the browser.
func (b *BrowserScraper) Scrape(ctx context.Context, subject models.Subject) (*models.ScrapeResult, error) {
	candidate, err := b.locator.Locate(ctx, subject.Name, subject.Handle)
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

	return b.scraper.Scrape(ctx, candidate.Handle, candidate.ProfileURL)
}
