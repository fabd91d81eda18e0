package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hoopmetrics/enrich/internal/auth"
	"github.com/hoopmetrics/enrich/internal/extract"
	"github.com/hoopmetrics/enrich/pkg/models"
)

// countLabels are the stat labels read off a rendered profile page, in
// display order.
var countLabels = []string{"Followers", "Following", "Posts"}

// DiagSink receives page material for failed scrapes. Implementations must
// not fail the scrape; errors stay inside the sink.
type DiagSink interface {
	Capture(handle string, status models.Status, html string, screenshot []byte)
}

// Scraper reads profile metrics through a logged-in browser session.
type Scraper struct {
	session *Session
	creds   *auth.Credentials
	diag    DiagSink
}

// NewScraper wraps a launched session. creds may be nil for anonymous runs;
// diag may be nil to disable failure capture.
func NewScraper(session *Session, creds *auth.Credentials, diag DiagSink) *Scraper {
	return &Scraper{session: session, creds: creds, diag: diag}
}

// Scrape renders the profile page and extracts every metric it can find.
// An expired session triggers one re-login and one retry; a second failure
// is reported as session_expired so the run can decide whether to continue.
func (sc *Scraper) Scrape(ctx context.Context, handle, profileURL string) (*models.ScrapeResult, error) {
	result, html, err := sc.scrapeOnce(ctx, handle, profileURL)
	if err != nil {
		return nil, err
	}

	if result.Status == models.StatusSessionExpired {
		log.Warn().Str("handle", handle).Msg("session expired mid-run, re-authenticating")
		if loginErr := sc.session.Login(ctx, sc.creds); loginErr != nil {
			return nil, fmt.Errorf("re-login failed: %w", loginErr)
		}
		result, html, err = sc.scrapeOnce(ctx, handle, profileURL)
		if err != nil {
			return nil, err
		}
	}

	if result.Status != models.StatusOK && sc.diag != nil {
		png, shotErr := sc.session.Screenshot(ctx)
		if shotErr != nil {
			log.Debug().Err(shotErr).Msg("screenshot capture failed")
		}
		sc.diag.Capture(handle, result.Status, html, png)
	}

	return result, nil
}

func (sc *Scraper) scrapeOnce(ctx context.Context, handle, profileURL string) (*models.ScrapeResult, string, error) {
	finalURL, bodyText, html, err := sc.session.Navigate(ctx, profileURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render profile: %w", err)
	}

	status := ClassifyPage(finalURL, bodyText)
	if status == models.StatusLoginWall && sc.session.State() == StateLoggedIn {
		// A logged-in session bounced to the login form means the cookies
		// died, not that the profile is gated.
		return &models.ScrapeResult{Status: models.StatusSessionExpired, ProfileURL: profileURL}, html, nil
	}
	if status != models.StatusOK {
		return &models.ScrapeResult{Status: status, ProfileURL: profileURL}, html, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, html, fmt.Errorf("failed to parse rendered page: %w", err)
	}

	metrics, missing := extractMetrics(doc, profileURL)
	if metrics.IsEmpty() {
		return &models.ScrapeResult{
			Status:        models.StatusParseFailed,
			ProfileURL:    profileURL,
			MissingLabels: missing,
			ErrorDetail:   "page rendered but no metric labels matched",
		}, html, nil
	}

	return &models.ScrapeResult{
		Status:        models.StatusOK,
		Metrics:       metrics,
		ProfileURL:    profileURL,
		MissingLabels: missing,
	}, html, nil
}

// extractMetrics tries every extraction path in confidence order: the
// og:description summary, counts embedded in inline scripts, then visible
// label-adjacent text. Later paths only fill fields the earlier ones missed.
func extractMetrics(doc *goquery.Document, pageURL string) (models.Metrics, []string) {
	var m models.Metrics

	if summary := extract.ParseDocSummary(doc); summary != nil {
		m.Followers = summary.Followers
		m.Following = summary.Following
		m.Posts = summary.Posts
	}

	if m.Followers == nil || m.Following == nil || m.Posts == nil {
		if inline := extract.InlineCounts(doc, pageURL); inline != nil {
			fillCount(&m.Followers, inline.Followers)
			fillCount(&m.Following, inline.Following)
			fillCount(&m.Posts, inline.Posts)
		}
	}

	fillCount(&m.Followers, extract.LabelCount(doc, "Followers"))
	fillCount(&m.Following, extract.LabelCount(doc, "Following"))
	fillCount(&m.Posts, extract.LabelCount(doc, "Posts"))

	// Engagement metrics only appear on analytics-style views behind a
	// login; absent labels are expected on plain profiles.
	m.EngagementRate = extract.LabelPercent(doc, "Engagement Rate")
	if v := extract.LabelCount(doc, "Avg Likes"); v != nil {
		m.AvgLikes = models.Float64(float64(*v))
	}
	if v := extract.LabelCount(doc, "Avg Comments"); v != nil {
		m.AvgComments = models.Float64(float64(*v))
	}

	var missing []string
	for i, v := range []*int64{m.Followers, m.Following, m.Posts} {
		if v == nil {
			missing = append(missing, countLabels[i])
		}
	}
	if m.EngagementRate == nil {
		missing = append(missing, "Engagement Rate")
	}
	if m.AvgLikes == nil {
		missing = append(missing, "Avg Likes")
	}
	if m.AvgComments == nil {
		missing = append(missing, "Avg Comments")
	}
	return m, missing
}

func fillCount(dst **int64, src *int64) {
	if *dst == nil && src != nil {
		*dst = src
	}
}
