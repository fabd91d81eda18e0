package browser

import (
	"strings"

	"github.com/hoopmetrics/enrich/pkg/models"
)

// Phrase lists are matched case-insensitively against rendered body text.
// They are ordered from most to least specific so a challenge page that also
// mentions "log in" classifies as blocked, not login_wall.
var challengePhrases = []string{
	"verify you are human",
	"checking your browser",
	"confirm it's you",
	"suspicious activity",
	"unusual traffic",
	"captcha",
	"cloudflare",
}

var notFoundPhrases = []string{
	"sorry, this page isn't available",
	"page not found",
	"the link you followed may be broken",
	"user not found",
}

var loginWallPhrases = []string{
	"log in to see",
	"log in to continue",
	"sign up to see",
}

var rateLimitPhrases = []string{
	"please wait a few minutes",
	"try again later",
}

// ClassifyPage maps a rendered page onto the scrape status taxonomy using
// the final URL and the visible body text. StatusOK means none of the known
// failure shapes matched and the page is worth parsing.
func ClassifyPage(finalURL, bodyText string) models.Status {
	text := strings.ToLower(bodyText)

	if containsAny(text, challengePhrases) {
		return models.StatusBlocked
	}
	if containsAny(text, rateLimitPhrases) {
		return models.StatusRateLimited
	}
	if containsAny(text, notFoundPhrases) {
		return models.StatusNotFound
	}
	if strings.Contains(finalURL, "/accounts/login") || containsAny(text, loginWallPhrases) {
		return models.StatusLoginWall
	}
	return models.StatusOK
}

// IsLoginPage reports whether the browser is sitting on the platform's login
// form. Used after a login submit to detect rejected credentials, and during
// scraping to detect an expired session.
func IsLoginPage(finalURL string) bool {
	return strings.Contains(finalURL, "/accounts/login")
}

// IsChallenge reports whether the body text looks like an anti-bot
// interstitial that needs manual resolution.
func IsChallenge(bodyText string) bool {
	return containsAny(strings.ToLower(bodyText), challengePhrases)
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
