package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ProfileSummary holds the three counts a profile page advertises in its
// descriptive meta content, e.g. "1,234 Followers, 56 Following, 7 Posts".
type ProfileSummary struct {
	Followers *int64
	Following *int64
	Posts     *int64
}

var labelRes = map[string]*regexp.Regexp{
	"followers": regexp.MustCompile(`(?i)(\S+)\s+Followers\b`),
	"following": regexp.MustCompile(`(?i)(\S+)\s+Following\b`),
	"posts":     regexp.MustCompile(`(?i)(\S+)\s+Posts\b`),
}

// ParseProfileSummary extracts follower/following/post counts from a
// label-adjacent text block such as an og:description value or a search
// result snippet. Returns nil when no label matches.
func ParseProfileSummary(text string) *ProfileSummary {
	t := strings.Join(strings.Fields(text), " ")
	if t == "" {
		return nil
	}

	s := &ProfileSummary{
		Followers: countBefore(t, "followers"),
		Following: countBefore(t, "following"),
		Posts:     countBefore(t, "posts"),
	}
	if s.Followers == nil && s.Following == nil && s.Posts == nil {
		return nil
	}
	return s
}

// ParseDocSummary locates the page's og:description meta tag and parses the
// profile summary out of it. Returns nil when the tag is absent or carries no
// recognizable counts.
func ParseDocSummary(doc *goquery.Document) *ProfileSummary {
	content, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content")
	if !ok {
		content, ok = doc.Find(`meta[name="description"]`).First().Attr("content")
	}
	if !ok {
		return nil
	}
	return ParseProfileSummary(content)
}

// countBefore finds the token immediately preceding the label and parses it
// as a count. Separator glyphs stats pages wedge between tokens are stripped.
func countBefore(text, label string) *int64 {
	re := labelRes[label]
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	token := strings.Trim(m[1], "·•|,;:")
	if n, ok := ParseCount(token); ok {
		return &n
	}
	return nil
}
