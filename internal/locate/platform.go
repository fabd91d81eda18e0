package locate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Platform describes the social network being searched: its domain, the
// path segments that are never profiles, and the handle rules.
type Platform struct {
	Name            string
	Domain          string
	nonProfilePaths map[string]struct{}
	handleRe        *regexp.Regexp
}

// Instagram returns the platform definition for instagram.com profiles.
func Instagram() Platform {
	nonProfile := map[string]struct{}{
		"p": {}, "reel": {}, "reels": {}, "tv": {}, "explore": {},
		"stories": {}, "accounts": {}, "direct": {}, "about": {},
		"legal": {}, "help": {}, "developer": {}, "directory": {},
	}
	return Platform{
		Name:            "instagram",
		Domain:          "instagram.com",
		nonProfilePaths: nonProfile,
		handleRe:        regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`),
	}
}

// ProfileURL builds the canonical profile URL for a handle.
func (p Platform) ProfileURL(handle string) string {
	return fmt.Sprintf("https://www.%s/%s/", p.Domain, NormalizeHandle(handle))
}

// HandleFromURL extracts a profile handle from a candidate URL. ok=false when
// the URL is off-platform, points at a non-profile path, or the username
// violates the platform's handle rules.
func (p Platform) HandleFromURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host != p.Domain && !strings.HasSuffix(host, "."+p.Domain) {
		return "", false
	}

	segment, _, _ := strings.Cut(strings.Trim(u.EscapedPath(), "/"), "/")
	segment, err = url.PathUnescape(segment)
	if err != nil || segment == "" {
		return "", false
	}
	if _, skip := p.nonProfilePaths[strings.ToLower(segment)]; skip {
		return "", false
	}
	if !p.handleRe.MatchString(segment) {
		return "", false
	}
	return segment, true
}

// ValidHandle reports whether a stored handle satisfies the platform rules.
func (p Platform) ValidHandle(handle string) bool {
	return p.handleRe.MatchString(NormalizeHandle(handle))
}

// NormalizeHandle strips the decorative "@" and surrounding whitespace.
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}
