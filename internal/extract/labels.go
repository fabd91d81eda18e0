package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxBlockLen bounds how much text a stat block can plausibly carry. A block
// longer than this means the label matched a page-level ancestor, not the
// stat card.
const maxBlockLen = 160

// LabelText locates the first element whose own text contains the label and
// returns its enclosing block's text with the label removed. When the
// immediate block has no adjacent text, or is implausibly long, the parent
// block is tried instead. ok=false means the label is absent from the page.
func LabelText(doc *goquery.Document, label string) (string, bool) {
	lower := strings.ToLower(label)

	var leaf *goquery.Selection
	doc.Find("body *").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 0 {
			return true
		}
		if goquery.NodeName(s) == "script" || goquery.NodeName(s) == "style" {
			return true
		}
		if strings.Contains(strings.ToLower(s.Text()), lower) {
			leaf = s
			return false
		}
		return true
	})
	if leaf == nil {
		return "", false
	}

	block := leaf.Parent()
	text := stripLabel(squash(block.Text()), label)
	if text == "" || len(text) > maxBlockLen {
		parent := block.Parent()
		if parent.Length() > 0 {
			if ptext := stripLabel(squash(parent.Text()), label); ptext != "" && len(ptext) <= maxBlockLen {
				text = ptext
			}
		}
	}
	return text, true
}

// LabelCount reads the count adjacent to the label. Returns nil when the
// label is absent or no token near it parses as a count.
func LabelCount(doc *goquery.Document, label string) *int64 {
	text, ok := LabelText(doc, label)
	if !ok {
		return nil
	}
	for _, token := range strings.Fields(text) {
		if n, ok := ParseCount(strings.Trim(token, "·•|,;:")); ok {
			return &n
		}
	}
	return nil
}

// LabelPercent reads the percentage adjacent to the label. Returns nil when
// the label is absent or no token near it parses as a percentage.
func LabelPercent(doc *goquery.Document, label string) *float64 {
	text, ok := LabelText(doc, label)
	if !ok {
		return nil
	}
	for _, token := range strings.Fields(text) {
		if !strings.ContainsAny(token, "0123456789") {
			continue
		}
		if v, ok := ParsePercent(strings.Trim(token, "·•|,;:")); ok {
			return &v
		}
	}
	return nil
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripLabel removes the label (case-insensitively) from the block text so
// only the adjacent value tokens remain.
func stripLabel(text, label string) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(label))
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	rest := text[:idx] + text[idx+len(label):]
	return strings.TrimSpace(rest)
}
