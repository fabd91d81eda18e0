package extract

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"github.com/rs/zerolog/log"
)

// Profile pages that render client-side still ship their counts inside
// inline script payloads. These match the JSON keys the payloads use.
var (
	followedByRe = regexp.MustCompile(`"edge_followed_by"\s*:\s*\{\s*"count"\s*:\s*(\d+)`)
	followRe     = regexp.MustCompile(`"edge_follow"\s*:\s*\{\s*"count"\s*:\s*(\d+)`)
	mediaRe      = regexp.MustCompile(`"edge_owner_to_timeline_media"\s*:\s*\{\s*"count"\s*:\s*(\d+)`)
)

// InlineCounts recovers profile counts from inline scripts when the meta
// description is absent. Scripts run in a sandboxed VM with a minimal window
// mock; whatever data they assign to globals is serialized and scanned for
// the count keys. Raw script text is scanned as a last resort.
func InlineCounts(doc *goquery.Document, pageURL string) *ProfileSummary {
	vm := goja.New()

	// Minimal browser environment, just enough for data-assignment scripts.
	vm.Set("window", vm.GlobalObject())
	vm.Set("self", vm.GlobalObject())
	loc := map[string]interface{}{"href": pageURL}
	vm.Set("location", loc)
	vm.Set("document", map[string]interface{}{"location": loc})
	vm.Set("console", map[string]interface{}{
		"log":   func(call goja.FunctionCall) goja.Value { return nil },
		"error": func(call goja.FunctionCall) goja.Value { return nil },
	})

	var raw string
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if _, external := sel.Attr("src"); external {
			return
		}
		src := sel.Text()
		if src == "" {
			return
		}
		raw += src + "\n"
		// Most scripts fail on the missing DOM; that is expected.
		if _, err := vm.RunString(src); err != nil {
			log.Trace().Err(err).Msg("inline script failed in sandbox")
		}
	})

	for _, key := range vm.GlobalObject().Keys() {
		if isStandardGlobal(key) {
			continue
		}
		val := vm.Get(key)
		if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
			continue
		}
		exported, err := json.Marshal(val.Export())
		if err != nil {
			continue
		}
		if s := scanCounts(string(exported)); s != nil {
			return s
		}
	}

	return scanCounts(raw)
}

func scanCounts(text string) *ProfileSummary {
	s := &ProfileSummary{
		Followers: firstGroupCount(followedByRe, text),
		Following: firstGroupCount(followRe, text),
		Posts:     firstGroupCount(mediaRe, text),
	}
	if s.Followers == nil && s.Following == nil && s.Posts == nil {
		return nil
	}
	return s
}

func firstGroupCount(re *regexp.Regexp, text string) *int64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func isStandardGlobal(key string) bool {
	standards := map[string]bool{
		"window": true, "self": true, "document": true, "location": true, "console": true,
		"Object": true, "Array": true, "String": true, "Number": true, "Boolean": true,
		"Date": true, "Math": true, "JSON": true, "RegExp": true, "Error": true,
		"Function": true, "parseInt": true, "parseFloat": true, "isNaN": true,
		"isFinite": true, "encodeURI": true, "decodeURI": true, "encodeURIComponent": true,
		"decodeURIComponent": true, "undefined": true, "NaN": true, "Infinity": true,
	}
	return standards[key]
}
