// Package diag saves page material for failed scrapes: the full page source,
// a markdown rendering for quick reading, and a screenshot when one is
// available. Everything here is best effort; a failed dump never fails the
// run.
package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/hoopmetrics/enrich/pkg/models"
)

// Dumper writes failure material into a debug directory. A nil Dumper
// disables capture.
type Dumper struct {
	dir string
}

// New creates a Dumper rooted at dir. The directory is created lazily on
// the first capture.
func New(dir string) *Dumper {
	if dir == "" {
		return nil
	}
	return &Dumper{dir: dir}
}

// Capture implements the browser scrape diagnostics sink.
func (d *Dumper) Capture(handle string, status models.Status, pageHTML string, screenshot []byte) {
	if d == nil {
		return
	}
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		log.Warn().Err(err).Str("dir", d.dir).Msg("cannot create debug dir")
		return
	}

	base := fileBase(handle, status)

	if pageHTML != "" {
		// The raw source is saved untouched: the extractors read meta tags
		// and inline scripts, which the markdown rendering strips.
		if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(pageHTML), 0644); err != nil {
			log.Debug().Err(err).Msg("html dump failed")
		}
		if err := saveMarkdown(pageHTML, filepath.Join(d.dir, base+".md")); err != nil {
			log.Debug().Err(err).Msg("markdown dump failed")
		}
	}
	if len(screenshot) > 0 {
		if err := os.WriteFile(filepath.Join(d.dir, base+".png"), screenshot, 0644); err != nil {
			log.Debug().Err(err).Msg("screenshot dump failed")
		}
	}
	log.Debug().Str("handle", handle).Str("status", string(status)).Str("dir", d.dir).Msg("failure material saved")
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// fileBase builds a stable, filesystem-safe name for one capture. The
// timestamp keeps repeated failures for the same handle from clobbering
// each other.
func fileBase(handle string, status models.Status) string {
	safe := unsafeFilenameChars.ReplaceAllString(handle, "_")
	if safe == "" {
		safe = "unknown"
	}
	return fmt.Sprintf("%s_%s_%s", safe, status, time.Now().UTC().Format("20060102T150405"))
}

// saveMarkdown strips the page down to readable content and converts it.
func saveMarkdown(pageHTML, path string) error {
	cleaned, err := cleanHTML(pageHTML)
	if err != nil {
		return err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	mdStr, err := converter.ConvertString(cleaned)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(mdStr), 0644)
}

// cleanHTML removes script and chrome elements and strips attributes down
// to the few the markdown converter uses.
func cleanHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, link, meta, noscript, iframe, svg, form, input, button, select, textarea, canvas").Remove()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		node := s.Nodes[0]
		var kept []html.Attribute
		for _, attr := range node.Attr {
			switch node.Data {
			case "a":
				if attr.Key == "href" || attr.Key == "title" {
					kept = append(kept, attr)
				}
			case "img":
				if attr.Key == "src" || attr.Key == "alt" {
					kept = append(kept, attr)
				}
			}
		}
		node.Attr = kept
	})

	out, err := doc.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
