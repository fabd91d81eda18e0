package diag

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hoopmetrics/enrich/pkg/models"
)

func TestCapture_WritesSourceMarkdownAndScreenshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug")
	d := New(dir)

	page := `<html><body><script>var x=1;</script><h1>Sorry</h1><p>this page isn't available</p></body></html>`
	d.Capture("some.user", models.StatusNotFound, page, []byte{0x89, 'P', 'N', 'G'})

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var md, png, raw bool
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "some.user_not_found_") {
			switch filepath.Ext(e.Name()) {
			case ".html":
				raw = true
				content, err := os.ReadFile(filepath.Join(dir, e.Name()))
				if err != nil {
					t.Fatal(err)
				}
				// The source snapshot must be byte-identical, scripts included.
				if string(content) != page {
					t.Error("raw HTML snapshot was altered")
				}
			case ".md":
				md = true
				content, err := os.ReadFile(filepath.Join(dir, e.Name()))
				if err != nil {
					t.Fatal(err)
				}
				if strings.Contains(string(content), "var x=1") {
					t.Error("script content leaked into markdown")
				}
				if !strings.Contains(string(content), "Sorry") {
					t.Error("page text missing from markdown")
				}
			case ".png":
				png = true
			}
		}
	}
	if !md || !png || !raw {
		t.Errorf("md=%v png=%v html=%v, want all three", md, png, raw)
	}
}

func TestCapture_NilDumperIsNoop(t *testing.T) {
	var d *Dumper
	d.Capture("x", models.StatusBlocked, "<html></html>", nil)
}

func TestFileBase_SanitizesHandle(t *testing.T) {
	base := fileBase("weird/handle name", models.StatusBlocked)
	if strings.ContainsAny(base, "/ ") {
		t.Errorf("unsafe characters in %q", base)
	}
	if !strings.HasPrefix(base, "weird_handle_name_blocked_") {
		t.Errorf("base = %q", base)
	}
}
