package browser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtractMetrics_MetaSummary(t *testing.T) {
	doc := docFrom(t, `<html><head>
		<meta property="og:description" content="12.5K Followers, 300 Following, 85 Posts - see photos and videos">
	</head><body></body></html>`)

	m, missing := extractMetrics(doc, "https://www.instagram.com/x/")
	if m.Followers == nil || *m.Followers != 12500 {
		t.Errorf("followers = %v, want 12500", m.Followers)
	}
	if m.Following == nil || *m.Following != 300 {
		t.Errorf("following = %v, want 300", m.Following)
	}
	if m.Posts == nil || *m.Posts != 85 {
		t.Errorf("posts = %v, want 85", m.Posts)
	}
	// Engagement metrics are absent from plain profile pages.
	if len(missing) != 3 {
		t.Errorf("missing = %v, want the three engagement labels", missing)
	}
}

func TestExtractMetrics_VisibleLabels(t *testing.T) {
	doc := docFrom(t, `<html><body>
		<ul>
			<li><span>85</span> <span>Posts</span></li>
			<li><span>2.5K</span> <span>Followers</span></li>
			<li><span>300</span> <span>Following</span></li>
		</ul>
		<div class="card"><div>Engagement Rate</div><div>3.85%</div></div>
		<div class="card"><div>Avg Likes</div><div>1.2K</div></div>
	</body></html>`)

	m, _ := extractMetrics(doc, "https://www.instagram.com/x/")
	if m.Followers == nil || *m.Followers != 2500 {
		t.Errorf("followers = %v, want 2500", m.Followers)
	}
	if m.EngagementRate == nil || *m.EngagementRate != 3.85 {
		t.Errorf("engagement rate = %v, want 3.85", m.EngagementRate)
	}
	if m.AvgLikes == nil || *m.AvgLikes != 1200 {
		t.Errorf("avg likes = %v, want 1200", m.AvgLikes)
	}
	if m.AvgComments != nil {
		t.Errorf("avg comments = %v, want nil", m.AvgComments)
	}
}

func TestExtractMetrics_MetaWinsOverVisible(t *testing.T) {
	doc := docFrom(t, `<html><head>
		<meta property="og:description" content="1,000 Followers, 50 Following, 10 Posts">
	</head><body>
		<li><span>999</span> <span>Followers</span></li>
	</body></html>`)

	m, _ := extractMetrics(doc, "https://www.instagram.com/x/")
	if m.Followers == nil || *m.Followers != 1000 {
		t.Errorf("followers = %v, want the meta value 1000", m.Followers)
	}
}

func TestExtractMetrics_NothingFound(t *testing.T) {
	doc := docFrom(t, `<html><body><p>Just some unrelated page.</p></body></html>`)

	m, missing := extractMetrics(doc, "https://www.instagram.com/x/")
	if !m.IsEmpty() {
		t.Errorf("metrics = %+v, want empty", m)
	}
	if len(missing) != 6 {
		t.Errorf("missing = %v, want all six labels", missing)
	}
}
