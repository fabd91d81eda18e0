package models

import "time"

// Status classifies the outcome of one scrape attempt.
type Status string

const (
	StatusOK             Status = "ok"
	StatusNotFound       Status = "not_found"
	StatusBlocked        Status = "blocked"
	StatusRateLimited    Status = "rate_limited"
	StatusLoginWall      Status = "login_wall"
	StatusSessionExpired Status = "session_expired"
	StatusParseFailed    Status = "parse_failed"
	StatusInvalidName    Status = "invalid_name"
	StatusFetchFailed    Status = "fetch_failed"
	StatusError          Status = "error"
)

// Metrics holds the tracked profile statistics. Nil means "not obtained";
// a nil field never overwrites a stored value.
type Metrics struct {
	Followers      *int64   `json:"followers,omitempty"`
	Following      *int64   `json:"following,omitempty"`
	Posts          *int64   `json:"posts,omitempty"`
	EngagementRate *float64 `json:"engagement_rate,omitempty"`
	AvgLikes       *float64 `json:"avg_likes,omitempty"`
	AvgComments    *float64 `json:"avg_comments,omitempty"`
}

// IsEmpty reports whether no metric was obtained.
func (m Metrics) IsEmpty() bool {
	return m.Followers == nil && m.Following == nil && m.Posts == nil &&
		m.EngagementRate == nil && m.AvgLikes == nil && m.AvgComments == nil
}

// MissingAny reports whether at least one tracked metric is absent.
func (m Metrics) MissingAny() bool {
	return m.Followers == nil || m.Following == nil || m.Posts == nil ||
		m.EngagementRate == nil || m.AvgLikes == nil || m.AvgComments == nil
}

// Subject is the person being enriched. The surrounding application owns the
// record; the enricher reads identity fields and writes back metrics and
// scrape-status fields.
type Subject struct {
	ID     string
	Name   string
	Handle string

	Metrics    Metrics
	CheckedAt  time.Time
	UpdatedAt  time.Time
	LastStatus Status
}

// ScrapeResult is the transient outcome of one attempt. Only non-nil metric
// fields are merged into the stored Subject.
type ScrapeResult struct {
	Status        Status
	Metrics       Metrics
	ProfileURL    string
	MissingLabels []string
	ErrorDetail   string
}

// Updated reports whether the attempt succeeded with at least one metric.
func (r ScrapeResult) Updated() bool {
	return r.Status == StatusOK && !r.Metrics.IsEmpty()
}

// Int64 returns a pointer to v, for building Metrics literals.
func Int64(v int64) *int64 { return &v }

// Float64 returns a pointer to v, for building Metrics literals.
func Float64(v float64) *float64 { return &v }
