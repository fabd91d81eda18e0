package store

import (
	"sort"
	"strings"
	"time"

	"github.com/hoopmetrics/enrich/pkg/models"
)

// SelectOptions controls which subjects a run processes and in what order.
type SelectOptions struct {
	// Freshness is how long a successful check stays valid. Zero means the
	// caller's default; Force ignores it entirely.
	Freshness time.Duration
	Force     bool

	// OnlyMissing keeps just the subjects still lacking at least one metric.
	OnlyMissing bool

	// StartFrom resumes the name-ordered list at the first subject whose
	// name sorts at or after this value, case-insensitively.
	StartFrom string

	// Limit caps the number of subjects returned. Zero means no cap.
	Limit int
}

// Select filters and orders subjects for a run. Filters apply in a fixed
// order: staleness, missing-metrics, name sort, resume point, limit. A
// subject is stale when it was never checked, its last check is older than
// the freshness window, or its last attempt did not succeed.
func Select(subjects []models.Subject, opts SelectOptions, now time.Time) []models.Subject {
	var picked []models.Subject
	for _, s := range subjects {
		if !opts.Force && !isStale(s, opts.Freshness, now) {
			continue
		}
		if opts.OnlyMissing && !s.Metrics.MissingAny() {
			continue
		}
		picked = append(picked, s)
	}

	sort.Slice(picked, func(i, j int) bool {
		return strings.ToLower(picked[i].Name) < strings.ToLower(picked[j].Name)
	})

	if opts.StartFrom != "" {
		from := strings.ToLower(opts.StartFrom)
		idx := sort.Search(len(picked), func(i int) bool {
			return strings.ToLower(picked[i].Name) >= from
		})
		picked = picked[idx:]
	}

	if opts.Limit > 0 && len(picked) > opts.Limit {
		picked = picked[:opts.Limit]
	}
	return picked
}

func isStale(s models.Subject, freshness time.Duration, now time.Time) bool {
	if s.CheckedAt.IsZero() {
		return true
	}
	if s.LastStatus != models.StatusOK {
		return true
	}
	if freshness <= 0 {
		return false
	}
	return now.Sub(s.CheckedAt) > freshness
}
