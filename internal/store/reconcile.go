package store

import (
	"strings"
	"time"

	"github.com/hoopmetrics/enrich/internal/locate"
	"github.com/hoopmetrics/enrich/pkg/models"
)

// BuildPatch turns one scrape outcome into the columns to write back.
// Merge rules: only obtained metrics overwrite stored values, the check
// timestamp and status are always stamped, and the metrics-updated
// timestamp moves only when the attempt actually produced a metric. A
// newly discovered handle is persisted so the next run skips the search.
func BuildPatch(subject models.Subject, result *models.ScrapeResult, now time.Time) Patch {
	patch := Patch{
		Metrics:   result.Metrics,
		CheckedAt: now,
		Status:    result.Status,
	}

	if result.Updated() {
		t := now
		patch.UpdatedAt = &t
	}

	if result.ProfileURL != "" {
		if handle, ok := locate.Instagram().HandleFromURL(result.ProfileURL); ok && !strings.EqualFold(handle, locate.NormalizeHandle(subject.Handle)) {
			patch.Handle = &handle
		}
	}

	return patch
}
