package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hoopmetrics/enrich/pkg/models"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const week = 7 * 24 * time.Hour

func names(subjects []models.Subject) []string {
	out := make([]string, len(subjects))
	for i, s := range subjects {
		out[i] = s.Name
	}
	return out
}

func TestSelect_Staleness(t *testing.T) {
	subjects := []models.Subject{
		{ID: "1", Name: "Alice"}, // never checked
		{ID: "2", Name: "Bob", CheckedAt: now.Add(-8 * 24 * time.Hour), LastStatus: models.StatusOK},
		{ID: "3", Name: "Cara", CheckedAt: now.Add(-24 * time.Hour), LastStatus: models.StatusOK},
		{ID: "4", Name: "Dan", CheckedAt: now.Add(-24 * time.Hour), LastStatus: models.StatusBlocked},
	}

	got := Select(subjects, SelectOptions{Freshness: week}, now)

	// Cara was checked successfully yesterday, so only she is fresh.
	assert.Equal(t, []string{"Alice", "Bob", "Dan"}, names(got))
}

func TestSelect_ForceIgnoresFreshness(t *testing.T) {
	subjects := []models.Subject{
		{ID: "1", Name: "Cara", CheckedAt: now.Add(-time.Hour), LastStatus: models.StatusOK},
	}

	got := Select(subjects, SelectOptions{Freshness: week, Force: true}, now)
	assert.Len(t, got, 1)
}

func TestSelect_OnlyMissing(t *testing.T) {
	full := models.Metrics{
		Followers:      models.Int64(1),
		Following:      models.Int64(2),
		Posts:          models.Int64(3),
		EngagementRate: models.Float64(4),
		AvgLikes:       models.Float64(5),
		AvgComments:    models.Float64(6),
	}
	subjects := []models.Subject{
		{ID: "1", Name: "Alice", Metrics: full},
		{ID: "2", Name: "Bob", Metrics: models.Metrics{Followers: models.Int64(10)}},
	}

	got := Select(subjects, SelectOptions{OnlyMissing: true}, now)
	assert.Equal(t, []string{"Bob"}, names(got))
}

func TestSelect_SortStartFromLimit(t *testing.T) {
	subjects := []models.Subject{
		{ID: "1", Name: "dana"},
		{ID: "2", Name: "Alice"},
		{ID: "3", Name: "bob"},
		{ID: "4", Name: "Cara"},
	}

	got := Select(subjects, SelectOptions{StartFrom: "Bob", Limit: 2}, now)
	assert.Equal(t, []string{"bob", "Cara"}, names(got))
}

func TestSelect_StartFromPastEnd(t *testing.T) {
	subjects := []models.Subject{{ID: "1", Name: "Alice"}}
	got := Select(subjects, SelectOptions{StartFrom: "zzz"}, now)
	assert.Empty(t, got)
}
