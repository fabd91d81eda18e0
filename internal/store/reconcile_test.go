package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopmetrics/enrich/pkg/models"
)

func TestBuildPatch_SuccessStampsUpdatedAt(t *testing.T) {
	subject := models.Subject{ID: "1", Name: "Alice", Handle: "alice"}
	result := &models.ScrapeResult{
		Status:     models.StatusOK,
		Metrics:    models.Metrics{Followers: models.Int64(5000)},
		ProfileURL: "https://www.instagram.com/alice/",
	}

	patch := BuildPatch(subject, result, now)

	assert.Equal(t, now, patch.CheckedAt)
	assert.Equal(t, models.StatusOK, patch.Status)
	require.NotNil(t, patch.UpdatedAt)
	assert.Equal(t, now, *patch.UpdatedAt)
	assert.Nil(t, patch.Handle, "unchanged handle must not be rewritten")
}

func TestBuildPatch_FailureLeavesUpdatedAt(t *testing.T) {
	subject := models.Subject{ID: "1", Name: "Alice"}
	result := &models.ScrapeResult{Status: models.StatusBlocked}

	patch := BuildPatch(subject, result, now)

	assert.Equal(t, models.StatusBlocked, patch.Status)
	assert.Nil(t, patch.UpdatedAt)
	assert.True(t, patch.Metrics.IsEmpty())
}

func TestBuildPatch_OKWithoutMetricsLeavesUpdatedAt(t *testing.T) {
	subject := models.Subject{ID: "1", Name: "Alice"}
	result := &models.ScrapeResult{Status: models.StatusOK}

	patch := BuildPatch(subject, result, now)
	assert.Nil(t, patch.UpdatedAt)
}

func TestBuildPatch_PersistsDiscoveredHandle(t *testing.T) {
	subject := models.Subject{ID: "1", Name: "Alice", Handle: ""}
	result := &models.ScrapeResult{
		Status:     models.StatusOK,
		Metrics:    models.Metrics{Followers: models.Int64(1)},
		ProfileURL: "https://www.instagram.com/alice_hoops/",
	}

	patch := BuildPatch(subject, result, now)
	require.NotNil(t, patch.Handle)
	assert.Equal(t, "alice_hoops", *patch.Handle)
}

func TestMemory_MergePreservesStoredMetrics(t *testing.T) {
	m := NewMemory(models.Subject{
		ID:   "1",
		Name: "Alice",
		Metrics: models.Metrics{
			Followers: models.Int64(4000),
			Posts:     models.Int64(80),
		},
	})

	patch := Patch{
		Metrics:   models.Metrics{Followers: models.Int64(5000)},
		CheckedAt: now,
		Status:    models.StatusOK,
	}
	require.NoError(t, m.UpdateSubject(context.Background(), "1", patch))

	s, ok := m.Get("1")
	require.True(t, ok)
	assert.Equal(t, int64(5000), *s.Metrics.Followers, "obtained metric overwrites")
	assert.Equal(t, int64(80), *s.Metrics.Posts, "missing metric preserves stored value")
	assert.Equal(t, now, s.CheckedAt)
	assert.Equal(t, models.StatusOK, s.LastStatus)
	assert.True(t, s.UpdatedAt.IsZero())
}

func TestMemory_UnknownSubject(t *testing.T) {
	m := NewMemory()
	err := m.UpdateSubject(context.Background(), "missing", Patch{})
	assert.Error(t, err)
}
