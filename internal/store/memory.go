package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/hoopmetrics/enrich/pkg/models"
)

// Memory is an in-memory Store used in tests and dry runs.
type Memory struct {
	mu       sync.Mutex
	subjects map[string]models.Subject
	order    []string
}

// NewMemory creates a Memory store seeded with the given subjects.
func NewMemory(subjects ...models.Subject) *Memory {
	m := &Memory{subjects: make(map[string]models.Subject)}
	for _, s := range subjects {
		m.subjects[s.ID] = s
		m.order = append(m.order, s.ID)
	}
	return m
}

// ListSubjects returns subjects in insertion order.
func (m *Memory) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Subject, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.subjects[id])
	}
	return out, nil
}

// UpdateSubject applies the patch with the same merge rules as the SQL
// store: nil patch fields leave stored values in place.
func (m *Memory) UpdateSubject(ctx context.Context, id string, patch Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subjects[id]
	if !ok {
		return fmt.Errorf("subject not found: %s", id)
	}

	if patch.Handle != nil {
		s.Handle = *patch.Handle
	}
	if patch.Metrics.Followers != nil {
		s.Metrics.Followers = patch.Metrics.Followers
	}
	if patch.Metrics.Following != nil {
		s.Metrics.Following = patch.Metrics.Following
	}
	if patch.Metrics.Posts != nil {
		s.Metrics.Posts = patch.Metrics.Posts
	}
	if patch.Metrics.EngagementRate != nil {
		s.Metrics.EngagementRate = patch.Metrics.EngagementRate
	}
	if patch.Metrics.AvgLikes != nil {
		s.Metrics.AvgLikes = patch.Metrics.AvgLikes
	}
	if patch.Metrics.AvgComments != nil {
		s.Metrics.AvgComments = patch.Metrics.AvgComments
	}
	s.CheckedAt = patch.CheckedAt
	s.LastStatus = patch.Status
	if patch.UpdatedAt != nil {
		s.UpdatedAt = *patch.UpdatedAt
	}

	m.subjects[id] = s
	return nil
}

// Get returns a subject by ID, for test assertions.
func (m *Memory) Get(id string) (models.Subject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subjects[id]
	return s, ok
}

// Close is a no-op.
func (m *Memory) Close() {}
