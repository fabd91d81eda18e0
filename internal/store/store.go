// Package store persists subjects and their scraped metrics. The enricher
// does not own the subject table; it reads identity fields and writes back
// metric and bookkeeping columns.
package store

import (
	"context"
	"time"

	"github.com/hoopmetrics/enrich/pkg/models"
)

// Patch is the set of columns one scrape attempt writes back. Nil metric
// fields are left untouched in the store; CheckedAt and Status are always
// written; UpdatedAt is only set when at least one metric was obtained.
type Patch struct {
	Handle    *string
	Metrics   models.Metrics
	CheckedAt time.Time
	Status    models.Status
	UpdatedAt *time.Time
}

// Store is the persistence boundary for subjects.
type Store interface {
	// ListSubjects returns every subject, with whatever metrics and
	// bookkeeping state is already stored.
	ListSubjects(ctx context.Context) ([]models.Subject, error)

	// UpdateSubject applies a patch to one subject. Nil pointer fields in
	// the patch leave the stored values unchanged.
	UpdateSubject(ctx context.Context, id string, patch Patch) error

	Close()
}
