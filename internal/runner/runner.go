// Package runner walks the selected subjects through locate, scrape, and
// write-back. Subjects are processed strictly one at a time; the target
// platforms punish parallel traffic from a single identity.
package runner

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/hoopmetrics/enrich/internal/fetch"
	"github.com/hoopmetrics/enrich/internal/ledger"
	"github.com/hoopmetrics/enrich/internal/ratelimit"
	"github.com/hoopmetrics/enrich/internal/store"
	"github.com/hoopmetrics/enrich/pkg/models"
)

// Scraper is one strategy for turning a subject into a scrape result.
type Scraper interface {
	Scrape(ctx context.Context, subject models.Subject) (*models.ScrapeResult, error)
}

// Summary is what one run accomplished.
type Summary struct {
	Processed int
	Updated   int
	Failed    int
}

// Runner orchestrates one enrichment pass.
type Runner struct {
	store    store.Store
	scraper  Scraper
	ledger   *ledger.Ledger
	pacer    *ratelimit.Pacer
	progress bool
}

// New wires a Runner. ledger may be nil to skip failure recording; pacer
// may be nil to disable inter-item pauses (tests).
func New(st store.Store, sc Scraper, lg *ledger.Ledger, pacer *ratelimit.Pacer, progress bool) *Runner {
	return &Runner{store: st, scraper: sc, ledger: lg, pacer: pacer, progress: progress}
}

// Run selects subjects, scrapes each, and writes results back. Item-level
// failures are recorded and the run continues; only context cancellation
// stops it early, returning the partial summary alongside the error.
func (r *Runner) Run(ctx context.Context, opts store.SelectOptions) (*Summary, error) {
	subjects, err := r.store.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}

	selected := store.Select(subjects, opts, time.Now())
	log.Info().
		Int("total", len(subjects)).
		Int("selected", len(selected)).
		Msg("run starting")

	var bar *progressbar.ProgressBar
	if r.progress && len(selected) > 0 {
		bar = progressbar.NewOptions(len(selected),
			progressbar.OptionSetDescription("enriching"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	summary := &Summary{}
	for i, subject := range selected {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := r.processOne(ctx, subject)
		summary.Processed++
		if result.Updated() {
			summary.Updated++
		}
		if result.Status != models.StatusOK {
			summary.Failed++
		}

		if bar != nil {
			_ = bar.Add(1)
		}

		if r.pacer != nil && i < len(selected)-1 {
			if err := r.pacer.Pause(ctx); err != nil {
				return summary, err
			}
		}
	}

	log.Info().
		Int("processed", summary.Processed).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Msg("run finished")
	return summary, nil
}

func (r *Runner) processOne(ctx context.Context, subject models.Subject) *models.ScrapeResult {
	result := r.scrapeOne(ctx, subject)

	patch := store.BuildPatch(subject, result, time.Now())
	if err := r.store.UpdateSubject(ctx, subject.ID, patch); err != nil {
		log.Error().Err(err).Str("name", subject.Name).Msg("write-back failed")
	}

	if result.Status != models.StatusOK && r.ledger != nil {
		if err := r.ledger.Record(subject, result); err != nil {
			log.Warn().Err(err).Str("name", subject.Name).Msg("ledger append failed")
		}
	}

	event := log.Info()
	if result.Status != models.StatusOK {
		event = log.Warn()
	}
	event.
		Str("name", subject.Name).
		Str("status", string(result.Status)).
		Str("url", result.ProfileURL).
		Bool("updated", result.Updated()).
		Msg("subject processed")

	return result
}

func (r *Runner) scrapeOne(ctx context.Context, subject models.Subject) *models.ScrapeResult {
	if strings.TrimSpace(subject.Name) == "" {
		return &models.ScrapeResult{
			Status:      models.StatusInvalidName,
			ErrorDetail: "subject has no usable name",
		}
	}

	result, err := r.scraper.Scrape(ctx, subject)
	if err != nil {
		return &models.ScrapeResult{
			Status:      models.StatusError,
			ErrorDetail: fetch.Truncate(err.Error()),
		}
	}
	return result
}
