package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/hoopmetrics/enrich/pkg/models"
)

// Postgres reads and writes subjects in the application's player table. The
// schema is owned by the surrounding application and uses quoted camelCase
// columns; this store only touches the identity and enrichment columns.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and verifies it.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// ListSubjects returns every player with its stored enrichment state.
func (p *Postgres) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, COALESCE(instagram, ''),
		        "igFollowers", "igFollowing", "igPosts",
		        "igEngagementRate", "igAvgLikes", "igAvgComments",
		        "igSbLastCheckedAt", "igSbStatus", "instagramUpdatedAt"
		 FROM "Player"
		 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var subjects []models.Subject
	for rows.Next() {
		var (
			s         models.Subject
			checkedAt *time.Time
			updatedAt *time.Time
			status    *string
		)
		err := rows.Scan(
			&s.ID, &s.Name, &s.Handle,
			&s.Metrics.Followers, &s.Metrics.Following, &s.Metrics.Posts,
			&s.Metrics.EngagementRate, &s.Metrics.AvgLikes, &s.Metrics.AvgComments,
			&checkedAt, &status, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		if checkedAt != nil {
			s.CheckedAt = *checkedAt
		}
		if updatedAt != nil {
			s.UpdatedAt = *updatedAt
		}
		if status != nil {
			s.LastStatus = models.Status(*status)
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read players: %w", err)
	}
	return subjects, nil
}

// UpdateSubject writes one attempt's patch. Only obtained metrics appear in
// the SET list, so stored values survive a partial scrape.
func (p *Postgres) UpdateSubject(ctx context.Context, id string, patch Patch) error {
	sets := []string{`"igSbLastCheckedAt" = $1`, `"igSbStatus" = $2`}
	args := []any{patch.CheckedAt, string(patch.Status)}
	argNum := 3

	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argNum))
		args = append(args, value)
		argNum++
	}

	if patch.Handle != nil {
		add("instagram", *patch.Handle)
	}
	if patch.Metrics.Followers != nil {
		add(`"igFollowers"`, *patch.Metrics.Followers)
	}
	if patch.Metrics.Following != nil {
		add(`"igFollowing"`, *patch.Metrics.Following)
	}
	if patch.Metrics.Posts != nil {
		add(`"igPosts"`, *patch.Metrics.Posts)
	}
	if patch.Metrics.EngagementRate != nil {
		add(`"igEngagementRate"`, *patch.Metrics.EngagementRate)
	}
	if patch.Metrics.AvgLikes != nil {
		add(`"igAvgLikes"`, *patch.Metrics.AvgLikes)
	}
	if patch.Metrics.AvgComments != nil {
		add(`"igAvgComments"`, *patch.Metrics.AvgComments)
	}
	if patch.UpdatedAt != nil {
		add(`"instagramUpdatedAt"`, *patch.UpdatedAt)
	}

	query := `UPDATE "Player" SET `
	for i, s := range sets {
		if i > 0 {
			query += ", "
		}
		query += s
	}
	query += fmt.Sprintf(` WHERE id = $%d`, argNum)
	args = append(args, id)

	result, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update player %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("player not found: %s", id)
	}

	log.Debug().Str("id", id).Str("status", string(patch.Status)).Msg("player updated")
	return nil
}
