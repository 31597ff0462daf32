package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobflow/aggregator-service/internal/model"
)

// Postgres implements Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Store over the given pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) DistinctSearchTitles(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (lower(title)) title
		 FROM job_titles
		 ORDER BY lower(title), title`,
	)
	if err != nil {
		return nil, fmt.Errorf("query distinct titles: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

func (s *Postgres) UserSearchTitles(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT title FROM job_titles WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query user titles: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

func (s *Postgres) SubscribedProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, unsubscribe_token
		 FROM profiles
		 WHERE is_subscribed = true
		 ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscribed profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.UnsubscribeToken); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *Postgres) InsertPosting(ctx context.Context, p *model.Posting) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (external_id, source, title, company, location, description, url, salary, search_title)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
		 ON CONFLICT (external_id) DO NOTHING`,
		p.ExternalID, p.Source, p.Title, p.Company, p.Location,
		p.Description, p.URL, p.Salary, p.SearchTitle,
	)
	if err != nil {
		return false, fmt.Errorf("insert posting %s: %w", p.ExternalID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Postgres) UnnotifiedPostings(ctx context.Context, userID string, titles []string, limit int) ([]model.Posting, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	lowered := make([]string, len(titles))
	for i, t := range titles {
		lowered[i] = strings.ToLower(t)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT j.id, j.external_id, j.source, j.title, j.company, j.location,
		        j.description, j.url, COALESCE(j.salary, ''), j.search_title, j.scraped_at
		 FROM jobs j
		 WHERE lower(j.search_title) = ANY($2)
		   AND NOT EXISTS (
		     SELECT 1 FROM email_logs e WHERE e.user_id = $1 AND e.job_id = j.id
		   )
		 ORDER BY j.scraped_at DESC
		 LIMIT $3`,
		userID, lowered, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query unnotified postings: %w", err)
	}
	defer rows.Close()

	var postings []model.Posting
	for rows.Next() {
		var p model.Posting
		if err := rows.Scan(
			&p.ID, &p.ExternalID, &p.Source, &p.Title, &p.Company, &p.Location,
			&p.Description, &p.URL, &p.Salary, &p.SearchTitle, &p.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

func (s *Postgres) BeginRun(ctx context.Context, source, searchTitle string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO scrape_runs (source, search_title) VALUES ($1, $2) RETURNING id`,
		source, searchTitle,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("begin run (%s, %q): %w", source, searchTitle, err)
	}
	return id, nil
}

func (s *Postgres) CompleteRun(ctx context.Context, runID int64, found, saved int, rawPayload []byte) error {
	var raw *string
	if len(rawPayload) > 0 {
		text := string(rawPayload)
		raw = &text
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE scrape_runs
		 SET completed_at = NOW(), found_count = $2, saved_count = $3, raw_payload = $4::jsonb
		 WHERE id = $1`,
		runID, found, saved, raw,
	)
	if err != nil {
		return fmt.Errorf("complete run %d: %w", runID, err)
	}
	return nil
}

func (s *Postgres) FailRun(ctx context.Context, runID int64, errText string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE scrape_runs SET completed_at = NOW(), error_text = $2 WHERE id = $1`,
		runID, errText,
	)
	if err != nil {
		return fmt.Errorf("fail run %d: %w", runID, err)
	}
	return nil
}

func (s *Postgres) LastCleanRun(ctx context.Context, source, searchTitle string) (*model.RunRecord, error) {
	var r model.RunRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, source, search_title, started_at, completed_at,
		        found_count, saved_count, error_text
		 FROM scrape_runs
		 WHERE source = $1 AND search_title = $2 AND error_text IS NULL
		 ORDER BY started_at DESC
		 LIMIT 1`,
		source, searchTitle,
	).Scan(
		&r.ID, &r.Source, &r.SearchTitle, &r.StartedAt, &r.CompletedAt,
		&r.FoundCount, &r.SavedCount, &r.ErrorText,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last clean run (%s, %q): %w", source, searchTitle, err)
	}
	return &r, nil
}

func (s *Postgres) MarkNotified(ctx context.Context, userID string, jobID int64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO email_logs (user_id, job_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, job_id) DO NOTHING`,
		userID, jobID,
	)
	if err != nil {
		return fmt.Errorf("mark notified (user %s, job %d): %w", userID, jobID, err)
	}
	return nil
}

func scanStrings(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
