package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spigell/placement-engine/internal/types"
)

// UpsertExternalJobs caches scored external results per candidate, keyed by URL.
func (db *DB) UpsertExternalJobs(ctx context.Context, candidateID string, results []types.MatchResult[types.ExternalJob]) error {
	id, err := parseID("candidate_id", candidateID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range results {
		job := r.Subject
		batch.Queue(
			`INSERT INTO external_jobs (candidate_id, external_url, title, company, description, location,
			     source, posted_at, match_score, matched_skills, missing_skills, fallback, fetched_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
			 ON CONFLICT (candidate_id, external_url) DO UPDATE SET
			     title = EXCLUDED.title,
			     company = EXCLUDED.company,
			     description = EXCLUDED.description,
			     location = EXCLUDED.location,
			     source = EXCLUDED.source,
			     posted_at = EXCLUDED.posted_at,
			     match_score = EXCLUDED.match_score,
			     matched_skills = EXCLUDED.matched_skills,
			     missing_skills = EXCLUDED.missing_skills,
			     fallback = EXCLUDED.fallback,
			     fetched_at = NOW()`,
			id, job.ExternalURL, job.Title, job.Company, job.Description, job.Location,
			job.Source, job.PostedAt, r.MatchScore, nonNil(r.MatchedSkills), nonNil(r.MissingSkills), r.Fallback,
		)
	}

	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert external jobs: %w", err)
	}
	return nil
}

// GetExternalJob returns a cached external result for the candidate, or nil.
func (db *DB) GetExternalJob(ctx context.Context, candidateID, externalURL string) (*types.MatchResult[types.ExternalJob], error) {
	id, err := parseID("candidate_id", candidateID)
	if err != nil {
		return nil, err
	}

	var r types.MatchResult[types.ExternalJob]
	err = db.pool.QueryRow(ctx,
		`SELECT external_url, title, company, description, location, source, posted_at,
		        match_score, matched_skills, missing_skills, fallback
		 FROM external_jobs WHERE candidate_id = $1 AND external_url = $2`,
		id, externalURL,
	).Scan(&r.Subject.ExternalURL, &r.Subject.Title, &r.Subject.Company, &r.Subject.Description,
		&r.Subject.Location, &r.Subject.Source, &r.Subject.PostedAt,
		&r.MatchScore, &r.MatchedSkills, &r.MissingSkills, &r.Fallback)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get external job: %w", err)
	}
	return &r, nil
}
