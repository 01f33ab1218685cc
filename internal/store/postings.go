package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spigell/placement-engine/internal/types"
	"github.com/spigell/placement-engine/internal/visibility"
)

const postingColumns = `id, title, company, description, location, tenant_id, status,
	poster_trust, required_skills, created_at`

// ListCandidatePostings returns non-terminal postings that belong to no tenant
// or to tenantID, newest first. Callers still apply the visibility policy.
// A non-positive limit returns every row.
func (db *DB) ListCandidatePostings(ctx context.Context, tenantID string, limit int) ([]types.JobPosting, error) {
	var rowLimit any
	if limit > 0 {
		rowLimit = limit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+postingColumns+`
		 FROM job_postings
		 WHERE status IN ('pending', 'approved', 'active')
		   AND (tenant_id = '' OR tenant_id = $1)
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		tenantID, rowLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list job postings: %w", err)
	}
	defer rows.Close()

	var postings []types.JobPosting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		postings = append(postings, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job postings: %w", err)
	}
	return postings, nil
}

// GetJobPosting retrieves a posting by ID, or nil when it does not exist.
func (db *DB) GetJobPosting(ctx context.Context, postingID string) (*types.JobPosting, error) {
	id, err := parseID("subject_id", postingID)
	if err != nil {
		return nil, err
	}

	p, err := scanPosting(db.pool.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// CreateJobPosting inserts a posting, assigning an ID and CreatedAt when empty.
func (db *DB) CreateJobPosting(ctx context.Context, p *types.JobPosting) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	id, err := parseID("id", p.ID)
	if err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = types.StatusPending
	}
	if !visibility.Admissible(p.Status) {
		return &types.ErrValidation{Field: "status", Message: fmt.Sprintf("a posting cannot be created as %q", p.Status)}
	}
	if p.PosterTrust == "" {
		p.PosterTrust = types.TrustUnverified
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO job_postings (`+postingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, p.Title, p.Company, p.Description, p.Location, p.TenantID,
		string(p.Status), string(p.PosterTrust), nonNil(p.RequiredSkills), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job posting: %w", err)
	}
	return nil
}

func scanPosting(row pgx.Row) (*types.JobPosting, error) {
	var p types.JobPosting
	var id uuid.UUID
	var status, trust string
	err := row.Scan(&id, &p.Title, &p.Company, &p.Description, &p.Location, &p.TenantID,
		&status, &trust, &p.RequiredSkills, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan job posting: %w", err)
	}

	p.ID = id.String()
	p.Status = types.ParsePostingStatus(status)
	p.PosterTrust = types.PosterTrust(trust)
	return &p, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
