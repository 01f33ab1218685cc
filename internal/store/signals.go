package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spigell/placement-engine/internal/types"
)

// ResumeScore returns the latest resume score, or nil when none was recorded.
func (db *DB) ResumeScore(ctx context.Context, candidateID string) (*int, error) {
	return db.optionalInt(ctx, "resume score", `SELECT score FROM resume_scores WHERE candidate_id = $1`, candidateID)
}

func (db *DB) SocialCompleteness(ctx context.Context, candidateID string) (*int, error) {
	return db.optionalInt(ctx, "social completeness", `SELECT completeness FROM social_profiles WHERE candidate_id = $1`, candidateID)
}

func (db *DB) SkillPathProgress(ctx context.Context, candidateID string) (*int, error) {
	return db.optionalInt(ctx, "skill path progress", `SELECT progress FROM skill_path_progress WHERE candidate_id = $1`, candidateID)
}

func (db *DB) ApplicationCount(ctx context.Context, candidateID string) (int, error) {
	id, err := parseID("candidate_id", candidateID)
	if err != nil {
		return 0, err
	}

	var count int
	if err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM applications WHERE candidate_id = $1`, id,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return count, nil
}

func (db *DB) optionalInt(ctx context.Context, what, query, candidateID string) (*int, error) {
	id, err := parseID("candidate_id", candidateID)
	if err != nil {
		return nil, err
	}

	var value int
	err = db.pool.QueryRow(ctx, query, id).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return &value, nil
}

// GetCandidate returns the candidate profile, or nil when it does not exist.
func (db *DB) GetCandidate(ctx context.Context, candidateID string) (*types.Candidate, error) {
	id, err := parseID("candidate_id", candidateID)
	if err != nil {
		return nil, err
	}

	var c types.Candidate
	var scanned uuid.UUID
	err = db.pool.QueryRow(ctx,
		`SELECT id, tenant_id, skills, experience, target_roles, location
		 FROM candidates WHERE id = $1`,
		id,
	).Scan(&scanned, &c.TenantID, &c.Skills, &c.Experience, &c.TargetRoles, &c.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	c.ID = scanned.String()
	return &c, nil
}
