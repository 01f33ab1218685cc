package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spigell/placement-engine/internal/types"
)

// UpsertCareerScore stores the score unless a newer one is already persisted.
func (db *DB) UpsertCareerScore(ctx context.Context, score *types.CareerScore) error {
	id, err := parseID("candidate_id", score.CandidateID)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO career_scores (candidate_id, value, resume, social, skill_path, activity, weights_version, computed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (candidate_id) DO UPDATE SET
		     value = EXCLUDED.value,
		     resume = EXCLUDED.resume,
		     social = EXCLUDED.social,
		     skill_path = EXCLUDED.skill_path,
		     activity = EXCLUDED.activity,
		     weights_version = EXCLUDED.weights_version,
		     computed_at = EXCLUDED.computed_at
		 WHERE career_scores.computed_at < EXCLUDED.computed_at`,
		id, score.Value, score.Breakdown.Resume, score.Breakdown.Social,
		score.Breakdown.SkillPath, score.Breakdown.Activity, score.WeightsVersion, score.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert career score: %w", err)
	}
	return nil
}

// GetCareerScore returns the persisted score, or nil when none was computed.
func (db *DB) GetCareerScore(ctx context.Context, candidateID string) (*types.CareerScore, error) {
	id, err := parseID("candidate_id", candidateID)
	if err != nil {
		return nil, err
	}

	s := types.CareerScore{CandidateID: id.String()}
	err = db.pool.QueryRow(ctx,
		`SELECT value, resume, social, skill_path, activity, weights_version, computed_at
		 FROM career_scores WHERE candidate_id = $1`,
		id,
	).Scan(&s.Value, &s.Breakdown.Resume, &s.Breakdown.Social, &s.Breakdown.SkillPath,
		&s.Breakdown.Activity, &s.WeightsVersion, &s.ComputedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get career score: %w", err)
	}
	return &s, nil
}
