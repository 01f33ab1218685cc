// Package ai declares the oracle contracts used for match scoring and role
// suggestion, independent of the model provider.
package ai

import (
	"context"

	"github.com/spigell/placement-engine/internal/types"
)

// Matcher asks the oracle how well a candidate fits a subject.
type Matcher interface {
	Assess(ctx context.Context, candidate *types.Candidate, subject types.Subject) (*types.Assessment, error)
}

// RoleSuggester asks the oracle for job titles worth searching for.
type RoleSuggester interface {
	SuggestRoles(ctx context.Context, candidate *types.Candidate, limit int) ([]string, error)
}
