package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/placement-engine/internal/types"
	"github.com/spigell/placement-engine/internal/visibility"
)

const visibilityName = "visibility"

type visibilityFilter struct{}

// NewVisibility creates the tenant visibility step. It cannot be disabled.
func NewVisibility() Filter {
	return &visibilityFilter{}
}

func (f *visibilityFilter) Name() string { return visibilityName }

func (f *visibilityFilter) Disable(string) {}

func (f *visibilityFilter) IsEnabled() bool { return true }

func (f *visibilityFilter) Validate(*Config) error { return nil }

func (f *visibilityFilter) Apply(_ context.Context, deps Deps, postings []types.JobPosting) ([]types.JobPosting, Step, error) {
	if deps.Candidate == nil {
		return nil, Step{}, fmt.Errorf("candidate is required")
	}

	initial := len(postings)
	left, hidden := keep(postings, func(p types.JobPosting) bool {
		return visibility.Visible(deps.Candidate, &p)
	})

	if deps.Logger != nil && len(hidden) > 0 {
		deps.Logger.Debug("hiding postings outside candidate visibility",
			zap.Strings("hidden_postings", hidden),
			zap.Int("postings_left", len(left)),
		)
	}

	return left, Step{Initial: initial, Dropped: len(hidden), Left: len(left)}, nil
}

func (f *visibilityFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true}
}
