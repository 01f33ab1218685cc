// Package recommend builds the internal job feed of a candidate and scores
// single subjects on demand.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/placement-engine/internal/external"
	"github.com/spigell/placement-engine/internal/filtering"
	"github.com/spigell/placement-engine/internal/logger"
	"github.com/spigell/placement-engine/internal/types"
	"github.com/spigell/placement-engine/internal/visibility"
)

type Store interface {
	GetCandidate(ctx context.Context, candidateID string) (*types.Candidate, error)
	ListCandidatePostings(ctx context.Context, tenantID string, limit int) ([]types.JobPosting, error)
	GetJobPosting(ctx context.Context, postingID string) (*types.JobPosting, error)
	GetExternalJob(ctx context.Context, candidateID, externalURL string) (*types.MatchResult[types.ExternalJob], error)
}

type Scorer interface {
	Score(ctx context.Context, candidate *types.Candidate, subject types.Subject) types.Assessment
}

// Filters narrow the feed. Empty fields are ignored.
type Filters struct {
	Role     string   `json:"role,omitempty"`
	Location string   `json:"location,omitempty"`
	Skills   []string `json:"skills,omitempty"`
	// Skip names request filter steps to turn off. The visibility step
	// cannot be skipped.
	Skip []string `json:"skip,omitempty"`
}

type Orchestrator struct {
	store  Store
	scorer Scorer
	budget types.Budget
	logger *zap.Logger
}

func NewOrchestrator(store Store, scorer Scorer, budget types.Budget, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:  store,
		scorer: scorer,
		budget: budget.Normalize(),
		logger: logger.WithFields(log, zap.String("component", "recommendations")),
	}
}

// Candidate loads a profile, mapping a missing row to *types.ErrNotFound.
func (o *Orchestrator) Candidate(ctx context.Context, candidateID string) (*types.Candidate, error) {
	if strings.TrimSpace(candidateID) == "" {
		return nil, &types.ErrValidation{Field: "candidate_id", Message: "is required"}
	}

	candidate, err := o.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("load candidate: %w", err)
	}
	if candidate == nil {
		return nil, &types.ErrNotFound{Kind: "candidate", ID: candidateID}
	}
	return candidate, nil
}

// Recommend returns at most Budget.MaxFeed visible postings ranked by match
// score, ties broken by newest first.
func (o *Orchestrator) Recommend(ctx context.Context, candidateID string, filters Filters) ([]types.MatchResult[types.JobPosting], error) {
	candidate, err := o.Candidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	log := o.logger.With(logger.Candidate(candidate.ID))

	catalog, err := o.store.ListCandidatePostings(ctx, candidate.TenantID, 0)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}

	steps := filtering.Default()
	for _, name := range filters.Skip {
		filtering.DisableByName(steps, strings.TrimSpace(name), "skipped by caller")
	}
	postings, err := filtering.Run(ctx, &filtering.Config{
		Role:     filters.Role,
		Location: filters.Location,
		Skills:   filters.Skills,
	}, filtering.Deps{Logger: log, Candidate: candidate}, steps, catalog)
	if err != nil {
		return nil, fmt.Errorf("filter postings: %w", err)
	}
	for _, status := range filtering.Describe(steps) {
		log.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	sort.SliceStable(postings, func(i, j int) bool {
		return postings[i].CreatedAt.After(postings[j].CreatedAt)
	})
	if len(postings) > o.budget.MaxCatalogScored {
		postings = postings[:o.budget.MaxCatalogScored]
	}

	results := make([]types.MatchResult[types.JobPosting], len(postings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.budget.Concurrency)
	for i, posting := range postings {
		g.Go(func() error {
			results[i] = types.MatchResult[types.JobPosting]{
				Subject:    posting,
				Assessment: o.scorer.Score(gctx, candidate, posting),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score postings: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("score postings: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].MatchScore != results[j].MatchScore {
			return results[i].MatchScore > results[j].MatchScore
		}
		return results[i].Subject.CreatedAt.After(results[j].Subject.CreatedAt)
	})
	if len(results) > o.budget.MaxFeed {
		results = results[:o.budget.MaxFeed]
	}

	log.Info("recommendations built",
		zap.Int("catalog", len(catalog)),
		zap.Int("scored", len(postings)),
		zap.Int("returned", len(results)),
	)

	return results, nil
}

// ScoreMatch scores one subject. subjectID is a posting UUID, which must be
// visible to the candidate, or the URL of an external job cached for the
// candidate. Cached external assessments are reused unless they were fallbacks.
func (o *Orchestrator) ScoreMatch(ctx context.Context, candidateID, subjectID string) (*types.MatchResult[types.Subject], error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, &types.ErrValidation{Field: "subject_id", Message: "is required"}
	}

	candidate, err := o.Candidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	if _, err := uuid.Parse(subjectID); err == nil {
		return o.scorePosting(ctx, candidate, subjectID)
	}
	return o.scoreExternal(ctx, candidate, subjectID)
}

func (o *Orchestrator) scorePosting(ctx context.Context, candidate *types.Candidate, postingID string) (*types.MatchResult[types.Subject], error) {
	posting, err := o.store.GetJobPosting(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("load posting: %w", err)
	}
	// Invisible postings are reported as missing so their existence does not leak.
	if posting == nil || !visibility.Visible(candidate, posting) {
		return nil, &types.ErrNotFound{Kind: "posting", ID: postingID}
	}

	return &types.MatchResult[types.Subject]{
		Subject:    *posting,
		Assessment: o.scorer.Score(ctx, candidate, *posting),
	}, nil
}

func (o *Orchestrator) scoreExternal(ctx context.Context, candidate *types.Candidate, rawURL string) (*types.MatchResult[types.Subject], error) {
	canonical, ok := external.CanonicalURL(rawURL)
	if !ok {
		return nil, &types.ErrValidation{Field: "subject_id", Message: "must be a posting id or an external url"}
	}

	cached, err := o.store.GetExternalJob(ctx, candidate.ID, canonical)
	if err != nil {
		return nil, fmt.Errorf("load external job: %w", err)
	}
	if cached == nil {
		return nil, &types.ErrNotFound{Kind: "external job", ID: canonical}
	}

	assessment := cached.Assessment
	if assessment.Fallback {
		assessment = o.scorer.Score(ctx, candidate, cached.Subject)
	}

	return &types.MatchResult[types.Subject]{Subject: cached.Subject, Assessment: assessment}, nil
}
