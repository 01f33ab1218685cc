// Package external searches the job-search provider on behalf of a candidate
// and ranks the merged results.
package external

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/placement-engine/internal/ai"
	"github.com/spigell/placement-engine/internal/jobsearch"
	"github.com/spigell/placement-engine/internal/logger"
	"github.com/spigell/placement-engine/internal/metrics"
	"github.com/spigell/placement-engine/internal/types"
)

const (
	suggestTimeout   = 10 * time.Second
	operationSuggest = "suggest_roles"
	defaultRole      = "Software Developer"
	developerSuffix  = " Developer"
)

type Provider interface {
	Search(ctx context.Context, q jobsearch.Query) ([]types.ExternalJob, error)
}

type Scorer interface {
	Score(ctx context.Context, candidate *types.Candidate, subject types.Subject) types.Assessment
}

type Writer interface {
	UpsertExternalJobs(ctx context.Context, candidateID string, results []types.MatchResult[types.ExternalJob]) error
}

type Request struct {
	Query       string `json:"query,omitempty"`
	Location    string `json:"location,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	AutoSuggest bool   `json:"auto_suggest"`
}

type Result struct {
	Jobs           []types.MatchResult[types.ExternalJob] `json:"jobs"`
	Total          int                                    `json:"total"`
	SuggestedRoles []string                               `json:"suggested_roles"`
}

type Aggregator struct {
	provider Provider
	scorer   Scorer
	roles    ai.RoleSuggester
	writer   Writer
	budget   types.Budget
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewAggregator wires the search pipeline. roles and writer may be nil.
func NewAggregator(provider Provider, scorer Scorer, roles ai.RoleSuggester, writer Writer, budget types.Budget, log *zap.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		provider: provider,
		scorer:   scorer,
		roles:    roles,
		writer:   writer,
		budget:   budget.Normalize(),
		logger:   logger.WithFields(log, zap.String("component", "external_search")),
		metrics:  m,
	}
}

// Search runs at most Budget.MaxQueries provider queries, scores at most
// Budget.MaxScored unique results and returns the best req.Limit of them.
// Provider and oracle failures degrade to fewer or default-scored results.
func (a *Aggregator) Search(ctx context.Context, candidate *types.Candidate, req Request) (*Result, error) {
	if candidate == nil || strings.TrimSpace(candidate.ID) == "" {
		return nil, &types.ErrValidation{Field: "candidate_id", Message: "is required"}
	}

	log := a.logger.With(logger.Candidate(candidate.ID))
	limit := types.ClampLimit(req.Limit, a.budget.MaxScored)

	queries, suggested := a.queries(ctx, candidate, req, log)
	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = strings.TrimSpace(candidate.Location)
	}

	batches := a.fetch(ctx, queries, location, log)

	jobs, dropped := mergeUnique(batches)
	a.metrics.Deduplicated(dropped)
	if len(jobs) > a.budget.MaxScored {
		jobs = jobs[:a.budget.MaxScored]
	}

	results, err := a.score(ctx, candidate, jobs)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})
	if len(results) > limit {
		results = results[:limit]
	}

	log.Info("external search finished",
		zap.Strings("queries", queries),
		zap.Int("unique", len(jobs)),
		zap.Int("duplicates", dropped),
		zap.Int("returned", len(results)),
	)

	a.persist(ctx, candidate.ID, results, log)

	if suggested == nil {
		suggested = []string{}
	}
	return &Result{Jobs: results, Total: len(results), SuggestedRoles: suggested}, nil
}

func (a *Aggregator) queries(ctx context.Context, candidate *types.Candidate, req Request, log *zap.Logger) ([]string, []string) {
	if q := strings.TrimSpace(req.Query); q != "" {
		return []string{q}, nil
	}

	var roles, suggested []string
	if req.AutoSuggest && a.roles != nil {
		suggestCtx, cancel := context.WithTimeout(ctx, suggestTimeout)
		out, err := a.roles.SuggestRoles(suggestCtx, candidate, a.budget.MaxQueries)
		cancel()
		if err != nil {
			log.Warn("role suggestion failed, using profile roles", zap.Error(err))
			a.metrics.Oracle(operationSuggest, metrics.OutcomeFallback)
			roles = candidate.TargetRoles
		} else {
			a.metrics.Oracle(operationSuggest, metrics.OutcomeSuccess)
			suggested = uniqueTrimmed(out, a.budget.MaxQueries)
			roles = suggested
		}
	} else {
		roles = candidate.TargetRoles
	}

	queries := uniqueTrimmed(roles, a.budget.MaxQueries)
	if len(queries) == 0 {
		queries = []string{FallbackRole(candidate)}
	}
	return queries, suggested
}

// FallbackRole derives a search query from the candidate's top skill.
func FallbackRole(candidate *types.Candidate) string {
	if skill := candidate.TopSkill(); skill != "" {
		return skill + developerSuffix
	}
	return defaultRole
}

func (a *Aggregator) fetch(ctx context.Context, queries []string, location string, log *zap.Logger) [][]types.ExternalJob {
	batches := make([][]types.ExternalJob, len(queries))
	if a.provider == nil {
		a.metrics.Provider(metrics.OutcomeUnconfigured)
		return batches
	}

	var g errgroup.Group
	g.SetLimit(a.budget.Concurrency)
	for i, q := range queries {
		g.Go(func() error {
			jobs, err := a.provider.Search(ctx, jobsearch.Query{Text: q, Location: location, Limit: a.budget.MaxResultsPerQuery})
			switch {
			case errors.Is(err, jobsearch.ErrNotConfigured):
				a.metrics.Provider(metrics.OutcomeUnconfigured)
				log.Debug("provider not configured", zap.String("query", q))
			case err != nil:
				a.metrics.Provider(metrics.OutcomeError)
				log.Warn("provider query failed", zap.String("query", q), zap.Error(err))
			default:
				a.metrics.Provider(metrics.OutcomeSuccess)
				if len(jobs) > a.budget.MaxResultsPerQuery {
					jobs = jobs[:a.budget.MaxResultsPerQuery]
				}
				batches[i] = jobs
			}
			return nil
		})
	}
	_ = g.Wait()

	return batches
}

// mergeUnique flattens batches in query order then provider rank, keeping the
// first job per canonical URL. It returns the number of dropped duplicates.
func mergeUnique(batches [][]types.ExternalJob) ([]types.ExternalJob, int) {
	seen := make(map[string]struct{})
	var out []types.ExternalJob
	dropped := 0
	for _, batch := range batches {
		for _, job := range batch {
			key, ok := CanonicalURL(job.ExternalURL)
			if !ok {
				continue
			}
			if _, dup := seen[key]; dup {
				dropped++
				continue
			}
			seen[key] = struct{}{}
			job.ExternalURL = key
			out = append(out, job)
		}
	}
	return out, dropped
}

func (a *Aggregator) score(ctx context.Context, candidate *types.Candidate, jobs []types.ExternalJob) ([]types.MatchResult[types.ExternalJob], error) {
	results := make([]types.MatchResult[types.ExternalJob], len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.budget.Concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = types.MatchResult[types.ExternalJob]{
				Subject:    job,
				Assessment: a.scorer.Score(gctx, candidate, job),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score external jobs: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("score external jobs: %w", err)
	}

	return results, nil
}

func (a *Aggregator) persist(ctx context.Context, candidateID string, results []types.MatchResult[types.ExternalJob], log *zap.Logger) {
	if a.writer == nil || len(results) == 0 {
		return
	}
	if err := a.writer.UpsertExternalJobs(ctx, candidateID, results); err != nil {
		a.metrics.Persisted(metrics.OutcomeError)
		log.Warn("persist external jobs failed", zap.Error(err))
		return
	}
	a.metrics.Persisted(metrics.OutcomeSuccess)
}

func uniqueTrimmed(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, min(len(values), limit))
	for _, v := range values {
		if len(out) >= limit {
			break
		}
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
