// Package matching scores a candidate against postings and external jobs.
// Score never fails: any oracle problem yields the configured default.
package matching

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/placement-engine/internal/ai"
	"github.com/spigell/placement-engine/internal/cache"
	"github.com/spigell/placement-engine/internal/logger"
	"github.com/spigell/placement-engine/internal/metrics"
	"github.com/spigell/placement-engine/internal/types"
)

const (
	DefaultScore      = 50
	DefaultTimeout    = 10 * time.Second
	MaxTimeout        = 10 * time.Second
	DefaultMaxMatched = 10
	DefaultMaxMissing = 10

	operationMatch = "match"
)

type Config struct {
	DefaultScore int           `mapstructure:"default-score"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxMatched   int           `mapstructure:"max-matched"`
	MaxMissing   int           `mapstructure:"max-missing"`
}

func DefaultConfig() Config {
	return Config{
		DefaultScore: DefaultScore,
		Timeout:      DefaultTimeout,
		MaxMatched:   DefaultMaxMatched,
		MaxMissing:   DefaultMaxMissing,
	}
}

func (c Config) normalize() Config {
	if c.DefaultScore < 0 || c.DefaultScore > 100 {
		c.DefaultScore = DefaultScore
	}
	if c.Timeout <= 0 || c.Timeout > MaxTimeout {
		c.Timeout = MaxTimeout
	}
	if c.MaxMatched <= 0 {
		c.MaxMatched = DefaultMaxMatched
	}
	if c.MaxMissing <= 0 {
		c.MaxMissing = DefaultMaxMissing
	}
	return c
}

type Scorer struct {
	oracle  ai.Matcher
	cache   cache.Cache
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewScorer builds a Scorer. oracle and c may be nil.
func NewScorer(oracle ai.Matcher, c cache.Cache, cfg Config, log *zap.Logger, m *metrics.Metrics) *Scorer {
	return &Scorer{
		oracle:  oracle,
		cache:   c,
		cfg:     cfg.normalize(),
		logger:  logger.WithFields(log, zap.String("component", "match_scorer")),
		metrics: m,
	}
}

// Score returns a bounded assessment of candidate against subject.
func (s *Scorer) Score(ctx context.Context, candidate *types.Candidate, subject types.Subject) types.Assessment {
	if s.oracle == nil || candidate == nil || subject == nil {
		s.metrics.Oracle(operationMatch, metrics.OutcomeFallback)
		return s.fallback()
	}

	key := CacheKey(candidate, subject)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			s.metrics.Oracle(operationMatch, metrics.OutcomeCached)
			return s.bound(*cached)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	assessment, err := s.oracle.Assess(callCtx, candidate, subject)
	if err != nil || assessment == nil {
		s.logger.Warn("oracle unavailable, using default score",
			logger.Candidate(candidate.ID),
			zap.String("subject", subject.SubjectKey()),
			zap.Error(err),
		)
		s.metrics.Oracle(operationMatch, metrics.OutcomeFallback)
		return s.fallback()
	}

	result := s.bound(*assessment)
	s.metrics.Oracle(operationMatch, metrics.OutcomeSuccess)

	if s.cache != nil {
		s.cache.Set(ctx, key, &result)
	}

	return result
}

func (s *Scorer) fallback() types.Assessment {
	return types.Assessment{
		MatchScore:    s.cfg.DefaultScore,
		MatchedSkills: []string{},
		MissingSkills: []string{},
		Fallback:      true,
	}
}

func (s *Scorer) bound(a types.Assessment) types.Assessment {
	return types.Assessment{
		MatchScore:    Clamp(a.MatchScore),
		MatchedSkills: NormalizeSkills(a.MatchedSkills, s.cfg.MaxMatched),
		MissingSkills: NormalizeSkills(a.MissingSkills, s.cfg.MaxMissing),
	}
}

func Clamp(score int) int {
	return max(0, min(100, score))
}

// NormalizeSkills trims, collapses whitespace, drops case-insensitive
// duplicates and keeps at most limit entries. The result is never nil.
func NormalizeSkills(skills []string, limit int) []string {
	out := make([]string, 0, min(len(skills), max(limit, 0)))
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		if len(out) >= limit {
			break
		}
		skill = strings.Join(strings.Fields(skill), " ")
		if skill == "" {
			continue
		}
		fold := strings.ToLower(skill)
		if _, ok := seen[fold]; ok {
			continue
		}
		seen[fold] = struct{}{}
		out = append(out, skill)
	}
	return out
}

// CacheKey identifies an assessment by what the oracle was shown.
func CacheKey(candidate *types.Candidate, subject types.Subject) string {
	summary, _ := json.Marshal(ai.SummarizeCandidate(candidate))
	content, _ := json.Marshal(ai.SummarizeSubject(subject))
	h := sha256.New()
	h.Write(summary)
	h.Write([]byte{0})
	h.Write([]byte(subject.SubjectKey()))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
