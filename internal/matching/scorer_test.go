package matching

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/spigell/placement-engine/internal/cache"
	"github.com/spigell/placement-engine/internal/metrics"
	"github.com/spigell/placement-engine/internal/types"
)

type stubOracle struct {
	assessment *types.Assessment
	err        error
	block      bool
	calls      atomic.Int32
}

func (s *stubOracle) Assess(ctx context.Context, _ *types.Candidate, _ types.Subject) (*types.Assessment, error) {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.assessment, s.err
}

var (
	candidate = &types.Candidate{ID: "c-1", Skills: []string{"Go"}}
	posting   = types.JobPosting{ID: "p-1", Title: "Go Developer"}
)

func assertFallback(t *testing.T, got types.Assessment, want int) {
	t.Helper()
	if !got.Fallback || got.MatchScore != want {
		t.Fatalf("expected fallback score %d, got %+v", want, got)
	}
	if got.MatchedSkills == nil || len(got.MatchedSkills) != 0 || got.MissingSkills == nil || len(got.MissingSkills) != 0 {
		t.Fatalf("expected empty skill sets, got %+v", got)
	}
}

func TestScoreFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		oracle *stubOracle
	}{
		{"oracle error", &stubOracle{err: &types.ErrUpstreamUnavailable{Service: "oracle", Err: errors.New("503")}}},
		{"malformed", &stubOracle{err: errors.New("parse gemini response")}},
		{"nil assessment", &stubOracle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScorer(tt.oracle, nil, DefaultConfig(), nil, nil)
			assertFallback(t, s.Score(context.Background(), candidate, posting), DefaultScore)
		})
	}
}

func TestScoreWithoutOracle(t *testing.T) {
	m := metrics.New()
	s := NewScorer(nil, nil, Config{DefaultScore: 42}, nil, m)

	assertFallback(t, s.Score(context.Background(), candidate, posting), 42)
	if got := testutil.ToFloat64(m.OracleCalls.WithLabelValues(operationMatch, metrics.OutcomeFallback)); got != 1 {
		t.Fatalf("expected one fallback counted, got %v", got)
	}
}

func TestScoreTimeout(t *testing.T) {
	oracle := &stubOracle{block: true}
	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	s := NewScorer(oracle, nil, cfg, nil, nil)

	start := time.Now()
	got := s.Score(context.Background(), candidate, posting)
	if time.Since(start) > 5*time.Second {
		t.Fatal("score did not respect the timeout")
	}
	assertFallback(t, got, DefaultScore)
}

func TestScoreBoundsOracleOutput(t *testing.T) {
	oracle := &stubOracle{assessment: &types.Assessment{
		MatchScore:    140,
		MatchedSkills: []string{" Go ", "go", "SQL", "", "Docker"},
		MissingSkills: []string{"k8s", "helm", "terraform"},
	}}
	s := NewScorer(oracle, nil, Config{MaxMatched: 2, MaxMissing: 2}, nil, nil)

	got := s.Score(context.Background(), candidate, posting)
	if got.Fallback || got.MatchScore != 100 {
		t.Fatalf("expected clamped oracle score, got %+v", got)
	}
	if len(got.MatchedSkills) != 2 || got.MatchedSkills[0] != "Go" || got.MatchedSkills[1] != "SQL" {
		t.Fatalf("unexpected matched skills %v", got.MatchedSkills)
	}
	if len(got.MissingSkills) != 2 {
		t.Fatalf("unexpected missing skills %v", got.MissingSkills)
	}
}

func TestScoreCachesSuccessOnly(t *testing.T) {
	c := cache.NewMemory(time.Hour)
	m := metrics.New()
	oracle := &stubOracle{assessment: &types.Assessment{MatchScore: 77}}
	s := NewScorer(oracle, c, DefaultConfig(), nil, m)

	first := s.Score(context.Background(), candidate, posting)
	second := s.Score(context.Background(), candidate, posting)
	if first.MatchScore != 77 || second.MatchScore != 77 {
		t.Fatalf("unexpected scores %d %d", first.MatchScore, second.MatchScore)
	}
	if oracle.calls.Load() != 1 {
		t.Fatalf("expected one oracle call, got %d", oracle.calls.Load())
	}
	if got := testutil.ToFloat64(m.OracleCalls.WithLabelValues(operationMatch, metrics.OutcomeCached)); got != 1 {
		t.Fatalf("expected one cache hit, got %v", got)
	}

	failing := &stubOracle{err: errors.New("down")}
	other := types.JobPosting{ID: "p-2"}
	s = NewScorer(failing, c, DefaultConfig(), nil, nil)
	s.Score(context.Background(), candidate, other)
	s.Score(context.Background(), candidate, other)
	if failing.calls.Load() != 2 {
		t.Fatalf("expected fallbacks to bypass the cache, got %d calls", failing.calls.Load())
	}
}

func TestCacheKeyDistinguishesInputs(t *testing.T) {
	base := CacheKey(candidate, posting)
	if base != CacheKey(&types.Candidate{ID: "other", Skills: []string{"Go"}}, posting) {
		t.Fatal("expected key to depend on the summary, not the candidate id")
	}
	if base == CacheKey(&types.Candidate{Skills: []string{"Rust"}}, posting) {
		t.Fatal("expected key to change with skills")
	}
	if base == CacheKey(candidate, types.ExternalJob{ExternalURL: "p-1"}) {
		t.Fatal("expected key to change with subject")
	}
}

func TestCacheKeyFollowsSubjectContent(t *testing.T) {
	edited := posting
	edited.Title = "Staff Go Developer"
	edited.RequiredSkills = []string{"Go", "Kubernetes"}

	if CacheKey(candidate, posting) == CacheKey(candidate, edited) {
		t.Fatal("expected an edited posting to get a new key")
	}
	if CacheKey(candidate, posting) != CacheKey(candidate, types.JobPosting{ID: "p-1", Title: "Go Developer"}) {
		t.Fatal("expected identical postings to share a key")
	}
}

func TestScoreReassessesEditedPosting(t *testing.T) {
	oracle := &stubOracle{assessment: &types.Assessment{MatchScore: 80}}
	s := NewScorer(oracle, cache.NewMemory(time.Hour), DefaultConfig(), nil, nil)

	s.Score(context.Background(), candidate, posting)
	s.Score(context.Background(), candidate, posting)
	if oracle.calls.Load() != 1 {
		t.Fatalf("expected a cache hit for the unchanged posting, got %d calls", oracle.calls.Load())
	}

	edited := posting
	edited.Description = "now requires on-call rotation"
	s.Score(context.Background(), candidate, edited)
	if oracle.calls.Load() != 2 {
		t.Fatalf("expected the edited posting to be reassessed, got %d calls", oracle.calls.Load())
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{DefaultScore: 120, Timeout: time.Minute}.normalize()
	if cfg.DefaultScore != DefaultScore || cfg.Timeout != MaxTimeout || cfg.MaxMatched != DefaultMaxMatched {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestScoreFuzzAlwaysInRange(t *testing.T) {
	for _, score := range []int{-1000, -1, 0, 50, 100, 101, 1 << 30} {
		s := NewScorer(&stubOracle{assessment: &types.Assessment{MatchScore: score}}, nil, DefaultConfig(), nil, nil)
		got := s.Score(context.Background(), candidate, posting)
		if got.MatchScore < 0 || got.MatchScore > 100 {
			t.Fatalf("score %d escaped range: %d", score, got.MatchScore)
		}
	}
}
