package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/placement-engine/internal/external"
	"github.com/spigell/placement-engine/internal/metrics"
	"github.com/spigell/placement-engine/internal/recommend"
	"github.com/spigell/placement-engine/internal/types"
)

const (
	knownID   = "0b7c6b1e-3f7a-4d55-9a55-3c8f3b0b9a01"
	unknownID = "0b7c6b1e-3f7a-4d55-9a55-3c8f3b0b9a02"
)

type fakeCareer struct{ recomputed []string }

func (f *fakeCareer) Recompute(_ context.Context, id string) (*types.CareerScore, error) {
	f.recomputed = append(f.recomputed, id)
	return &types.CareerScore{
		CandidateID:    id,
		Value:          63,
		Breakdown:      types.ScoreBreakdown{Resume: 80, Social: 60, SkillPath: 40, Activity: 50},
		ComputedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		WeightsVersion: "v1",
	}, nil
}

func (f *fakeCareer) GetCareerScore(ctx context.Context, id string) (*types.CareerScore, error) {
	if id != knownID {
		return nil, nil
	}
	return f.Recompute(ctx, id)
}

type fakeRecommender struct {
	filters recommend.Filters
	subject string
	err     error
}

func (f *fakeRecommender) Candidate(_ context.Context, id string) (*types.Candidate, error) {
	if id != knownID {
		return nil, &types.ErrNotFound{Kind: "candidate", ID: id}
	}
	return &types.Candidate{ID: id}, nil
}

func (f *fakeRecommender) Recommend(_ context.Context, id string, filters recommend.Filters) ([]types.MatchResult[types.JobPosting], error) {
	f.filters = filters
	if f.err != nil {
		return nil, f.err
	}
	return []types.MatchResult[types.JobPosting]{{
		Subject:    types.JobPosting{ID: "p1", Title: "Go Developer"},
		Assessment: types.Assessment{MatchScore: 90, MatchedSkills: []string{"Go"}, MissingSkills: []string{}},
	}}, nil
}

func (f *fakeRecommender) ScoreMatch(_ context.Context, _ string, subject string) (*types.MatchResult[types.Subject], error) {
	f.subject = subject
	return &types.MatchResult[types.Subject]{
		Subject:    types.ExternalJob{ExternalURL: subject, Title: "Remote Go"},
		Assessment: types.Assessment{MatchScore: 70, MatchedSkills: []string{}, MissingSkills: []string{}},
	}, nil
}

type fakeExternal struct{ req external.Request }

func (f *fakeExternal) Search(_ context.Context, _ *types.Candidate, req external.Request) (*external.Result, error) {
	f.req = req
	return &external.Result{Jobs: []types.MatchResult[types.ExternalJob]{}, SuggestedRoles: []string{"Go Engineer"}}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fixture struct {
	career      *fakeCareer
	recommender *fakeRecommender
	external    *fakeExternal
	handler     http.Handler
}

func newFixture(t *testing.T, health Pinger) *fixture {
	t.Helper()
	f := &fixture{career: &fakeCareer{}, recommender: &fakeRecommender{}, external: &fakeExternal{}}
	srv := New(Config{}, Deps{
		Career:      f.career,
		Scores:      f.career,
		Recommender: f.recommender,
		External:    f.external,
		Health:      health,
		Metrics:     metrics.New(),
		Budget:      types.DefaultBudget(),
	})
	f.handler = srv.Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestRecomputeCareerScore(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(t, http.MethodPost, "/candidates/"+knownID+"/career-score", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 63.0, body["career_score"])
	assert.Equal(t, "v1", body["weights_version"])
	assert.Equal(t, "2026-01-02T03:04:05Z", body["computed_at"])
	breakdown := body["breakdown"].(map[string]any)
	assert.Equal(t, 40.0, breakdown["skill_path"])
	assert.Equal(t, []string{knownID}, f.career.recomputed)
}

func TestRecomputeCareerScoreErrors(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(t, http.MethodPost, "/candidates/not-a-uuid/career-score", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "id")

	rec, _ = f.do(t, http.MethodPost, "/candidates/"+unknownID+"/career-score", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.career.recomputed)
}

func TestGetCareerScore(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(t, http.MethodGet, "/candidates/"+knownID+"/career-score", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 63.0, body["career_score"])

	rec, _ = f.do(t, http.MethodGet, "/candidates/"+unknownID+"/career-score", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecommendations(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(t, http.MethodGet, "/candidates/"+knownID+"/recommendations?role=go&location=Berlin&skills=go,+sql,,", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, recommend.Filters{Role: "go", Location: "Berlin", Skills: []string{"go", "sql"}}, f.recommender.filters)
	assert.Equal(t, 1.0, body["total"])
	jobs := body["jobs"].([]any)
	require.Len(t, jobs, 1)
	job := jobs[0].(map[string]any)
	assert.Equal(t, 90.0, job["match_score"])
	assert.Equal(t, "p1", job["posting"].(map[string]any)["id"])
	assert.Equal(t, []any{"Go"}, job["matched_skills"])
}

func TestRecommendationsInternalErrorIsHidden(t *testing.T) {
	f := newFixture(t, nil)
	f.recommender.err = fmt.Errorf("list postings: %w", errors.New("password=secret"))

	rec, body := f.do(t, http.MethodGet, "/candidates/"+knownID+"/recommendations", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", body["error"])
}

func TestExternalJobsClampsLimit(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(t, http.MethodPost, "/candidates/"+knownID+"/external-jobs", `{"query":"golang","limit":500,"auto_suggest":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, external.Request{Query: "golang", Limit: types.HardMaxScored, AutoSuggest: true}, f.external.req)
	assert.Equal(t, []any{"Go Engineer"}, body["suggested_roles"])
	assert.NotNil(t, body["jobs"])
}

func TestExternalJobsEmptyBody(t *testing.T) {
	f := newFixture(t, nil)

	rec, _ := f.do(t, http.MethodPost, "/candidates/"+knownID+"/external-jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.HardMaxScored, f.external.req.Limit)
}

func TestExternalJobsValidation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"query":`},
		{"negative limit", `{"limit":-1}`},
		{"long query", `{"query":"` + strings.Repeat("a", 201) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := f.do(t, http.MethodPost, "/candidates/"+knownID+"/external-jobs", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, body["error"], "validation error")
		})
	}
}

func TestMatchSubjectFromPathAndQuery(t *testing.T) {
	f := newFixture(t, nil)
	link := "https://jobs.example.com/1?id=7"

	rec, body := f.do(t, http.MethodGet, "/candidates/"+knownID+"/matches/"+url.PathEscape(link), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, link, f.recommender.subject)
	assert.Equal(t, 70.0, body["match_score"])
	assert.Equal(t, link, body["subject"].(map[string]any)["external_url"])

	rec, _ = f.do(t, http.MethodGet, "/candidates/"+knownID+"/matches?subject="+url.QueryEscape(link), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, link, f.recommender.subject)

	rec, _ = f.do(t, http.MethodGet, "/candidates/"+knownID+"/matches", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, fakePinger{})
	rec, body := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	down := newFixture(t, fakePinger{err: errors.New("db down")})
	rec, _ = down.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", &types.ErrValidation{Field: "id"}, http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("load: %w", &types.ErrNotFound{Kind: "candidate"}), http.StatusNotFound},
		{"configuration", &types.ErrConfiguration{Setting: "x"}, http.StatusServiceUnavailable},
		{"upstream", &types.ErrUpstreamUnavailable{Service: "oracle"}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
