package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/spigell/placement-engine/internal/external"
	"github.com/spigell/placement-engine/internal/recommend"
	"github.com/spigell/placement-engine/internal/types"
)

const maxBodyBytes = 1 << 20

type recommendationItem struct {
	Posting types.JobPosting `json:"posting"`
	types.Assessment
}

type recommendationsResponse struct {
	Jobs  []recommendationItem `json:"jobs"`
	Total int                  `json:"total"`
}

type externalJobsRequest struct {
	Query       string `json:"query" validate:"max=200"`
	Location    string `json:"location" validate:"max=200"`
	Limit       int    `json:"limit" validate:"gte=0"`
	AutoSuggest bool   `json:"auto_suggest"`
}

func candidateID(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", &types.ErrValidation{Field: "id", Message: "must be a valid UUID"}
	}
	return id.String(), nil
}

func (s *Server) handleRecomputeCareerScore(w http.ResponseWriter, r *http.Request) {
	id, err := candidateID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.deps.Recommender.Candidate(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}

	score, err := s.deps.Career.Recompute(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, score)
}

func (s *Server) handleGetCareerScore(w http.ResponseWriter, r *http.Request) {
	id, err := candidateID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	score, err := s.deps.Scores.GetCareerScore(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if score == nil {
		s.fail(w, r, &types.ErrNotFound{Kind: "career score", ID: id})
		return
	}
	s.jsonResponse(w, http.StatusOK, score)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	id, err := candidateID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	filters := recommend.Filters{
		Role:     q.Get("role"),
		Location: q.Get("location"),
		Skills:   splitList(q.Get("skills")),
	}

	results, err := s.deps.Recommender.Recommend(r.Context(), id, filters)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := recommendationsResponse{Jobs: make([]recommendationItem, 0, len(results))}
	for _, res := range results {
		resp.Jobs = append(resp.Jobs, recommendationItem{Posting: res.Subject, Assessment: res.Assessment})
	}
	resp.Total = len(resp.Jobs)
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleExternalJobs(w http.ResponseWriter, r *http.Request) {
	id, err := candidateID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req externalJobsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, r, &types.ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.fail(w, r, err)
		return
	}

	candidate, err := s.deps.Recommender.Candidate(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.deps.External.Search(r.Context(), candidate, external.Request{
		Query:       req.Query,
		Location:    req.Location,
		Limit:       types.ClampLimit(req.Limit, s.budget.MaxScored),
		AutoSuggest: req.AutoSuggest,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	id, err := candidateID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	subject := strings.TrimSpace(r.URL.Query().Get("subject"))
	if subject == "" {
		subject = strings.TrimSpace(r.PathValue("subject_id"))
	}
	if subject == "" {
		s.fail(w, r, &types.ErrValidation{Field: "subject_id", Message: "is required"})
		return
	}

	result, err := s.deps.Recommender.ScoreMatch(r.Context(), id, subject)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
