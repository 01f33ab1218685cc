package types

import (
	"strings"
	"time"
)

// Candidate is the profile that drives scoring.
type Candidate struct {
	ID          string   `json:"id"`
	TenantID    string   `json:"tenant_id,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	Experience  string   `json:"experience,omitempty"`
	TargetRoles []string `json:"target_roles,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// TopSkill returns the first non-empty skill of the candidate.
func (c *Candidate) TopSkill() string {
	if c == nil {
		return ""
	}
	for _, skill := range c.Skills {
		if s := strings.TrimSpace(skill); s != "" {
			return s
		}
	}
	return ""
}

// CandidateSignals holds the raw inputs of the career score.
// Nil pointers mean the producing subsystem has no value yet.
type CandidateSignals struct {
	CandidateID        string `json:"candidate_id"`
	ResumeScore        *int   `json:"resume_score,omitempty"`
	SocialCompleteness *int   `json:"social_completeness,omitempty"`
	SkillPathProgress  *int   `json:"skill_path_progress,omitempty"`
	ApplicationCount   int    `json:"application_count"`
}

// ScoreBreakdown is the per-signal contribution input of a career score.
type ScoreBreakdown struct {
	Resume    int `json:"resume"`
	Social    int `json:"social"`
	SkillPath int `json:"skill_path"`
	Activity  int `json:"activity"`
}

// CareerScore is the persisted readiness summary of a candidate.
type CareerScore struct {
	CandidateID    string         `json:"candidate_id"`
	Value          int            `json:"career_score"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	ComputedAt     time.Time      `json:"computed_at"`
	WeightsVersion string         `json:"weights_version"`
}
