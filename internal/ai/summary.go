package ai

import (
	"strings"
	"unicode/utf8"

	"github.com/spigell/placement-engine/internal/types"
)

// Bounds applied to every oracle payload so the prompt size stays predictable.
const (
	MaxSummarySkills    = 30
	MaxExperienceRunes  = 1500
	MaxDescriptionRunes = 3000
)

// CandidateSummary is the bounded view of a candidate sent to the oracle.
type CandidateSummary struct {
	Skills      []string `json:"skills"`
	Experience  string   `json:"experience,omitempty"`
	TargetRoles []string `json:"target_roles,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// SubjectSummary is the bounded view of a posting or external job.
type SubjectSummary struct {
	Title          string   `json:"title"`
	Company        string   `json:"company,omitempty"`
	Description    string   `json:"description,omitempty"`
	RequiredSkills []string `json:"required_skills,omitempty"`
}

func SummarizeCandidate(c *types.Candidate) CandidateSummary {
	if c == nil {
		return CandidateSummary{}
	}
	return CandidateSummary{
		Skills:      firstN(trimAll(c.Skills), MaxSummarySkills),
		Experience:  truncateRunes(strings.TrimSpace(c.Experience), MaxExperienceRunes),
		TargetRoles: firstN(trimAll(c.TargetRoles), MaxSummarySkills),
		Location:    strings.TrimSpace(c.Location),
	}
}

func SummarizeSubject(s types.Subject) SubjectSummary {
	if s == nil {
		return SubjectSummary{}
	}
	return SubjectSummary{
		Title:          strings.TrimSpace(s.SubjectTitle()),
		Company:        strings.TrimSpace(s.SubjectCompany()),
		Description:    truncateRunes(strings.TrimSpace(s.SubjectDescription()), MaxDescriptionRunes),
		RequiredSkills: firstN(trimAll(s.SubjectSkills()), MaxSummarySkills),
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstN(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
