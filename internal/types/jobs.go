package types

import (
	"strings"
	"time"
)

type PostingStatus string

const (
	StatusPending  PostingStatus = "pending"
	StatusApproved PostingStatus = "approved"
	StatusActive   PostingStatus = "active"
	StatusRejected PostingStatus = "rejected"
	StatusClosed   PostingStatus = "closed"
)

// ParsePostingStatus normalizes a stored status value. Unknown values are
// returned as is and are never visible.
func ParsePostingStatus(s string) PostingStatus {
	return PostingStatus(strings.ToLower(strings.TrimSpace(s)))
}

type PosterTrust string

const (
	TrustVerified   PosterTrust = "verified"
	TrustUnverified PosterTrust = "unverified"
)

// Subject is anything a candidate can be matched against.
type Subject interface {
	SubjectKey() string
	SubjectTitle() string
	SubjectCompany() string
	SubjectDescription() string
	SubjectSkills() []string
}

// JobPosting is an internal listing governed by the tenant approval workflow.
type JobPosting struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Company        string        `json:"company"`
	Description    string        `json:"description"`
	Location       string        `json:"location,omitempty"`
	TenantID       string        `json:"tenant_id,omitempty"`
	Status         PostingStatus `json:"status"`
	PosterTrust    PosterTrust   `json:"poster_trust"`
	RequiredSkills []string      `json:"required_skills,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (p JobPosting) SubjectKey() string         { return "posting:" + p.ID }
func (p JobPosting) SubjectTitle() string       { return p.Title }
func (p JobPosting) SubjectCompany() string     { return p.Company }
func (p JobPosting) SubjectDescription() string { return p.Description }
func (p JobPosting) SubjectSkills() []string    { return p.RequiredSkills }

// ExternalJob is a listing returned by the job-search provider.
// Its identity is ExternalURL.
type ExternalJob struct {
	ExternalURL string     `json:"external_url"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Source      string     `json:"source"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
}

func (j ExternalJob) SubjectKey() string         { return "external:" + j.ExternalURL }
func (j ExternalJob) SubjectTitle() string       { return j.Title }
func (j ExternalJob) SubjectCompany() string     { return j.Company }
func (j ExternalJob) SubjectDescription() string { return j.Description }
func (j ExternalJob) SubjectSkills() []string    { return nil }

// Assessment is the outcome of scoring one subject.
type Assessment struct {
	MatchScore    int      `json:"match_score"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
	// Fallback is set when the oracle could not be used.
	Fallback bool `json:"fallback,omitempty"`
}

// MatchResult pairs a subject with its assessment. It is never the source of truth.
type MatchResult[S Subject] struct {
	Subject S `json:"subject"`
	Assessment
}
