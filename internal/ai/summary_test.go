package ai

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/spigell/placement-engine/internal/types"
)

func TestSummarizeCandidateBounds(t *testing.T) {
	skills := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		skills = append(skills, fmt.Sprintf("skill-%d", i))
	}
	skills = append([]string{"  ", ""}, skills...)

	summary := SummarizeCandidate(&types.Candidate{
		Skills:     skills,
		Experience: strings.Repeat("ж", MaxExperienceRunes+100),
	})

	if len(summary.Skills) != MaxSummarySkills {
		t.Fatalf("expected %d skills, got %d", MaxSummarySkills, len(summary.Skills))
	}
	if summary.Skills[0] != "skill-0" {
		t.Fatalf("expected blank skills to be dropped, got %q", summary.Skills[0])
	}
	if n := utf8.RuneCountInString(summary.Experience); n != MaxExperienceRunes {
		t.Fatalf("expected experience truncated to %d runes, got %d", MaxExperienceRunes, n)
	}
}

func TestSummarizeSubjectBounds(t *testing.T) {
	summary := SummarizeSubject(types.JobPosting{
		Title:          " Go Developer ",
		Description:    strings.Repeat("a", MaxDescriptionRunes+1),
		RequiredSkills: []string{"Go", " SQL "},
	})

	if summary.Title != "Go Developer" {
		t.Fatalf("unexpected title %q", summary.Title)
	}
	if len(summary.Description) != MaxDescriptionRunes {
		t.Fatalf("expected description truncated, got %d", len(summary.Description))
	}
	if len(summary.RequiredSkills) != 2 || summary.RequiredSkills[1] != "SQL" {
		t.Fatalf("unexpected skills %v", summary.RequiredSkills)
	}
}

func TestSummarizeNil(t *testing.T) {
	if got := SummarizeCandidate(nil); len(got.Skills) != 0 {
		t.Fatalf("expected empty summary, got %+v", got)
	}
	if got := SummarizeSubject(nil); got.Title != "" {
		t.Fatalf("expected empty summary, got %+v", got)
	}
}
