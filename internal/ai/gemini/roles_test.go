package gemini

import (
	"context"
	"strings"
	"testing"
)

func TestSuggestRoles(t *testing.T) {
	gen := &stubGenerator{response: `{"roles": ["Backend Developer", " backend developer ", "", "Go Engineer", "SRE"]}`}
	s := NewRoleSuggester(gen, nil)

	roles, err := s.SuggestRoles(context.Background(), testCandidate(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 2 || roles[0] != "Backend Developer" || roles[1] != "Go Engineer" {
		t.Fatalf("unexpected roles %v", roles)
	}
	if !strings.Contains(gen.prompts[0], "at most 2") {
		t.Fatalf("expected limit in prompt:\n%s", gen.prompts[0])
	}
}

func TestSuggestRolesZeroLimitSkipsCall(t *testing.T) {
	gen := &stubGenerator{response: `{"roles": ["A"]}`}
	roles, err := NewRoleSuggester(gen, nil).SuggestRoles(context.Background(), testCandidate(), 0)
	if err != nil || roles != nil {
		t.Fatalf("expected no roles and no error, got %v %v", roles, err)
	}
	if len(gen.prompts) != 0 {
		t.Fatalf("expected no oracle call, got %d", len(gen.prompts))
	}
}

func TestSuggestRolesMalformed(t *testing.T) {
	gen := &stubGenerator{response: "Backend Developer"}
	if _, err := NewRoleSuggester(gen, nil).SuggestRoles(context.Background(), testCandidate(), 3); err == nil {
		t.Fatal("expected error for non json response")
	}
}
