package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/placement-engine/internal/ai"
	"github.com/spigell/placement-engine/internal/logger"
	"github.com/spigell/placement-engine/internal/types"
)

//go:embed roles_prompt.md
var rolesPromptTemplate string

type RoleSuggester struct {
	generator jsonGenerator
	logger    *zap.Logger
}

var _ ai.RoleSuggester = (*RoleSuggester)(nil)

func NewRoleSuggester(generator jsonGenerator, log *zap.Logger) *RoleSuggester {
	return &RoleSuggester{generator: generator, logger: logger.WithFields(log)}
}

// SuggestRoles returns at most limit distinct job titles.
func (r *RoleSuggester) SuggestRoles(ctx context.Context, candidate *types.Candidate, limit int) ([]string, error) {
	if candidate == nil {
		return nil, fmt.Errorf("candidate is required")
	}
	if limit <= 0 {
		return nil, nil
	}

	candidateJSON, err := json.MarshalIndent(ai.SummarizeCandidate(candidate), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidate summary: %w", err)
	}

	template := rolesPromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Candidate:\n{{CANDIDATE_JSON}}\n\nSuggest up to {{LIMIT}} job titles as {\"roles\": []}."
	}
	prompt := strings.NewReplacer(
		"{{CANDIDATE_JSON}}", string(candidateJSON),
		"{{LIMIT}}", strconv.Itoa(limit),
	).Replace(template)

	raw, err := r.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	roles := dedupeFold(coerceStrings(data["roles"]), limit)
	r.logger.Debug("gemini suggested roles", logger.Candidate(candidate.ID), zap.Strings("roles", roles))

	return roles, nil
}

func dedupeFold(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
