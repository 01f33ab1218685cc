package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/placement-engine/internal/ai"
	"github.com/spigell/placement-engine/internal/logger"
	"github.com/spigell/placement-engine/internal/types"
)

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

//go:embed match_prompt.md
var matchPromptTemplate string

const (
	defaultMaxLogLength = 200
	defaultMaxSkills    = 10
)

var errMissingScore = errors.New("oracle response has no numeric match_score")

type MatcherConfig struct {
	MaxMatched   int
	MaxMissing   int
	MaxLogLength int
}

type Matcher struct {
	generator  jsonGenerator
	logger     *zap.Logger
	maxLogLen  int
	maxMatched int
	maxMissing int
}

var _ ai.Matcher = (*Matcher)(nil)

func NewMatcher(generator jsonGenerator, log *zap.Logger, cfg MatcherConfig) *Matcher {
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	if cfg.MaxMatched <= 0 {
		cfg.MaxMatched = defaultMaxSkills
	}
	if cfg.MaxMissing <= 0 {
		cfg.MaxMissing = defaultMaxSkills
	}

	return &Matcher{
		generator:  generator,
		logger:     logger.WithFields(log),
		maxLogLen:  cfg.MaxLogLength,
		maxMatched: cfg.MaxMatched,
		maxMissing: cfg.MaxMissing,
	}
}

// Assess asks the model for a match assessment. The caller owns timeouts and fallback.
func (m *Matcher) Assess(ctx context.Context, candidate *types.Candidate, subject types.Subject) (*types.Assessment, error) {
	if candidate == nil {
		return nil, fmt.Errorf("candidate is required")
	}
	if subject == nil {
		return nil, fmt.Errorf("subject is required")
	}

	candidateJSON, err := json.MarshalIndent(ai.SummarizeCandidate(candidate), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidate summary: %w", err)
	}
	subjectJSON, err := json.MarshalIndent(ai.SummarizeSubject(subject), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal subject summary: %w", err)
	}

	prompt := buildMatchPrompt(string(candidateJSON), string(subjectJSON), m.maxMatched, m.maxMissing)

	m.logger.Debug("gemini match request",
		logger.Candidate(candidate.ID),
		zap.String("subject", subject.SubjectKey()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, err := m.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("gemini match response",
		logger.Candidate(candidate.ID),
		zap.String("subject", subject.SubjectKey()),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, m.maxLogLen)),
	)

	return parseMatchResponse(raw)
}

func buildMatchPrompt(candidateJSON, subjectJSON string, maxMatched, maxMissing int) string {
	template := matchPromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Candidate:\n{{CANDIDATE_JSON}}\n\nJob:\n{{SUBJECT_JSON}}\n\nJSON Response:"
	}
	return strings.NewReplacer(
		"{{CANDIDATE_JSON}}", candidateJSON,
		"{{SUBJECT_JSON}}", subjectJSON,
		"{{MAX_MATCHED}}", strconv.Itoa(maxMatched),
		"{{MAX_MISSING}}", strconv.Itoa(maxMissing),
	).Replace(template)
}

func parseMatchResponse(raw string) (*types.Assessment, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	score := coerceFloat(data["match_score"])
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, errMissingScore
	}

	return &types.Assessment{
		MatchScore:    int(math.Round(math.Max(0, math.Min(100, score)))),
		MatchedSkills: coerceStrings(data["matched_skills"]),
		MissingSkills: coerceStrings(data["missing_skills"]),
	}, nil
}

func decodeObject(raw string) (map[string]any, error) {
	object, ok := ai.ExtractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("parse gemini response: no json object in %q", logger.TruncateForLog(raw, defaultMaxLogLength))
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(object), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	return data, nil
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// coerceStrings accepts a JSON array or a comma separated string.
func coerceStrings(v any) []string {
	var items []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != "" {
				items = append(items, s)
			}
		}
	case string:
		for _, part := range strings.Split(val, ",") {
			if s := strings.TrimSpace(part); s != "" {
				items = append(items, s)
			}
		}
	}
	return items
}
