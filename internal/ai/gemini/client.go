package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/spigell/placement-engine/internal/types"
)

const (
	defaultModel           = "gemini-2.5-flash"
	defaultMaxOutputTokens = 512
	oracleService          = "oracle"
)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client for single-shot JSON prompts.
type Generator struct {
	models          contentModels
	modelName       string
	maxOutputTokens int32
	// thinkingBudget is nil when the model decides. Thinking tokens count
	// against maxOutputTokens.
	thinkingBudget *int32
}

// NewGenerator creates a Generator for the Gemini API backend. maxOutputTokens
// caps every response; zero selects the default.
func NewGenerator(ctx context.Context, apiKey, model string, maxOutputTokens int) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &types.ErrConfiguration{Setting: "gemini api key"}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, model, maxOutputTokens), nil
}

func newGenerator(models contentModels, model string, maxOutputTokens int) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxOutputTokens <= 0 {
		maxOutputTokens = defaultMaxOutputTokens
	}

	return &Generator{
		models:          models,
		modelName:       model,
		maxOutputTokens: int32(maxOutputTokens),
		thinkingBudget:  defaultThinkingBudget(model),
	}
}

// defaultThinkingBudget turns thinking off for models that allow it. Pro
// models cannot disable thinking and keep their own budget.
func defaultThinkingBudget(model string) *int32 {
	if strings.Contains(strings.ToLower(model), "-pro") {
		return nil
	}
	off := int32(0)
	return &off
}

// WithThinkingBudget overrides the thinking budget. A negative budget lets
// the model decide.
func (g *Generator) WithThinkingBudget(budget int) *Generator {
	if budget < 0 {
		g.thinkingBudget = nil
		return g
	}
	b := int32(budget)
	g.thinkingBudget = &b
	return g
}

// GenerateJSON sends the prompt asking for a JSON response and returns the
// concatenated text parts. Every failure is reported as *types.ErrUpstreamUnavailable.
func (g *Generator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", upstream(errors.New("gemini generator is not initialized"))
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	temperature := float32(0.1)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  g.maxOutputTokens,
		ResponseMIMEType: "application/json",
	}
	if g.thinkingBudget != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: g.thinkingBudget}
	}

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", upstream(fmt.Errorf("generate content: %w", err))
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", upstream(errors.New("gemini api returned empty response"))
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

func upstream(err error) error {
	return &types.ErrUpstreamUnavailable{Service: oracleService, Err: err}
}
