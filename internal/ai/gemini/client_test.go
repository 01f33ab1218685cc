package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/spigell/placement-engine/internal/types"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	config *genai.GenerateContentConfig
	calls  int
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.config = config
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGenerateJSONJoinsParts(t *testing.T) {
	models := &fakeModels{resp: textResponse(`{"match_score":`, " ", `70}`)}
	g := newGenerator(models, "", 0)

	out, err := g.GenerateJSON(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "{\"match_score\":\n70}" {
		t.Fatalf("unexpected output %q", out)
	}
	if models.model != defaultModel {
		t.Fatalf("expected default model, got %q", models.model)
	}
	if models.config == nil || models.config.MaxOutputTokens != defaultMaxOutputTokens {
		t.Fatalf("expected output token cap to be set, got %+v", models.config)
	}
	if models.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json mime type, got %q", models.config.ResponseMIMEType)
	}
}

func TestGenerateJSONThinkingBudget(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		override *int
		want     *int32
	}{
		{"flash disables thinking", "gemini-2.5-flash", nil, ptr(int32(0))},
		{"pro keeps model budget", "gemini-2.5-pro", nil, nil},
		{"configured budget", "gemini-2.5-flash", ptr(256), ptr(int32(256))},
		{"negative lets the model decide", "gemini-2.5-flash", ptr(-1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := &fakeModels{resp: textResponse("{}")}
			g := newGenerator(models, tt.model, 0)
			if tt.override != nil {
				g.WithThinkingBudget(*tt.override)
			}

			if _, err := g.GenerateJSON(context.Background(), "prompt"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			tc := models.config.ThinkingConfig
			if tt.want == nil {
				if tc != nil {
					t.Fatalf("expected no thinking config, got %+v", tc)
				}
				return
			}
			if tc == nil || tc.ThinkingBudget == nil || *tc.ThinkingBudget != *tt.want {
				t.Fatalf("expected thinking budget %d, got %+v", *tt.want, tc)
			}
		})
	}
}

func TestGenerateJSONSkipsThoughts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{
		{Text: "let me think about the candidate", Thought: true},
		{Text: `{"match_score":70}`},
	}}}}}
	g := newGenerator(&fakeModels{resp: resp}, "", 0)

	out, err := g.GenerateJSON(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"match_score":70}` {
		t.Fatalf("thought text leaked into output: %q", out)
	}
}

func ptr[T any](v T) *T { return &v }

func TestGenerateJSONErrorsAreUpstream(t *testing.T) {
	tests := []struct {
		name   string
		models *fakeModels
	}{
		{"api error", &fakeModels{err: genai.APIError{Code: 503, Status: "UNAVAILABLE"}}},
		{"empty response", &fakeModels{resp: &genai.GenerateContentResponse{}}},
		{"blank text", &fakeModels{resp: textResponse("   ")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGenerator(tt.models, "gemini-test", 64)
			_, err := g.GenerateJSON(context.Background(), "prompt")

			var upErr *types.ErrUpstreamUnavailable
			if !errors.As(err, &upErr) {
				t.Fatalf("expected upstream error, got %v", err)
			}
		})
	}
}

func TestGenerateJSONRejectsEmptyPrompt(t *testing.T) {
	models := &fakeModels{resp: textResponse("{}")}
	g := newGenerator(models, "m", 0)

	if _, err := g.GenerateJSON(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
	if models.calls != 0 {
		t.Fatalf("expected no api call, got %d", models.calls)
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	_, err := NewGenerator(context.Background(), " ", "", 0)
	var cfgErr *types.ErrConfiguration
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
