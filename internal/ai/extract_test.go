package ai

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		expect string
		ok     bool
	}{
		{
			name:   "plain object",
			raw:    `{"match_score": 80}`,
			expect: `{"match_score":80}`,
			ok:     true,
		},
		{
			name:   "code fence",
			raw:    "```json\n{\"match_score\": 72, \"matched_skills\": [\"go\"]}\n```",
			expect: `{"match_score":72,"matched_skills":["go"]}`,
			ok:     true,
		},
		{
			name:   "prose around",
			raw:    "Sure! Here is the result: {\"match_score\": 10} Let me know if you need more.",
			expect: `{"match_score":10}`,
			ok:     true,
		},
		{
			name:   "first object wins",
			raw:    `{"match_score": 1} {"match_score": 2}`,
			expect: `{"match_score":1}`,
			ok:     true,
		},
		{
			name:   "skips broken prefix",
			raw:    `{"match_score": } then {"match_score": 55}`,
			expect: `{"match_score":55}`,
			ok:     true,
		},
		{
			name:   "nested braces",
			raw:    `noise {"a": {"b": "}"}, "c": 1}`,
			expect: `{"a":{"b":"}"},"c":1}`,
			ok:     true,
		},
		{
			name: "no object",
			raw:  "I cannot help with that.",
			ok:   false,
		},
		{
			name: "truncated object",
			raw:  `{"match_score": 80, "matched_skills": ["go"`,
			ok:   false,
		},
		{
			name: "empty",
			raw:  "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.raw)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v (%q)", tt.ok, ok, got)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
