package ai

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ExtractJSONObject returns the first well-formed JSON object embedded in raw.
// Code fences, prose before or after the object and trailing garbage are
// ignored. The second value is false when no object can be found.
func ExtractJSONObject(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	for start := strings.IndexByte(text, '{'); start >= 0; {
		dec := json.NewDecoder(strings.NewReader(text[start:]))
		var obj json.RawMessage
		if err := dec.Decode(&obj); err == nil && len(obj) > 0 && obj[0] == '{' {
			var compact bytes.Buffer
			if err := json.Compact(&compact, obj); err == nil {
				return compact.String(), true
			}
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}
