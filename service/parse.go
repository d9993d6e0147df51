package service

import (
	"encoding/json"
	"strings"
)

// extractJSONBlock finds the first balanced JSON object or array embedded in
// free text. Reasoning output routinely wraps its JSON in prose or code
// fences, so the parser scans for the outermost brace/bracket pair instead of
// expecting a clean document.
func extractJSONBlock(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// decodeJSONObject decodes the first JSON object found in raw into dst.
func decodeJSONObject(raw string, dst interface{}) bool {
	block, ok := extractJSONBlock(raw, '{', '}')
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(block), dst) == nil
}

// decodeJSONArray decodes the first JSON array found in raw into dst.
func decodeJSONArray(raw string, dst interface{}) bool {
	block, ok := extractJSONBlock(raw, '[', ']')
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(block), dst) == nil
}

// clampStrings trims, drops empties, and caps a string list.
func clampStrings(values []string, max int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) == max {
			break
		}
	}
	return out
}

// firstNonEmpty returns the first non-blank string, or the last entry when
// all are blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

// sample returns the first n bytes of text, whole.
func sample(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n]
}
