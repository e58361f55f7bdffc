package prompt

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSONObject is returned when a completion contains no balanced object.
var ErrNoJSONObject = errors.New("no JSON object found in completion")

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

// parseModelPayload decodes the first JSON object embedded in raw model output.
func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	fragment := ExtractJSONObject(raw)
	if fragment == "" {
		return zero, ErrNoJSONObject
	}
	var decoded T
	if err := json.Unmarshal([]byte(fragment), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

// ExtractJSONObject returns the first balanced {...} span of text that is
// valid JSON, looking inside a fenced code block first. When no balanced span
// parses, the first balanced span is returned so the caller sees the decode
// error. The scan ignores braces inside string literals.
func ExtractJSONObject(text string) string {
	var first string
	for _, candidate := range []string{fencedBlock(text), text} {
		if candidate == "" {
			continue
		}
		for start := strings.IndexByte(candidate, '{'); start >= 0; {
			if end := matchBrace(candidate, start); end >= 0 {
				span := candidate[start : end+1]
				if json.Valid([]byte(span)) {
					return span
				}
				if first == "" {
					first = span
				}
			}
			next := strings.IndexByte(candidate[start+1:], '{')
			if next < 0 {
				break
			}
			start += next + 1
		}
	}
	return first
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// fencedBlock returns the body of the first ``` fenced block, dropping an
// optional language tag, or "" when text has no complete fence.
func fencedBlock(text string) string {
	open := strings.Index(text, "```")
	if open < 0 {
		return ""
	}
	rest := text[open+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{}") {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
