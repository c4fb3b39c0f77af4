package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError describes a failed attempt to extract JSON from model output.
type ParseError struct {
	Reason string
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse model json: %s: %v", e.Reason, e.Cause)
	}
	return "parse model json: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ParseModelJSON extracts a JSON object from free-form model output and
// unmarshals it into target. Models prompted for bare JSON still wrap it in
// prose or code fences often enough that a direct parse is only the first
// attempt; the fallback scans for the first balanced {...} span, counting
// braces outside string literals so embedded braces don't end the span early.
func ParseModelJSON(text string, target any) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &ParseError{Reason: "empty model output"}
	}
	if err := json.Unmarshal([]byte(trimmed), target); err == nil {
		return nil
	}
	span, ok := firstBalancedObject(trimmed)
	if !ok {
		return &ParseError{Reason: "no balanced JSON object in model output"}
	}
	if err := json.Unmarshal([]byte(span), target); err != nil {
		return &ParseError{Reason: "extracted span is not valid JSON", Cause: err}
	}
	return nil
}

// firstBalancedObject returns the first top-level {...} span. String literals
// and escape sequences are tracked so quoted braces don't affect the depth.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
